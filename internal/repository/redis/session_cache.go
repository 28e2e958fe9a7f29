package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rewards-admin/internal/client"
	"rewards-admin/internal/models"
	"rewards-admin/internal/util"
)

const (
	sessionPrefix       = "admin_session:"
	adminSessionsPrefix = "admin_sessions:"
)

// ErrCacheMiss is returned when a token has no cached entry; the caller
// falls through to the primary store.
var ErrCacheMiss = errors.New("session not in cache")

// CachedSession is the value stored per token so validate() can answer
// without a database round-trip.
type CachedSession struct {
	Profile   models.AdminProfile `json:"profile"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// SessionCache keeps validated sessions in Redis with a TTL clamped to
// the session's own expiry. It is an optional layer; the service treats
// a nil cache and any cache failure the same way, by going to Postgres.
type SessionCache struct {
	client *client.RedisClient
}

func NewSessionCache(client *client.RedisClient) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) Put(session *models.AdminSession, profile models.AdminProfile) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	entry := CachedSession{Profile: profile, ExpiresAt: session.ExpiresAt}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached session: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, sessionPrefix+session.Token, payload, ttl)
	adminKey := adminSessionsPrefix + session.AdminID.String()
	pipe.SAdd(ctx, adminKey, session.Token)
	pipe.Expire(ctx, adminKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		util.Error("Failed to cache session", zap.Error(err))
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (c *SessionCache) Get(tok string) (*CachedSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := c.client.Get(ctx, sessionPrefix+tok)
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, ErrCacheMiss
		}
		util.Error("Failed to read session cache", zap.Error(err))
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}

	entry := &CachedSession{}
	if err := json.Unmarshal([]byte(payload), entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached session: %w", err)
	}
	if !entry.ExpiresAt.After(time.Now()) {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

func (c *SessionCache) Invalidate(tok string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Del(ctx, sessionPrefix+tok); err != nil {
		util.Error("Failed to invalidate cached session", zap.Error(err))
		return fmt.Errorf("failed to invalidate cached session: %w", err)
	}
	return nil
}

// InvalidateAllForAdmin drops every cached session for the admin. Used
// when a password reset revokes all sessions at once.
func (c *SessionCache) InvalidateAllForAdmin(adminID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminKey := adminSessionsPrefix + adminID
	tokens, err := c.client.SMembers(ctx, adminKey)
	if err != nil {
		util.Error("Failed to list cached sessions for admin", zap.String("admin_id", adminID), zap.Error(err))
		return fmt.Errorf("failed to list cached sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionPrefix+t)
	}
	keys = append(keys, adminKey)

	if err := c.client.Del(ctx, keys...); err != nil {
		util.Error("Failed to invalidate cached sessions for admin", zap.String("admin_id", adminID), zap.Error(err))
		return fmt.Errorf("failed to invalidate cached sessions: %w", err)
	}

	util.Debug("Cached sessions invalidated", zap.String("admin_id", adminID), zap.Int("count", len(tokens)))
	return nil
}
