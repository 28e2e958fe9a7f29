package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rewards-admin/internal/client"
	"rewards-admin/internal/util"
)

const attemptPrefix = "auth_attempts:"

// Attempt kinds tracked per email.
const (
	KindLogin     = "login"
	KindResetCode = "reset_code"
)

// AttemptLimiter counts failed authentication attempts per email in a
// rolling window. Over the budget, the caller short-circuits to the same
// generic failure it would return for bad credentials.
type AttemptLimiter struct {
	client *client.RedisClient
	max    int
	window time.Duration
}

func NewAttemptLimiter(client *client.RedisClient, max int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{client: client, max: max, window: window}
}

func key(kind, email string) string {
	return attemptPrefix + kind + ":" + email
}

// RecordFailure bumps the counter and refreshes the window.
func (l *AttemptLimiter) RecordFailure(kind, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := l.client.IncrWithExpire(ctx, key(kind, email), l.window)
	if err != nil {
		util.Error("Failed to record auth failure", zap.String("kind", kind), zap.Error(err))
		return err
	}
	if count == int64(l.max) {
		util.Warn("Auth attempt budget exhausted", zap.String("kind", kind), zap.String("email", email))
	}
	return nil
}

// Blocked reports whether the failure budget is spent. Limiter errors
// fail open; blocking logins on a cache outage would lock the admin out.
func (l *AttemptLimiter) Blocked(kind, email string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	val, err := l.client.Get(ctx, key(kind, email))
	if err != nil {
		if !errors.Is(err, client.ErrKeyNotFound) {
			util.Error("Failed to read attempt counter", zap.String("kind", kind), zap.Error(err))
		}
		return false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return false
	}
	return count >= l.max
}

// Reset clears the counter after a successful attempt.
func (l *AttemptLimiter) Reset(kind, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return l.client.Del(ctx, key(kind, email))
}
