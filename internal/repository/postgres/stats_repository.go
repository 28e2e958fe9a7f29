package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
	"rewards-admin/internal/util"
)

type StatsRepository struct {
	client *Client
}

func NewStatsRepository(client *Client) *StatsRepository {
	return &StatsRepository{client: client}
}

// ListUserSummaries left-joins profiles with user_stats. COALESCE keeps
// the zero-fill for users that have no stats row yet.
func (r *StatsRepository) ListUserSummaries(ctx context.Context) ([]models.UserSummary, error) {
	summaries := []models.UserSummary{}
	err := r.client.DB.SelectContext(ctx, &summaries,
		`SELECT p.user_id,
		        p.email,
		        p.display_name,
		        COALESCE(s.total_earned, 0)    AS total_earned,
		        COALESCE(s.posts_submitted, 0) AS posts_submitted,
		        COALESCE(s.rewards_claimed, 0) AS rewards_claimed,
		        COALESCE(s.current_streak, 0)  AS current_streak
		 FROM profiles p
		 LEFT JOIN user_stats s ON s.user_id = p.user_id`)
	if err != nil {
		util.Error("Failed to list user summaries", zap.Error(err))
		return nil, fmt.Errorf("failed to list user summaries: %w", err)
	}
	return summaries, nil
}

func (r *StatsRepository) Get(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := r.client.DB.GetContext(ctx, stats,
		`SELECT user_id, total_earned, posts_submitted, rewards_claimed, current_streak, updated_at
		 FROM user_stats WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		util.Error("Failed to get user stats", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// Upsert overwrites all four counters in one statement; concurrent
// writers are last-write-wins, which is acceptable for a single admin.
func (r *StatsRepository) Upsert(ctx context.Context, userID string, in models.StatsInput, now time.Time) error {
	_, err := r.client.DB.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, total_earned, posts_submitted, rewards_claimed, current_streak, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     total_earned    = EXCLUDED.total_earned,
		     posts_submitted = EXCLUDED.posts_submitted,
		     rewards_claimed = EXCLUDED.rewards_claimed,
		     current_streak  = EXCLUDED.current_streak,
		     updated_at      = EXCLUDED.updated_at`,
		userID, in.TotalEarned, in.PostsSubmitted, in.RewardsClaimed, in.CurrentStreak, now)
	if err != nil {
		util.Error("Failed to upsert user stats", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}
	return nil
}
