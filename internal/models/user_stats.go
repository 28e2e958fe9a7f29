package models

import "time"

// Profile is the read-only user profile record shared with the rest of
// the rewards platform.
type Profile struct {
	UserID      string `db:"user_id" json:"user_id"`
	Email       string `db:"email" json:"email"`
	DisplayName string `db:"display_name" json:"display_name"`
}

// UserStats is one user's reward counters. Rows are created lazily on
// first admin edit; users without a row report zero for every field.
type UserStats struct {
	UserID         string    `db:"user_id" json:"user_id"`
	TotalEarned    float64   `db:"total_earned" json:"total_earned"`
	PostsSubmitted int       `db:"posts_submitted" json:"posts_submitted"`
	RewardsClaimed int       `db:"rewards_claimed" json:"rewards_claimed"`
	CurrentStreak  int       `db:"current_streak" json:"current_streak"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StatsInput is the four writable counters accepted by updateStats.
type StatsInput struct {
	TotalEarned    float64 `json:"total_earned"`
	PostsSubmitted int     `json:"posts_submitted"`
	RewardsClaimed int     `json:"rewards_claimed"`
	CurrentStreak  int     `json:"current_streak"`
}

// UserSummary joins a profile with its stats for the admin dashboard.
type UserSummary struct {
	UserID         string  `db:"user_id" json:"user_id"`
	Email          string  `db:"email" json:"email"`
	DisplayName    string  `db:"display_name" json:"display_name"`
	TotalEarned    float64 `db:"total_earned" json:"total_earned"`
	PostsSubmitted int     `db:"posts_submitted" json:"posts_submitted"`
	RewardsClaimed int     `db:"rewards_claimed" json:"rewards_claimed"`
	CurrentStreak  int     `db:"current_streak" json:"current_streak"`
}
