package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rewards-admin/internal/audit"
	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
	"rewards-admin/internal/util"
)

// AdminService exposes the dashboard data operations. Authorization is
// the handler's job; every method here assumes a validated session.
type AdminService struct {
	stats   repository.StatsRepository
	guests  repository.GuestSubmissionRepository
	auditor audit.Publisher
}

func NewAdminService(
	stats repository.StatsRepository,
	guests repository.GuestSubmissionRepository,
	auditor audit.Publisher,
) *AdminService {
	return &AdminService{
		stats:   stats,
		guests:  guests,
		auditor: auditor,
	}
}

// GetUsers returns every user profile joined with its reward stats.
// Users without a stats row report zero for all counters.
func (s *AdminService) GetUsers(ctx context.Context) ([]models.UserSummary, error) {
	summaries, err := s.stats.ListUserSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return summaries, nil
}

// GetGuestSubmissions returns all QR-code submissions, newest first.
func (s *AdminService) GetGuestSubmissions(ctx context.Context) ([]models.GuestSubmission, error) {
	submissions, err := s.guests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guest submissions: %w", err)
	}
	return submissions, nil
}

// UpdateStats overwrites a user's four counters, creating the row on
// first edit. Concurrent updates for the same user are last-write-wins.
func (s *AdminService) UpdateStats(ctx context.Context, userID string, in models.StatsInput) error {
	if userID == "" {
		return ErrInvalidInput
	}

	now := time.Now().UTC()
	if err := s.stats.Upsert(ctx, userID, in, now); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}

	s.auditor.Publish(ctx, models.AuditEvent{
		EventType: models.EventStatsUpdated,
		Details:   "user " + userID,
	})
	util.Info("User stats updated",
		zap.String("user_id", userID),
		zap.Float64("total_earned", in.TotalEarned),
	)
	return nil
}
