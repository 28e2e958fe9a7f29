package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rewards-admin/internal/models"
	"rewards-admin/internal/util"
)

type GuestRepository struct {
	client *Client
}

func NewGuestRepository(client *Client) *GuestRepository {
	return &GuestRepository{client: client}
}

func (r *GuestRepository) List(ctx context.Context) ([]models.GuestSubmission, error) {
	submissions := []models.GuestSubmission{}
	err := r.client.DB.SelectContext(ctx, &submissions,
		`SELECT id, instagram_id, email, created_at
		 FROM guest_submissions ORDER BY created_at DESC`)
	if err != nil {
		util.Error("Failed to list guest submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list guest submissions: %w", err)
	}
	return submissions, nil
}
