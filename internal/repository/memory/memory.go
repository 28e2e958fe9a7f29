// Package memory implements the repository interfaces with in-process
// maps. It backs the "memory" storage driver for local development and
// the service-level test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rewards-admin/internal/models"
	"rewards-admin/internal/repository"
)

// Store bundles one in-memory implementation of every repository.
type Store struct {
	Admins   *AdminRepository
	Sessions *SessionRepository
	Resets   *ResetRepository
	Stats    *StatsRepository
	Guests   *GuestRepository
}

func NewStore() *Store {
	return &Store{
		Admins:   NewAdminRepository(),
		Sessions: NewSessionRepository(),
		Resets:   NewResetRepository(),
		Stats:    NewStatsRepository(),
		Guests:   NewGuestRepository(),
	}
}

type AdminRepository struct {
	mu     sync.Mutex
	admins map[uuid.UUID]*models.Admin
}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{admins: make(map[uuid.UUID]*models.Admin)}
}

func (r *AdminRepository) Create(_ context.Context, admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.admins) > 0 {
		return repository.ErrAdminExists
	}
	copied := *admin
	r.admins[admin.ID] = &copied
	return nil
}

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AdminRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *AdminRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = updatedAt
	return nil
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.AdminSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*models.AdminSession)}
}

func (r *SessionRepository) Create(_ context.Context, session *models.AdminSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *SessionRepository) GetValid(_ context.Context, token string, now time.Time) (*models.AdminSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok || s.Expired(now) {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *SessionRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *SessionRepository) DeleteAllForAdmin(_ context.Context, adminID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.sessions {
		if s.AdminID == adminID {
			delete(r.sessions, token)
		}
	}
	return nil
}

type ResetRepository struct {
	mu     sync.Mutex
	resets map[uuid.UUID]*models.PasswordReset
}

func NewResetRepository() *ResetRepository {
	return &ResetRepository{resets: make(map[uuid.UUID]*models.PasswordReset)}
}

func (r *ResetRepository) Create(_ context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *reset
	r.resets[reset.ID] = &copied
	return nil
}

func (r *ResetRepository) ListUsable(_ context.Context, adminID uuid.UUID, now time.Time) ([]*models.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PasswordReset
	for _, reset := range r.resets {
		if reset.AdminID == adminID && reset.Usable(now) {
			copied := *reset
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ResetRepository) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[id]
	if !ok || reset.UsedAt != nil {
		return repository.ErrNotFound
	}
	t := usedAt
	reset.UsedAt = &t
	return nil
}

type StatsRepository struct {
	mu       sync.Mutex
	profiles map[string]models.Profile
	stats    map[string]*models.UserStats
}

func NewStatsRepository() *StatsRepository {
	return &StatsRepository{
		profiles: make(map[string]models.Profile),
		stats:    make(map[string]*models.UserStats),
	}
}

// SeedProfile registers a user profile. Profiles are owned by the wider
// platform; in memory mode they have to be injected.
func (r *StatsRepository) SeedProfile(p models.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

func (r *StatsRepository) ListUserSummaries(_ context.Context) ([]models.UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summaries := make([]models.UserSummary, 0, len(r.profiles))
	for _, p := range r.profiles {
		summary := models.UserSummary{
			UserID:      p.UserID,
			Email:       p.Email,
			DisplayName: p.DisplayName,
		}
		if s, ok := r.stats[p.UserID]; ok {
			summary.TotalEarned = s.TotalEarned
			summary.PostsSubmitted = s.PostsSubmitted
			summary.RewardsClaimed = s.RewardsClaimed
			summary.CurrentStreak = s.CurrentStreak
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *StatsRepository) Get(_ context.Context, userID string) (*models.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *StatsRepository) Upsert(_ context.Context, userID string, in models.StatsInput, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[userID] = &models.UserStats{
		UserID:         userID,
		TotalEarned:    in.TotalEarned,
		PostsSubmitted: in.PostsSubmitted,
		RewardsClaimed: in.RewardsClaimed,
		CurrentStreak:  in.CurrentStreak,
		UpdatedAt:      now,
	}
	return nil
}

type GuestRepository struct {
	mu          sync.Mutex
	submissions []models.GuestSubmission
}

func NewGuestRepository() *GuestRepository {
	return &GuestRepository{}
}

// SeedSubmission injects a guest submission for memory mode and tests.
func (r *GuestRepository) SeedSubmission(s models.GuestSubmission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, s)
}

func (r *GuestRepository) List(_ context.Context) ([]models.GuestSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.GuestSubmission, len(r.submissions))
	copy(out, r.submissions)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
