package repository

import (
	"context"
	"sync"
	"time"

	"session-auth/backend/internal/user/domain"
)

// MemoryRepository is an in-process Repository used for local development without a
// database and in tests. Records are copied in and out so callers never share state with
// the store.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
	now     func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyUser(r.byID[id]), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return copyUser(r.byID[id]), nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	r.nextID++
	now := r.now()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.byID[u.ID] = copyUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryRepository) SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.RefreshTokenHash = copyString(hash)
		u.UpdatedAt = r.now()
	}
	return nil
}

func (r *MemoryRepository) SwapRefreshTokenHash(ctx context.Context, id int64, expected string, next *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != expected {
		return ErrHashMismatch
	}
	u.RefreshTokenHash = copyString(next)
	u.UpdatedAt = r.now()
	return nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.RefreshTokenHash = copyString(u.RefreshTokenHash)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
