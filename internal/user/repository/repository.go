package repository

import (
	"context"
	"errors"

	"session-auth/backend/internal/user/domain"
)

var (
	// ErrEmailTaken is returned by Create when another user already has the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrHashMismatch is returned by SwapRefreshTokenHash when the stored fingerprint is not
	// the expected one (rotated, revoked, or user gone).
	ErrHashMismatch = errors.New("refresh token hash changed")
)

// Repository defines persistence for users. It is the only place session state lives, so
// the fingerprint operations must be atomic.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail returns the user with the exact email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists u and sets u.ID, u.CreatedAt and u.UpdatedAt.
	Create(ctx context.Context, u *domain.User) error
	// SetRefreshTokenHash overwrites the stored fingerprint; nil clears it.
	SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error
	// SwapRefreshTokenHash replaces the fingerprint with next only if it currently equals
	// expected; otherwise it returns ErrHashMismatch.
	SwapRefreshTokenHash(ctx context.Context, id int64, expected string, next *string) error
}
