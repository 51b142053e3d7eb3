package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"session-auth/backend/internal/user/domain"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const (
	qUserInsert = `
INSERT INTO users (email, password_hash)
VALUES ($1, $2)
RETURNING id, created_at, updated_at`

	qUserByID = `
SELECT id, email, password_hash, refresh_token_hash, created_at, updated_at
FROM users
WHERE id = $1`

	qUserByEmail = `
SELECT id, email, password_hash, refresh_token_hash, created_at, updated_at
FROM users
WHERE email = $1`

	qSetRefreshHash = `
UPDATE users
SET refresh_token_hash = $2,
    updated_at         = NOW()
WHERE id = $1`

	qSwapRefreshHash = `
UPDATE users
SET refresh_token_hash = $3,
    updated_at         = NOW()
WHERE id = $1 AND refresh_token_hash = $2`
)

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewPostgresRepository returns a user repository backed by db. Each query is bounded by
// queryTimeout in addition to the caller's deadline; zero disables the extra bound.
func NewPostgresRepository(db *sql.DB, queryTimeout time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, queryTimeout: queryTimeout}
}

func (r *PostgresRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, qUserByID, id))
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, qUserByEmail, email))
}

// Create inserts u and fills in the generated id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRowContext(ctx, qUserInsert, u.Email, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

// SetRefreshTokenHash overwrites the stored fingerprint. Updating a missing user is a no-op.
func (r *PostgresRepository) SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.db.ExecContext(ctx, qSetRefreshHash, id, nullString(hash)); err != nil {
		return fmt.Errorf("set refresh hash: %w", err)
	}
	return nil
}

// SwapRefreshTokenHash is a single conditional UPDATE, so concurrent callers presenting the
// same expected hash have exactly one winner.
func (r *PostgresRepository) SwapRefreshTokenHash(ctx context.Context, id int64, expected string, next *string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.db.ExecContext(ctx, qSwapRefreshHash, id, expected, nullString(next))
	if err != nil {
		return fmt.Errorf("swap refresh hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("swap refresh hash: %w", err)
	}
	if n == 0 {
		return ErrHashMismatch
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u       domain.User
		refresh sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if refresh.Valid {
		s := refresh.String
		u.RefreshTokenHash = &s
	}
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
