package main

import (
	"context"
	"errors"
	"fmt"

	"session-auth/backend/internal/platform/validate"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/user/domain"
	"session-auth/backend/internal/user/repository"
)

const (
	devEmail    = "test@example.com"
	devPassword = "Test@1234!"
)

// seed creates the development user unless it exists. It reports whether a user was created.
func seed(ctx context.Context, users repository.Repository, hasher *security.Hasher) (bool, error) {
	if err := validate.Signup(devEmail, devPassword); err != nil {
		return false, fmt.Errorf("dev credentials: %w", err)
	}
	existing, err := users.GetByEmail(ctx, devEmail)
	if err != nil {
		return false, fmt.Errorf("seed check: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	hash, err := hasher.HashSecret(devPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if err := users.Create(ctx, &domain.User{Email: devEmail, PasswordHash: hash}); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("create dev user: %w", err)
	}
	return true, nil
}
