package domain

import (
	"time"
)

// User is the stored account record. PasswordHash and RefreshTokenHash are secrets and must
// never leave the service layer; use Profile for anything returned to callers.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	// RefreshTokenHash is the bcrypt fingerprint of the one refresh token currently valid for
	// this account, or nil when there is no active session.
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Profile is the public projection of a User.
type Profile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Profile returns the public fields of u.
func (u *User) Profile() *Profile {
	return &Profile{ID: u.ID, Email: u.Email}
}

// HasActiveSession reports whether a refresh fingerprint is stored.
func (u *User) HasActiveSession() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}
