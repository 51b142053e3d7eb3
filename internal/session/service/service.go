// Package service implements the cookie session protocol: signup, login, refresh-token
// rotation, profile lookup and logout. It holds no mutable state; the refresh fingerprint in
// the user store is the only synchronisation point.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"session-auth/backend/internal/platform/validate"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/telemetry"
	"session-auth/backend/internal/user/domain"
	"session-auth/backend/internal/user/repository"
)

// dummyPassword is hashed once at construction so logins for unknown emails spend the same
// bcrypt time as logins with a wrong password.
const dummyPassword = "session-auth-timing-equaliser"

// SignupInput is the signup request body.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a freshly issued token pair. Both tokens are bearer secrets.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       int64
}

// SessionService implements signup, login, refresh, me, authenticate and logout.
type SessionService struct {
	users     repository.Repository
	tokens    *security.TokenCodec
	hasher    *security.Hasher
	reporter  *telemetry.Reporter
	log       *zap.Logger
	dummyHash string
}

// NewSessionService returns a SessionService with the given dependencies. reporter and log may be nil.
func NewSessionService(
	users repository.Repository,
	tokens *security.TokenCodec,
	hasher *security.Hasher,
	reporter *telemetry.Reporter,
	log *zap.Logger,
) (*SessionService, error) {
	if users == nil || tokens == nil || hasher == nil {
		return nil, errors.New("session service: users, tokens and hasher are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	dummy, err := hasher.HashSecret(dummyPassword)
	if err != nil {
		return nil, err
	}
	return &SessionService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		reporter:  reporter,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Signup validates the input, rejects a duplicate email and stores a new user with a bcrypt
// password hash. It does not start a session.
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (profile *domain.Profile, err error) {
	defer func() { s.report(ctx, telemetry.EventSignup, profileID(profile), err) }()

	if verr := validate.Signup(in.Email, in.Password); verr != nil {
		return nil, newValidationError(verr)
	}
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeError("get user by email", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}
	hash, err := s.hasher.HashSecret(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrConflict
		}
		return nil, storeError("create user", err)
	}
	s.log.Info("user created", zap.Int64("user_id", u.ID))
	return u.Profile(), nil
}

// Login verifies the credentials and starts a session, replacing any previous one for the user.
// An unknown email and a wrong password both return ErrAuthentication.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { s.report(ctx, telemetry.EventLogin, sessionUserID(sess), err) }()

	if verr := validate.Login(in.Email, in.Password); verr != nil {
		return nil, newValidationError(verr)
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, storeError("get user by email", err)
	}
	if u == nil {
		s.hasher.VerifySecret(in.Password, s.dummyHash)
		return nil, ErrAuthentication
	}
	if !s.hasher.VerifySecret(in.Password, u.PasswordHash) {
		return nil, ErrAuthentication
	}
	sess, fingerprint, err := s.issue(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, &fingerprint); err != nil {
		return nil, storeError("set refresh hash", err)
	}
	return sess, nil
}

// Refresh rotates the session: the presented refresh token must verify and match the stored
// fingerprint, and is replaced by a new pair. Rotation is a compare-and-swap on the fingerprint,
// so of two concurrent refreshes with the same token exactly one succeeds.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (sess *Session, err error) {
	defer func() { s.report(ctx, telemetry.EventRefresh, sessionUserID(sess), err) }()

	if refreshToken == "" {
		return nil, ErrMissingToken
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrAuthentication
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, storeError("get user by id", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.HasActiveSession() || !s.hasher.VerifySecret(refreshToken, *u.RefreshTokenHash) {
		return nil, ErrAuthentication
	}
	sess, fingerprint, err := s.issue(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SwapRefreshTokenHash(ctx, u.ID, *u.RefreshTokenHash, &fingerprint); err != nil {
		if errors.Is(err, repository.ErrHashMismatch) {
			s.log.Info("refresh lost rotation race", zap.Int64("user_id", u.ID))
			return nil, ErrAuthentication
		}
		return nil, storeError("swap refresh hash", err)
	}
	return sess, nil
}

// Me returns the public profile of the access token's subject.
func (s *SessionService) Me(ctx context.Context, accessToken string) (*domain.Profile, error) {
	userID, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("get user by id", err)
	}
	if u == nil {
		return nil, ErrAuthentication
	}
	return u.Profile(), nil
}

// Authenticate verifies an access token without touching the store and returns its subject.
func (s *SessionService) Authenticate(_ context.Context, accessToken string) (int64, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return 0, ErrAuthentication
	}
	return claims.UserID, nil
}

// Logout clears the stored refresh fingerprint of the access token's subject. It never fails:
// a missing, expired or invalid token, or a store error, is logged and ignored.
func (s *SessionService) Logout(ctx context.Context, accessToken string) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		s.log.Debug("logout without valid access token", zap.Error(err))
		s.report(ctx, telemetry.EventLogout, 0, nil)
		return
	}
	if err := s.users.SetRefreshTokenHash(ctx, claims.UserID, nil); err != nil {
		s.log.Warn("logout: clear refresh hash failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		s.report(ctx, telemetry.EventLogout, claims.UserID, storeError("clear refresh hash", err))
		return
	}
	s.report(ctx, telemetry.EventLogout, claims.UserID, nil)
}

// issue signs a new token pair for userID and returns it with the refresh fingerprint.
func (s *SessionService) issue(userID int64) (*Session, string, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, "", err
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, "", err
	}
	fingerprint, err := s.hasher.HashSecret(refresh)
	if err != nil {
		return nil, "", err
	}
	return &Session{AccessToken: access, RefreshToken: refresh, UserID: userID}, fingerprint, nil
}

func (s *SessionService) report(ctx context.Context, typ telemetry.EventType, userID int64, err error) {
	r := reason(err)
	switch r {
	case "store_unavailable":
		s.log.Warn("session operation: store unavailable", zap.String("operation", string(typ)), zap.Error(err))
	case "internal":
		s.log.Error("session operation failed", zap.String("operation", string(typ)), zap.Error(err))
	}
	s.reporter.Report(ctx, typ, userID, r)
}

func profileID(p *domain.Profile) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}

func sessionUserID(s *Session) int64 {
	if s == nil {
		return 0
	}
	return s.UserID
}
