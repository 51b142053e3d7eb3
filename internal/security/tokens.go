package security

import (
	"crypto"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, fails signature verification,
	// or carries unexpected claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a well-formed, correctly signed token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// minAccessSecretLen is the shortest HS256 secret accepted (256 bits).
const minAccessSecretLen = 32

// Clock returns the current time. Injected so expiry can be tested deterministically.
type Clock func() time.Time

// TokenClaims is the verified content of an access or refresh token.
type TokenClaims struct {
	UserID    int64
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims is the wire shape of both token kinds.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

// TokenCodecConfig holds the immutable key material and policy for a TokenCodec.
type TokenCodecConfig struct {
	// AccessSecret is the HS256 secret for access tokens.
	AccessSecret []byte
	// RefreshPrivateKey signs refresh tokens (RSA or ECDSA P-256).
	RefreshPrivateKey crypto.Signer
	// RefreshPublicKey verifies refresh tokens; must be the pair of RefreshPrivateKey.
	RefreshPublicKey crypto.PublicKey
	Issuer           string
	Audience         string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	// Now defaults to time.Now.
	Now Clock
}

// TokenCodec issues and verifies access tokens (HS256, symmetric secret) and refresh tokens
// (RS256/ES256, asymmetric key pair). The two keyspaces are independent: each verifier
// only accepts its own algorithm family, so a leaked access secret cannot mint refresh
// tokens and vice versa.
type TokenCodec struct {
	accessSecret  []byte
	refreshKey    crypto.Signer
	refreshPub    crypto.PublicKey
	refreshMethod jwt.SigningMethod
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           Clock
}

// NewTokenCodec validates cfg and returns a TokenCodec. Zero TTLs fall back to 15m / 7d.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) < minAccessSecretLen {
		return nil, errors.New("security: access token secret must be at least 32 bytes")
	}
	if cfg.RefreshPrivateKey == nil || cfg.RefreshPublicKey == nil {
		return nil, errors.New("security: refresh token key pair is required")
	}
	method, err := refreshSigningMethod(cfg.RefreshPublicKey)
	if err != nil {
		return nil, err
	}
	pub, ok := cfg.RefreshPrivateKey.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(cfg.RefreshPublicKey) {
		return nil, errors.New("security: refresh private and public keys do not match")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.AccessSecret))
	copy(secret, cfg.AccessSecret)
	return &TokenCodec{
		accessSecret:  secret,
		refreshKey:    cfg.RefreshPrivateKey,
		refreshPub:    cfg.RefreshPublicKey,
		refreshMethod: method,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}, nil
}

// AccessTTL returns the access token lifetime (also the access cookie Max-Age).
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the refresh token lifetime (also the refresh cookie Max-Age).
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken signs a short-lived access token for userID with the symmetric secret.
func (c *TokenCodec) IssueAccessToken(userID int64) (string, error) {
	return c.issue(userID, c.accessTTL, jwt.SigningMethodHS256, c.accessSecret)
}

// IssueRefreshToken signs a long-lived refresh token for userID with the private key.
func (c *TokenCodec) IssueRefreshToken(userID int64) (string, error) {
	return c.issue(userID, c.refreshTTL, c.refreshMethod, c.refreshKey)
}

// VerifyAccessToken checks signature and expiry of an access token and returns its claims.
func (c *TokenCodec) VerifyAccessToken(token string) (*TokenClaims, error) {
	return c.verify(token, []string{jwt.SigningMethodHS256.Alg()}, c.accessSecret)
}

// VerifyRefreshToken checks signature and expiry of a refresh token against the public key.
// It does not consult the stored fingerprint; that is the session service's job.
func (c *TokenCodec) VerifyRefreshToken(token string) (*TokenClaims, error) {
	return c.verify(token, []string{c.refreshMethod.Alg()}, c.refreshPub)
}

func (c *TokenCodec) issue(userID int64, ttl time.Duration, method jwt.SigningMethod, key interface{}) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidToken
	}
	now := c.now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}
	return jwt.NewWithClaims(method, claims).SignedString(key)
}

func (c *TokenCodec) verify(token string, methods []string, key interface{}) (*TokenClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		// Rejects non-canonical base64 so a token has exactly one accepted encoding.
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil {
		// Signature is checked before claims, so an expired error implies a genuine token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return &TokenClaims{
		UserID:    claims.UserID,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
