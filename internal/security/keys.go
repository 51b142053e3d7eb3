package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when refresh key material is missing or is not an RSA or ECDSA key.
var ErrInvalidKey = errors.New("invalid key")

// LoadPEM resolves JWT_PRIVATE_KEY / JWT_PUBLIC_KEY values: inline PEM is used as is (with
// literal "\n" from env files expanded), anything else is read as a file path.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if !strings.HasPrefix(s, "-----BEGIN") {
		return os.ReadFile(s)
	}
	return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
}

// ParsePrivateKey loads the refresh-token signing key. RSA (PKCS#1, PKCS#8) is tried first,
// then ECDSA (SEC 1, PKCS#8).
func ParsePrivateKey(s string) (crypto.Signer, error) {
	raw, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	if key, err := jwt.ParseRSAPrivateKeyFromPEM(raw); err == nil {
		return key, nil
	}
	if key, err := jwt.ParseECPrivateKeyFromPEM(raw); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("refresh signing key: %w", ErrInvalidKey)
}

// ParsePublicKey loads the refresh-token verification key, RSA or ECDSA.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	raw, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM(raw); err == nil {
		return key, nil
	}
	if key, err := jwt.ParseECPublicKeyFromPEM(raw); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("refresh verification key: %w", ErrInvalidKey)
}

// refreshSigningMethod picks the JWT algorithm for an asymmetric refresh key:
// RS256 for RSA, ES256 for ECDSA P-256. Anything else is rejected.
func refreshSigningMethod(pub crypto.PublicKey) (jwt.SigningMethod, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return nil, ErrInvalidKey
		}
		return jwt.SigningMethodES256, nil
	default:
		return nil, ErrInvalidKey
	}
}
