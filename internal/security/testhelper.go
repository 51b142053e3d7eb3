package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"
)

// TestAccessSecret is a throwaway HS256 secret for unit tests only.
const TestAccessSecret = "test-access-secret-0123456789abcdef"

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

// TestKeyPair returns a process-wide RSA 2048 key pair as PKCS#8 / PKIX PEM, generated on
// first use. For unit tests only; never configure it in a deployment.
func TestKeyPair() (privatePEM, publicPEM string, err error) {
	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if testKeyErr != nil {
		return "", "", testKeyErr
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(testKey)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&testKey.PublicKey)
	if err != nil {
		return "", "", err
	}
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privatePEM, publicPEM, nil
}

// NewTestTokenCodec returns a TokenCodec built from TestAccessSecret and TestKeyPair with the
// default lifetimes. now may be nil for the wall clock. For unit tests only.
func NewTestTokenCodec(now Clock) (*TokenCodec, error) {
	privPEM, pubPEM, err := TestKeyPair()
	if err != nil {
		return nil, err
	}
	signer, err := ParsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}
	pub, err := ParsePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}
	return NewTokenCodec(TokenCodecConfig{
		AccessSecret:      []byte(TestAccessSecret),
		RefreshPrivateKey: signer,
		RefreshPublicKey:  pub,
		Issuer:            "test-issuer",
		Audience:          "test-audience",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        7 * 24 * time.Hour,
		Now:               now,
	})
}
