package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"session-auth/backend/internal/security"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":4000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":4000")
	}
	if cfg.GRPCAddr != "" {
		t.Errorf("GRPCAddr = %q, want empty", cfg.GRPCAddr)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty (in-memory store)", cfg.DatabaseURL)
	}
	if cfg.DBQueryTimeout != 2*time.Second {
		t.Errorf("DBQueryTimeout = %v, want 2s", cfg.DBQueryTimeout)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Errorf("JWTAccessTTL = %v, want 15m", cfg.JWTAccessTTL)
	}
	if cfg.JWTRefreshTTL != 168*time.Hour {
		t.Errorf("JWTRefreshTTL = %v, want 168h", cfg.JWTRefreshTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
	if cfg.AccessCookieName != "accesstoken" || cfg.RefreshCookieName != "refreshtoken" {
		t.Errorf("cookie names = %q/%q", cfg.AccessCookieName, cfg.RefreshCookieName)
	}
	if cfg.RefreshCookiePath != "/refresh_token" {
		t.Errorf("RefreshCookiePath = %q, want /refresh_token", cfg.RefreshCookiePath)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Errorf("RateLimitPerMinute = %d, want 10", cfg.RateLimitPerMinute)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.SessionEventsTopic != "session-events" {
		t.Errorf("SessionEventsTopic = %q, want session-events", cfg.SessionEventsTopic)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
	if cfg.TLSEnabled() {
		t.Error("TLS should be disabled by default")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("JWT_ACCESS_TTL", "5m")
	os.Setenv("COOKIE_SECURE", "false")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	os.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.JWTAccessTTL != 5*time.Minute {
		t.Errorf("JWTAccessTTL = %v, want 5m", cfg.JWTAccessTTL)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure = true, want false")
	}
	if cfg.RateLimitPerMinute != 0 {
		t.Errorf("RateLimitPerMinute = %d, want 0", cfg.RateLimitPerMinute)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy = false, want true")
	}
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bcrypt too low", map[string]string{"BCRYPT_COST": "3"}, "BCRYPT_COST"},
		{"bcrypt too high", map[string]string{"BCRYPT_COST": "32"}, "BCRYPT_COST"},
		{"bad duration", map[string]string{"JWT_ACCESS_TTL": "soon"}, "config"},
		{"access outlives refresh", map[string]string{"JWT_ACCESS_TTL": "200h"}, "JWT_ACCESS_TTL"},
		{"zero request timeout", map[string]string{"REQUEST_TIMEOUT": "0s"}, "REQUEST_TIMEOUT"},
		{"negative rate limit", map[string]string{"RATE_LIMIT_PER_MINUTE": "-1"}, "RATE_LIMIT_PER_MINUTE"},
		{"half tls", map[string]string{"TLS_CERT_FILE": "cert.pem"}, "TLS_KEY_FILE"},
		{"production without db", map[string]string{"APP_ENV": "production"}, "DATABASE_URL"},
		{"production insecure cookies", map[string]string{"APP_ENV": "production", "DATABASE_URL": "postgres://x", "COOKIE_SECURE": "false"}, "COOKIE_SECURE"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tc.env {
				os.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoad_Production(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("DATABASE_URL", "postgres://localhost/session_auth")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction = false")
	}
}

func TestTokenCodecConfig(t *testing.T) {
	priv, pub, err := security.TestKeyPair()
	if err != nil {
		t.Fatalf("TestKeyPair: %v", err)
	}
	base := Config{
		AccessTokenSecret: security.TestAccessSecret,
		JWTPrivateKey:     priv,
		JWTPublicKey:      pub,
		JWTIssuer:         "iss",
		JWTAudience:       "aud",
		JWTAccessTTL:      time.Minute,
		JWTRefreshTTL:     time.Hour,
	}

	tcc, err := base.TokenCodecConfig()
	if err != nil {
		t.Fatalf("TokenCodecConfig: %v", err)
	}
	if _, err := security.NewTokenCodec(tcc); err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	if tcc.AccessTTL != time.Minute || tcc.RefreshTTL != time.Hour || tcc.Issuer != "iss" || tcc.Audience != "aud" {
		t.Errorf("unexpected codec config: %+v", tcc)
	}

	short := base
	short.AccessTokenSecret = "too-short"
	if _, err := short.TokenCodecConfig(); err == nil {
		t.Error("short secret should fail")
	}

	noKeys := base
	noKeys.JWTPrivateKey = ""
	if _, err := noKeys.TokenCodecConfig(); err == nil {
		t.Error("missing private key should fail")
	}

	badKey := base
	badKey.JWTPublicKey = "-----BEGIN PUBLIC KEY-----\\nnot-base64\\n-----END PUBLIC KEY-----"
	if _, err := badKey.TokenCodecConfig(); err == nil {
		t.Error("malformed public key should fail")
	}
}

func TestKafkaBrokersList(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092 , ,b:9092 ", []string{"a:9092", "b:9092"}},
	}
	for _, tc := range testCases {
		got := (&Config{KafkaBrokers: tc.in}).KafkaBrokersList()
		if len(got) != len(tc.want) {
			t.Fatalf("KafkaBrokersList(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("KafkaBrokersList(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should yield nil list")
	}
}
