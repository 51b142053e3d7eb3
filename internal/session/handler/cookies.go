package handler

import (
	"net/http"
	"time"

	"session-auth/backend/internal/security"
)

// CookieConfig controls how the token pair is carried.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	// RefreshPath scopes the refresh cookie to the refresh endpoint.
	RefreshPath string
	Domain      string
	// Secure must only be disabled for local plain-HTTP development.
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultCookieConfig returns the cookie names, paths and lifetimes the web client expects.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		AccessName:  "accesstoken",
		RefreshName: "refreshtoken",
		RefreshPath: "/refresh_token",
		Secure:      true,
		AccessTTL:   security.DefaultAccessTTL,
		RefreshTTL:  security.DefaultRefreshTTL,
	}
}

func (c CookieConfig) withDefaults() CookieConfig {
	d := DefaultCookieConfig()
	if c.AccessName == "" {
		c.AccessName = d.AccessName
	}
	if c.RefreshName == "" {
		c.RefreshName = d.RefreshName
	}
	if c.RefreshPath == "" {
		c.RefreshPath = d.RefreshPath
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = d.AccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = d.RefreshTTL
	}
	return c
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, access, refresh string) {
	now := h.now()
	h.setCookie(w, h.cookies.AccessName, access, "/", h.cookies.AccessTTL, now)
	h.setCookie(w, h.cookies.RefreshName, refresh, h.cookies.RefreshPath, h.cookies.RefreshTTL, now)
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	h.expireCookie(w, h.cookies.AccessName, "/")
	h.expireCookie(w, h.cookies.RefreshName, h.cookies.RefreshPath)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value, path string, ttl time.Duration, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.cookies.Domain,
		Expires:  now.Add(ttl).UTC(),
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// expireCookie clears a cookie. Path and Domain must match the ones it was set with.
func (h *Handler) expireCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.cookies.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
