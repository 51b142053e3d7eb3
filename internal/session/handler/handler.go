// Package handler exposes the session service over HTTP: JSON or form bodies in, token cookies
// and JSON out.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"session-auth/backend/internal/server/middleware"
	"session-auth/backend/internal/session/service"
	"session-auth/backend/internal/user/domain"
)

// loginFailedMessage is the single message for every login failure, so responses never reveal
// whether the email exists.
const loginFailedMessage = "The email address or password is incorrect."

const protectedData = "This is protected data."

// Service is the session protocol the handlers delegate to.
type Service interface {
	Signup(ctx context.Context, in service.SignupInput) (*domain.Profile, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
	Me(ctx context.Context, accessToken string) (*domain.Profile, error)
	Logout(ctx context.Context, accessToken string)
}

// Handler serves the signup, login, me, logout, refresh and protected routes.
type Handler struct {
	svc     Service
	cookies CookieConfig
	log     *zap.Logger
	now     func() time.Time
}

// NewHandler returns a Handler. Zero fields of cookies take their DefaultCookieConfig value,
// except Secure. log may be nil.
func NewHandler(svc Service, cookies CookieConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:     svc,
		cookies: cookies.withDefaults(),
		log:     log,
		now:     time.Now,
	}
}

// Cookies returns the effective cookie configuration.
func (h *Handler) Cookies() CookieConfig { return h.cookies }

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	email, password, err := decodeCredentials(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fieldErrorsResponse{FormErrors: []string{err.Error()}, FieldErrors: map[string][]string{}})
		return
	}
	if _, err := h.svc.Signup(r.Context(), service.SignupInput{Email: email, Password: password}); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User Created")
}

// Login handles POST /login. On success both cookies are set.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, err := decodeCredentials(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fieldErrorsResponse{FormErrors: []string{err.Error()}, FieldErrors: map[string][]string{}})
		return
	}
	sess, err := h.svc.Login(r.Context(), service.LoginInput{Email: email, Password: password})
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: loginFailedMessage})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	h.setSessionCookies(w, sess.AccessToken, sess.RefreshToken)
	writeMessage(w, http.StatusOK, http.StatusText(http.StatusOK))
}

// Me handles GET /me and returns the caller's public profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context(), cookieValue(r, h.cookies.AccessName))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Logout handles POST /logout. It always clears both cookies and answers 200.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), cookieValue(r, h.cookies.AccessName))
	h.clearSessionCookies(w)
	writeMessage(w, http.StatusOK, "Logged out")
}

// Refresh handles POST /refresh_token: rotates the token pair carried in the refresh cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Refresh(r.Context(), cookieValue(r, h.cookies.RefreshName))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.setSessionCookies(w, sess.AccessToken, sess.RefreshToken)
	writeMessage(w, http.StatusOK, http.StatusText(http.StatusOK))
}

// Protected handles POST /protected. Mount it behind middleware.RequireAccess.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserID(r.Context()); !ok {
		writeMessage(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: protectedData})
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrMissingToken):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Server errors get a generic body; the cause is only logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, status, newFieldErrorsResponse(verr.Fields))
	case status == http.StatusConflict:
		writeMessage(w, status, service.ErrConflict.Error())
	case status >= http.StatusInternalServerError:
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "1")
		}
		writeMessage(w, status, http.StatusText(status))
	default:
		writeMessage(w, status, http.StatusText(status))
	}
}
