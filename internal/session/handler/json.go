package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"session-auth/backend/internal/platform/validate"
)

const maxBodyBytes = 1 << 16

var errBadBody = errors.New("invalid request body")

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data string `json:"data"`
}

// fieldErrorsResponse is the 400 body for input that failed validation.
type fieldErrorsResponse struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newFieldErrorsResponse(errs validate.Errors) fieldErrorsResponse {
	resp := fieldErrorsResponse{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	for field, msgs := range errs {
		if field == "" {
			resp.FormErrors = append(resp.FormErrors, msgs...)
			continue
		}
		resp.FieldErrors[field] = msgs
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeCredentials reads email and password from a JSON or form-encoded body. An empty body
// yields empty fields so validation reports them.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (email, password string, err error) {
	if r.Body == nil {
		return "", "", nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", "", errBadBody
		}
		return r.PostForm.Get("email"), r.PostForm.Get("password"), nil
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return "", "", nil
		}
		return "", "", errBadBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return "", "", errBadBody
	}
	return body.Email, body.Password, nil
}
