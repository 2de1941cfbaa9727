package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"userauth/internal/domain"
	obsmw "userauth/internal/observability/middleware"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Reasons []string          `json:"reasons,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		tooLong    *domain.FieldTooLongError
		weak       *domain.WeakPasswordError
		dup        *domain.DuplicateIdentityError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validation.Error(),
			Field:  firstField(validation.Fields),
			Fields: validation.Fields,
		})
	case errors.Is(err, domain.ErrInvalidEmailFormat):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "email"})
	case errors.As(err, &tooLong):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: tooLong.Field})
	case errors.Is(err, domain.ErrPasswordMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "password"})
	case errors.As(err, &weak):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.ErrWeakPassword.Error(), Field: "password", Reasons: weak.Reasons})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Field: dup.Field})
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenBlacklisted):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUserDisabled):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		obsmw.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func firstField(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
