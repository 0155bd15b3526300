package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	Field     string `json:"field,omitempty"`
	Current   string `json:"current,omitempty"`
	Requested string `json:"requested,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// reported as a generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{RequestID: requestIDOf(r)}
	status := http.StatusInternalServerError

	var (
		forbidden  *domain.ForbiddenError
		conflict   *domain.ConflictError
		validation *domain.ValidationError
	)

	switch {
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
		resp.Error = forbidden.Message
		resp.Reason = string(forbidden.Reason)
	case errors.As(err, &conflict):
		status = http.StatusConflict
		resp.Error = conflict.Message
		resp.Current = string(conflict.Current)
		resp.Requested = string(conflict.Requested)
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		resp.Error = validation.Message
		resp.Field = validation.Field
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
		resp.Error = "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		resp.Error = "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = "not found"
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		resp.Error = "conflict"
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		resp.Error = err.Error()
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
		resp.Error = "service temporarily unavailable"
	default:
		resp.Error = "internal server error"
	}

	writeJSON(w, status, resp)
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

// caller returns the authenticated identity. Routes behind
// Authenticate(required) always have one.
func caller(r *http.Request) (domain.Identity, error) {
	id, ok := identityFrom(r.Context())
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}
