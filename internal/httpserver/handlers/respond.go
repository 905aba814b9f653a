package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/catmanduz/link-reminder/internal/dispatcher"
	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/notify"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrReminderInPast),
		errors.Is(err, dispatcher.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, notify.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		d.Logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", errBadRequest, err)
	}
	return nil
}

// timeRequest picks a reminder time either absolutely or relative to now.
type timeRequest struct {
	At        *time.Time `json:"at,omitempty"`
	InMinutes *int       `json:"inMinutes,omitempty"`
}

func (tr timeRequest) resolve(now time.Time) (time.Time, error) {
	switch {
	case tr.At != nil && tr.InMinutes != nil:
		return time.Time{}, fmt.Errorf("%w: set either at or inMinutes, not both", errBadRequest)
	case tr.At != nil:
		return *tr.At, nil
	case tr.InMinutes != nil:
		if *tr.InMinutes <= 0 {
			return time.Time{}, fmt.Errorf("%w: inMinutes must be > 0", errBadRequest)
		}
		return now.Add(time.Duration(*tr.InMinutes) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("%w: at or inMinutes is required", errBadRequest)
	}
}
