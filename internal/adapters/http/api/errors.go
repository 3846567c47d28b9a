package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUpgradeRequired  = errors.New("websocket upgrade required")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// wrapKind tags err with the operation and the API error kind.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// statusFor maps service errors to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidFrame):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrUnknownExercise):
		return http.StatusBadRequest, "unknown_exercise"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSessionStopped), errors.Is(err, service.ErrSessionNotStarted):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	case errors.Is(err, service.ErrServiceNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
