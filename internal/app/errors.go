package service

import "errors"

// Sentinel errors returned by Service and Session.
var (
	ErrServiceNotStarted = errors.New("service not started")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownExercise   = errors.New("unknown exercise")
	ErrTooManySessions   = errors.New("too many sessions")
	ErrSessionStopped    = errors.New("session stopped")
	ErrSessionNotStarted = errors.New("session not started")
)
