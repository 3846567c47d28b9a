package profile

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidProfile  = errors.New("invalid exercise profile")
	ErrUnknownExercise = errors.New("unknown exercise")
	ErrLoadProfiles    = errors.New("load profiles failed")
)
