package simulate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates simulation settings that cannot be used.
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrVerification indicates a report that disagrees with the workout.
	ErrVerification = errors.New("verification failed")
	// ErrRemote indicates an unexpected response from the service.
	ErrRemote = errors.New("unexpected service response")
	// ErrRejected indicates a request the service refused as malformed.
	ErrRejected = fmt.Errorf("%w: rejected", ErrRemote)
	// ErrEmptyStream indicates a workout without frames.
	ErrEmptyStream = errors.New("no frames to process")
)
