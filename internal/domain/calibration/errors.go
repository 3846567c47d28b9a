package calibration

import "errors"

// ErrNotComplete is returned when completed thresholds are requested early.
var ErrNotComplete = errors.New("calibration not complete")
