package classifier

import "errors"

// Sentinel error kinds for this package.
var (
	ErrModelLoad      = errors.New("classifier model load failed")
	ErrFeatureLength  = errors.New("feature length mismatch")
	ErrEngineClosed   = errors.New("classifier engine not open")
	ErrPredictTimeout = errors.New("classifier prediction timed out")
)
