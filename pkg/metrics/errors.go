package metrics

import "errors"

// ErrGatherFailed wraps registry gather failures returned by Totals.
var ErrGatherFailed = errors.New("metrics gather failed")
