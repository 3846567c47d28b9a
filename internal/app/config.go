package service

import (
	"time"

	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/pose"
	"github.com/okian/repcoach/internal/domain/repcount"
)

// Session defaults not owned by a domain package.
const (
	DefaultCountdown          = 3 * time.Second
	DefaultClassifierInterval = 200 * time.Millisecond
	// DefaultClassifierTimeout keeps a form check inside one frame at 30 fps.
	DefaultClassifierTimeout = 25 * time.Millisecond
	DefaultMaxSessions        = 64
)

// SessionConfig tunes every component of a session.
type SessionConfig struct {
	SmoothingWindow     int
	VisibilityThreshold float64
	CalibrationHold     time.Duration
	SafetyMargin        int
	MinRepDuration      time.Duration
	StateHold           time.Duration
	Countdown           time.Duration
	ClassifierInterval  time.Duration
	// ClassifierTimeout bounds each form check; a late verdict counts as
	// good form. Zero waits for the model.
	ClassifierTimeout time.Duration
	// ClassifierLatency delays each form check to mimic a remote model.
	ClassifierLatency time.Duration
	// ComplimentDuration is how long praise shows after a rep.
	ComplimentDuration time.Duration
	// LostColorLock keeps the red color after tracking loss.
	LostColorLock time.Duration
	// MaxCalibration falls back to the profile defaults when calibration
	// takes longer. Zero waits forever.
	MaxCalibration time.Duration
}

// DefaultSessionConfig returns the stock tuning.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		SmoothingWindow:     angle.DefaultWindow,
		VisibilityThreshold: pose.DefaultVisibilityThreshold,
		CalibrationHold:     calibration.DefaultHoldTime,
		SafetyMargin:        calibration.DefaultSafetyMargin,
		MinRepDuration:      repcount.DefaultMinRepDuration,
		StateHold:           repcount.DefaultStateHoldTime,
		Countdown:           DefaultCountdown,
		ClassifierInterval:  DefaultClassifierInterval,
		ClassifierTimeout:   DefaultClassifierTimeout,
		ComplimentDuration:  repcount.DefaultComplimentDuration,
		LostColorLock:       repcount.DefaultLostColorLock,
	}
}
