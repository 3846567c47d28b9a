// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Durations are stored as integer milliseconds or seconds, named by unit,
//   and exposed as time.Duration through accessor methods.
// - Validate before use; Load does it for you.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	service "github.com/okian/repcoach/internal/app"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ProfilesFile is an optional YAML file of exercise profiles merged over
	// the built-in presets.
	ProfilesFile string `koanf:"profiles_file"`

	// ClassifierModelFile is an optional YAML linear form model. Empty
	// disables form checks.
	ClassifierModelFile string `koanf:"classifier_model_file"`

	// SmoothingWindow is the moving-average length per limb.
	SmoothingWindow int `koanf:"smoothing_window"`

	// VisibilityThreshold is the landmark confidence floor in [0, 1].
	VisibilityThreshold float64 `koanf:"visibility_threshold"`

	// CalibrationHoldMS is how long each calibration position is held.
	CalibrationHoldMS int `koanf:"calibration_hold_ms"`

	// MaxCalibrationMS falls back to default thresholds after this long.
	// Zero waits forever.
	MaxCalibrationMS int `koanf:"max_calibration_ms"`

	// SafetyMargin widens the calibrated range in degrees.
	SafetyMargin int `koanf:"safety_margin"`

	// MinRepDurationMS and StateHoldMS tune the rep counter.
	MinRepDurationMS int `koanf:"min_rep_duration_ms"`
	StateHoldMS      int `koanf:"state_hold_ms"`

	// ComplimentMS is how long praise shows after a rep; LostColorLockMS
	// keeps the red color after tracking loss.
	ComplimentMS    int `koanf:"compliment_ms"`
	LostColorLockMS int `koanf:"lost_color_lock_ms"`

	// CountdownSeconds is the pause between calibration and counting.
	CountdownSeconds int `koanf:"countdown_seconds"`

	// ClassifierIntervalMS is how often the form classifier is consulted.
	ClassifierIntervalMS int `koanf:"classifier_interval_ms"`

	// ClassifierTimeoutMS bounds each form check. Zero waits for the model.
	ClassifierTimeoutMS int `koanf:"classifier_timeout_ms"`

	// ClassifierLatencyMS delays each form check to mimic a remote model.
	ClassifierLatencyMS int `koanf:"classifier_latency_ms"`

	// MaxSessions bounds the number of live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// StreamAllowedOrigins is a comma separated list of browser origins
	// allowed to open frame streams. "*" allows any; empty allows only the
	// service's own host.
	StreamAllowedOrigins string `koanf:"stream_allowed_origins"`

	// StreamReadTimeoutS closes frame streams idle for this long.
	StreamReadTimeoutS int `koanf:"stream_read_timeout_s"`

	// SessionIdleTimeoutS stops sessions without frames for this long.
	// Zero disables reaping.
	SessionIdleTimeoutS int `koanf:"session_idle_timeout_s"`
}

var (
	logLevels  = []string{"debug", "info", "warn", "warning", "error"}
	logFormats = []string{"text", "json"}
)

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		SmoothingWindow:      7,
		VisibilityThreshold:  0.6,
		CalibrationHoldMS:    3000,
		SafetyMargin:         10,
		MinRepDurationMS:     500,
		StateHoldMS:          100,
		ComplimentMS:         1500,
		LostColorLockMS:      2000,
		CountdownSeconds:     3,
		ClassifierIntervalMS: 200,
		ClassifierTimeoutMS:  25,
		MaxSessions:          64,
		StreamReadTimeoutS:   60,
		SessionIdleTimeoutS:  300,
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !slices.Contains(logLevels, c.LogLevel):
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	case !slices.Contains(logFormats, c.LogFormat):
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.SmoothingWindow < 1:
		return fmt.Errorf("%w: smoothing_window must be positive", ErrInvalidConfig)
	case c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1:
		return fmt.Errorf("%w: visibility_threshold must be within [0, 1]", ErrInvalidConfig)
	case c.CalibrationHoldMS <= 0:
		return fmt.Errorf("%w: calibration_hold_ms must be positive", ErrInvalidConfig)
	case c.MaxCalibrationMS < 0:
		return fmt.Errorf("%w: max_calibration_ms must not be negative", ErrInvalidConfig)
	case c.SafetyMargin < 0 || c.SafetyMargin > 90:
		return fmt.Errorf("%w: safety_margin must be within [0, 90]", ErrInvalidConfig)
	case c.MinRepDurationMS < 0 || c.StateHoldMS < 0 || c.ComplimentMS < 0 || c.LostColorLockMS < 0:
		return fmt.Errorf("%w: rep timings must not be negative", ErrInvalidConfig)
	case c.CountdownSeconds < 0:
		return fmt.Errorf("%w: countdown_seconds must not be negative", ErrInvalidConfig)
	case c.ClassifierIntervalMS <= 0:
		return fmt.Errorf("%w: classifier_interval_ms must be positive", ErrInvalidConfig)
	case c.ClassifierTimeoutMS < 0 || c.ClassifierLatencyMS < 0:
		return fmt.Errorf("%w: classifier timings must not be negative", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.StreamReadTimeoutS <= 0:
		return fmt.Errorf("%w: stream_read_timeout_s must be positive", ErrInvalidConfig)
	case c.SessionIdleTimeoutS < 0:
		return fmt.Errorf("%w: session_idle_timeout_s must not be negative", ErrInvalidConfig)
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// CalibrationHold returns CalibrationHoldMS as a duration.
func (c *Config) CalibrationHold() time.Duration { return ms(c.CalibrationHoldMS) }

// MaxCalibration returns MaxCalibrationMS as a duration.
func (c *Config) MaxCalibration() time.Duration { return ms(c.MaxCalibrationMS) }

// MinRepDuration returns MinRepDurationMS as a duration.
func (c *Config) MinRepDuration() time.Duration { return ms(c.MinRepDurationMS) }

// StateHold returns StateHoldMS as a duration.
func (c *Config) StateHold() time.Duration { return ms(c.StateHoldMS) }

// Countdown returns CountdownSeconds as a duration.
func (c *Config) Countdown() time.Duration { return time.Duration(c.CountdownSeconds) * time.Second }

// ClassifierInterval returns ClassifierIntervalMS as a duration.
func (c *Config) ClassifierInterval() time.Duration { return ms(c.ClassifierIntervalMS) }

// ClassifierTimeout returns ClassifierTimeoutMS as a duration.
func (c *Config) ClassifierTimeout() time.Duration { return ms(c.ClassifierTimeoutMS) }

// ClassifierLatency returns ClassifierLatencyMS as a duration.
func (c *Config) ClassifierLatency() time.Duration { return ms(c.ClassifierLatencyMS) }

// StreamReadTimeout returns StreamReadTimeoutS as a duration.
func (c *Config) StreamReadTimeout() time.Duration {
	return time.Duration(c.StreamReadTimeoutS) * time.Second
}

// AllowedOrigins splits StreamAllowedOrigins into trimmed, non-empty
// entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.StreamAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SessionIdleTimeout returns SessionIdleTimeoutS as a duration.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutS) * time.Second
}

// Session maps the tuning fields onto the per-session configuration.
func (c *Config) Session() service.SessionConfig {
	return service.SessionConfig{
		SmoothingWindow:     c.SmoothingWindow,
		VisibilityThreshold: c.VisibilityThreshold,
		CalibrationHold:     c.CalibrationHold(),
		SafetyMargin:        c.SafetyMargin,
		MinRepDuration:      c.MinRepDuration(),
		StateHold:           c.StateHold(),
		Countdown:           c.Countdown(),
		ClassifierInterval:  c.ClassifierInterval(),
		ClassifierTimeout:   c.ClassifierTimeout(),
		ClassifierLatency:   c.ClassifierLatency(),
		ComplimentDuration:  ms(c.ComplimentMS),
		LostColorLock:       ms(c.LostColorLockMS),
		MaxCalibration:      c.MaxCalibration(),
	}
}
