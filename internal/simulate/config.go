package simulate

import (
	"fmt"
	"time"
)

// Config holds configuration for a simulated workout.
type Config struct {
	BaseURL         string        // Base URL of the service (drive only)
	Exercise        string        // Exercise name as registered
	Reps            int           // Reps to perform
	Contracted      float64       // Contracted angle; zero uses the profile default
	Extended        float64       // Extended angle; zero uses the profile default
	Period          time.Duration // Duration of one rep
	FPS             int           // Frame rate of the generated stream
	Jitter          float64       // Uniform angle noise in degrees
	Seed            int64         // Noise seed
	SkipCalibration bool          // Start from the profile defaults
	Start           time.Time     // Timestamp of the first frame; zero uses now
	Sessions        int           // Concurrent sessions (drive only)
	Timeout         time.Duration // HTTP request timeout (drive only)
	OutputFile      string        // JSONL file the generated stream is saved to
	Verbose         bool          // Log every snapshot
}

// Default simulation settings.
const (
	DefaultReps     = 5
	DefaultPeriod   = 2 * time.Second
	DefaultSessions = 1
	DefaultTimeout  = 10 * time.Second
	DefaultBaseURL  = "http://localhost:9080"
)

// DefaultConfig returns a bicep curl workout of DefaultReps reps.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		Exercise: "Bicep Curl",
		Reps:     DefaultReps,
		Period:   DefaultPeriod,
		Sessions: DefaultSessions,
		Timeout:  DefaultTimeout,
	}
}

// Validate rejects settings no workout can be generated from.
func (c *Config) Validate() error {
	switch {
	case c.Exercise == "":
		return fmt.Errorf("%w: exercise must not be empty", ErrInvalidConfig)
	case c.Reps < 0:
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidConfig)
	case c.Period <= 0:
		return fmt.Errorf("%w: period must be positive", ErrInvalidConfig)
	case c.FPS < 0:
		return fmt.Errorf("%w: fps must not be negative", ErrInvalidConfig)
	case c.Jitter < 0:
		return fmt.Errorf("%w: jitter must not be negative", ErrInvalidConfig)
	case c.Contracted < 0 || c.Extended > 180:
		return fmt.Errorf("%w: angles must be within [0, 180]", ErrInvalidConfig)
	case c.Contracted != 0 && c.Extended != 0 && c.Contracted >= c.Extended:
		return fmt.Errorf("%w: contracted %.0f must be below extended %.0f", ErrInvalidConfig, c.Contracted, c.Extended)
	case c.Sessions < 0:
		return fmt.Errorf("%w: sessions must not be negative", ErrInvalidConfig)
	}
	return nil
}
