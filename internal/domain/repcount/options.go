package repcount

import (
	"time"

	"github.com/okian/repcoach/pkg/logger"
)

// Timing defaults.
const (
	DefaultMinRepDuration     = 500 * time.Millisecond
	DefaultStateHoldTime      = 100 * time.Millisecond
	DefaultComplimentDuration = 1500 * time.Millisecond
	DefaultLostColorLock      = 2 * time.Second

	defaultSeed = 42
)

// Option applies a configuration option to the Counter.
type Option func(*Counter)

// WithMinRepDuration sets the shortest DOWN to UP exit time that counts.
func WithMinRepDuration(d time.Duration) Option {
	return func(c *Counter) {
		if d >= 0 {
			c.minRep = d
		}
	}
}

// WithStateHoldTime sets how long a candidate stage must persist.
func WithStateHoldTime(d time.Duration) Option {
	return func(c *Counter) {
		if d >= 0 {
			c.stateHold = d
		}
	}
}

// WithComplimentDuration sets how long a post-rep compliment stays.
func WithComplimentDuration(d time.Duration) Option {
	return func(c *Counter) {
		if d >= 0 {
			c.complimentFor = d
		}
	}
}

// WithLostColorLock sets how long the red color stays after tracking loss.
func WithLostColorLock(d time.Duration) Option {
	return func(c *Counter) {
		if d >= 0 {
			c.lostLock = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Counter) {
		if l != nil {
			c.logger = l
		}
	}
}
