package simulate

import (
	"time"

	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/synth"
)

// countdownSlack keeps the extended hold running past the countdown so the
// first tracked frames see the user at rest.
const countdownSlack = 100 * time.Millisecond

// Workout is a frame stream and the reps each limb should end up with.
type Workout struct {
	Exercise string
	// Expected is negative when the stream was not generated here.
	Expected int
	Samples  []synth.Sample
}

// Generate renders cfg into a frame stream for p, timed for a session
// running with sc.
func Generate(cfg *Config, p profile.Profile, sc service.SessionConfig) Workout {
	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	opts := []synth.Option{synth.WithStart(start)}
	if cfg.FPS > 0 {
		opts = append(opts, synth.WithFPS(cfg.FPS))
	}
	if cfg.Jitter > 0 {
		opts = append(opts, synth.WithJitter(cfg.Jitter, cfg.Seed))
	}
	gen := synth.NewGenerator(p, opts...)

	return Workout{
		Exercise: p.Name,
		Expected: cfg.Reps,
		Samples:  gen.Stream(Script(cfg, p, sc)...),
	}
}

// Script lays out the workout: calibration holds unless skipped, a rest
// through the countdown, then the reps.
func Script(cfg *Config, p profile.Profile, sc service.SessionConfig) []synth.Segment {
	contracted, extended := Angles(cfg, p)

	var segs []synth.Segment
	if !cfg.SkipCalibration {
		hold := sc.CalibrationHold
		if hold <= 0 {
			hold = calibration.DefaultHoldTime
		}
		segs = append(segs,
			synth.Hold(extended, hold*3/2),
			synth.Hold(contracted, hold*9/5),
		)
	}
	segs = append(segs, synth.Hold(extended, sc.Countdown+countdownSlack))
	if cfg.Reps > 0 {
		segs = append(segs, synth.Reps(cfg.Reps, contracted, extended, cfg.Period)...)
	}
	return segs
}

// Angles returns the contracted and extended angles of the workout,
// falling back to the profile defaults.
func Angles(cfg *Config, p profile.Profile) (float64, float64) {
	contracted, extended := cfg.Contracted, cfg.Extended
	if contracted == 0 {
		contracted = float64(p.DefaultContracted)
	}
	if extended == 0 {
		extended = float64(p.DefaultExtended)
	}
	return contracted, extended
}
