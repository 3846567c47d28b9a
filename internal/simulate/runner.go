// Package simulate drives sessions with generated or recorded frame streams,
// either in process or against a running service.
package simulate

import (
	"context"
	"errors"
	"fmt"

	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/domain/types"
	"github.com/okian/repcoach/pkg/logger"
)

// Result summarizes one simulated session.
type Result struct {
	Session  string         `json:"session"`
	Exercise string         `json:"exercise"`
	Frames   int            `json:"frames"`
	Rejected int            `json:"rejected"`
	Expected int            `json:"expected_reps"`
	Final    types.Snapshot `json:"final"`
	Report   types.Report   `json:"report"`
}

// Run feeds w through an in-process session for p and returns its result.
func Run(ctx context.Context, cfg *Config, w Workout, p profile.Profile, sc service.SessionConfig, opts ...service.SessionOption) (Result, error) {
	if len(w.Samples) == 0 {
		return Result{}, ErrEmptyStream
	}
	log := logger.Get()

	sess := service.NewSession("simulated", p, sc, opts...)
	first, last := w.Samples[0], w.Samples[len(w.Samples)-1]
	if err := sess.Start(ctx, first.At, cfg.SkipCalibration); err != nil {
		return Result{}, fmt.Errorf("start session: %w", err)
	}

	log.Info(ctx, "running simulated session",
		logger.String("exercise", p.Name),
		logger.Int("frames", len(w.Samples)),
		logger.Bool("skipCalibration", cfg.SkipCalibration))

	res := Result{Session: sess.ID(), Exercise: p.Name, Expected: w.Expected}
	for _, s := range w.Samples {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		snap, err := sess.ProcessFrame(ctx, s.Frame, s.At)
		res.Frames++
		if err != nil {
			if errors.Is(err, model.ErrInvalidFrame) {
				res.Rejected++
				continue
			}
			return Result{}, fmt.Errorf("frame %d: %w", res.Frames, err)
		}
		res.Final = snap
		if cfg.Verbose {
			log.Debug(ctx, "snapshot",
				logger.String("phase", snap.Phase),
				logger.Int("rightReps", snap.Limbs[model.Right].RepCount),
				logger.Int("leftReps", snap.Limbs[model.Left].RepCount))
		}
	}

	res.Report = sess.Stop(ctx, last.At)
	log.Info(ctx, "simulated session finished",
		logger.Int("rejected", res.Rejected),
		logger.Float64("duration", res.Report.Duration))
	return res, nil
}

// Verify checks that every limb counted the expected reps. Results
// without an expectation always pass.
func Verify(r Result) error {
	if r.Expected < 0 {
		return nil
	}
	var errs []error
	for _, l := range model.Limbs {
		if got := r.Report.Summary[l].TotalReps; got != r.Expected {
			errs = append(errs, fmt.Errorf("%w: session %s: %s limb counted %d reps, expected %d",
				ErrVerification, r.Session, l, got, r.Expected))
		}
	}
	return errors.Join(errs...)
}
