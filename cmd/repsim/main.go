// Command repsim generates, replays and drives exercise sessions so the
// rep-counting engine can be exercised without a camera.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/config"
	"github.com/okian/repcoach/internal/domain/classifier"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/simulate"
	"github.com/okian/repcoach/pkg/logger"
)

var (
	logLevel  = "warn"
	logFormat = "text"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, simulate.ErrVerification) {
			fmt.Fprintln(os.Stderr, "\nError: the counted reps disagree with the workout")
		}
		os.Exit(1)
	}
}

// NewCommand builds the repsim command tree.
func NewCommand() *cobra.Command {
	cfg := simulate.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "repsim",
		Short:         "Simulate and replay exercise sessions",
		Long:          "repsim renders synthetic pose streams for an exercise, replays recorded streams and drives a running service with them.",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.InitWithOptions(logger.Options{Format: logFormat, Level: logLevel, Output: os.Stderr})
		},
	}

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", logLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", logFormat, "log format (text, json)")
	cmd.PersistentFlags().StringVarP(&cfg.Exercise, "exercise", "e", cfg.Exercise, "exercise name")
	cmd.PersistentFlags().BoolVar(&cfg.SkipCalibration, "skip-calibration", false, "start from the profile default thresholds")
	cmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every snapshot")

	cmd.AddCommand(
		newSimulateCommand(cfg),
		newReplayCommand(cfg),
		newDriveCommand(cfg),
	)
	return cmd
}

func addWorkoutFlags(cmd *cobra.Command, cfg *simulate.Config) {
	cmd.Flags().IntVarP(&cfg.Reps, "reps", "n", cfg.Reps, "reps to perform")
	cmd.Flags().Float64Var(&cfg.Contracted, "contracted", 0, "contracted angle in degrees (default: profile default)")
	cmd.Flags().Float64Var(&cfg.Extended, "extended", 0, "extended angle in degrees (default: profile default)")
	cmd.Flags().DurationVar(&cfg.Period, "period", cfg.Period, "duration of one rep")
	cmd.Flags().IntVar(&cfg.FPS, "fps", 0, "frame rate (default 30)")
	cmd.Flags().Float64Var(&cfg.Jitter, "jitter", 0, "uniform angle noise in degrees")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 1, "noise seed")
	cmd.Flags().StringVarP(&cfg.OutputFile, "output", "o", "", "save the generated stream as JSONL")
}

func newSimulateCommand(cfg *simulate.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a generated workout through an in-process session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := simulate.Generate(cfg, env.profile, env.session)
			if err := save(cfg, w); err != nil {
				return err
			}
			res, err := simulate.Run(cmd.Context(), cfg, w, env.profile, env.session, env.options...)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return simulate.Verify(res)
		},
	}
	addWorkoutFlags(cmd, cfg)
	return cmd
}

func newReplayCommand(cfg *simulate.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "replay FILE",
		Short: "Run a recorded JSONL stream through an in-process session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w, err := simulate.LoadSamples(args[0])
			if err != nil {
				return err
			}
			res, err := simulate.Run(cmd.Context(), cfg, w, env.profile, env.session, env.options...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newDriveCommand(cfg *simulate.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Send a generated workout to a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnv(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := simulate.Generate(cfg, env.profile, env.session)
			if err := save(cfg, w); err != nil {
				return err
			}
			results, err := simulate.Drive(cmd.Context(), cfg, w)
			if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			errs := make([]error, 0, len(results))
			for _, r := range results {
				errs = append(errs, simulate.Verify(r))
			}
			return errors.Join(errs...)
		},
	}
	addWorkoutFlags(cmd, cfg)
	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	cmd.Flags().IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "concurrent sessions")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	return cmd
}

// env is what an in-process session needs besides the stream.
type env struct {
	profile profile.Profile
	session service.SessionConfig
	options []service.SessionOption
}

// loadEnv resolves the exercise and tuning from the same configuration the
// service reads, so simulations match production behavior.
func loadEnv(ctx context.Context, cfg *simulate.Config) (env, error) {
	if err := cfg.Validate(); err != nil {
		return env{}, err
	}
	pc, err := config.Load(ctx)
	if err != nil {
		return env{}, err
	}

	registry, err := profile.LoadRegistry(pc.ProfilesFile)
	if err != nil {
		return env{}, err
	}
	p, err := registry.Lookup(cfg.Exercise)
	if err != nil {
		return env{}, err
	}
	cfg.Exercise = p.Name

	return env{
		profile: p,
		session: pc.Session(),
		options: []service.SessionOption{
			service.WithSessionLogger(logger.Named("session")),
			service.WithSessionClassifier(classifier.FileLoader(pc.ClassifierModelFile)),
		},
	}, nil
}

func save(cfg *simulate.Config, w simulate.Workout) error {
	if cfg.OutputFile == "" {
		return nil
	}
	if err := simulate.SaveSamples(cfg.OutputFile, w.Samples); err != nil {
		return err
	}
	logger.Get().Info(context.Background(), "saved generated stream",
		logger.String("file", cfg.OutputFile),
		logger.Int("frames", len(w.Samples)))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
