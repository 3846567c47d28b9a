package simulate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/repcoach/internal/adapters/http/api"
	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/simulate"
	"github.com/okian/repcoach/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var epoch = time.Unix(1_700_000_000, 0).UTC()

func sessionConfig() service.SessionConfig {
	sc := service.DefaultSessionConfig()
	sc.Countdown = time.Second
	sc.CalibrationHold = time.Second
	return sc
}

func lookup(name string) profile.Profile {
	r, err := profile.DefaultRegistry()
	So(err, ShouldBeNil)
	p, err := r.Lookup(name)
	So(err, ShouldBeNil)
	return p
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given the default simulation config", t, func() {
		cfg := simulate.DefaultConfig()

		Convey("Then it is valid", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("When settings are out of range", func() {
			bad := []func(*simulate.Config){
				func(c *simulate.Config) { c.Exercise = "" },
				func(c *simulate.Config) { c.Reps = -1 },
				func(c *simulate.Config) { c.Period = 0 },
				func(c *simulate.Config) { c.Jitter = -1 },
				func(c *simulate.Config) { c.Extended = 200 },
				func(c *simulate.Config) { c.Contracted, c.Extended = 120, 90 },
			}

			Convey("Then each is rejected", func() {
				for _, mutate := range bad {
					c := *cfg
					mutate(&c)
					So(errors.Is(c.Validate(), simulate.ErrInvalidConfig), ShouldBeTrue)
				}
			})
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a squat workout without explicit angles", t, func() {
		cfg := simulate.DefaultConfig()
		cfg.Exercise = profile.Squat
		cfg.Reps = 2
		cfg.Start = epoch
		p := lookup(profile.Squat)

		Convey("When the angles are resolved", func() {
			contracted, extended := simulate.Angles(cfg, p)

			Convey("Then the profile defaults are used", func() {
				So(contracted, ShouldEqual, float64(p.DefaultContracted))
				So(extended, ShouldEqual, float64(p.DefaultExtended))
			})
		})

		Convey("When calibration is skipped", func() {
			cfg.SkipCalibration = true
			segs := simulate.Script(cfg, p, sessionConfig())

			Convey("Then the script is a rest followed by the reps", func() {
				So(segs[0].Duration, ShouldEqual, 1100*time.Millisecond)
				So(segs, ShouldHaveLength, 1+2+2*2)
			})
		})

		Convey("When the stream is generated", func() {
			w := simulate.Generate(cfg, p, sessionConfig())

			Convey("Then it starts at the configured time and expects the reps", func() {
				So(w.Exercise, ShouldEqual, profile.Squat)
				So(w.Expected, ShouldEqual, 2)
				So(w.Samples[0].At, ShouldEqual, epoch)
				So(w.Samples[len(w.Samples)-1].At, ShouldHappenAfter, epoch.Add(5*time.Second))
			})
		})
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bicep curl workout", t, func() {
		cfg := simulate.DefaultConfig()
		cfg.Reps = 3
		cfg.Start = epoch
		p := lookup(profile.BicepCurl)
		sc := sessionConfig()

		Convey("When it runs with calibration", func() {
			res, err := simulate.Run(ctx, cfg, simulate.Generate(cfg, p, sc), p, sc)
			So(err, ShouldBeNil)

			Convey("Then every rep is counted on both limbs", func() {
				So(res.Report.Calibrated, ShouldBeTrue)
				So(res.Final.Phase, ShouldEqual, string(service.PhaseActive))
				So(res.Rejected, ShouldEqual, 0)
				So(simulate.Verify(res), ShouldBeNil)
				So(res.Report.Duration, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When it runs without calibration", func() {
			cfg.SkipCalibration = true
			res, err := simulate.Run(ctx, cfg, simulate.Generate(cfg, p, sc), p, sc)
			So(err, ShouldBeNil)

			Convey("Then the profile defaults count the reps", func() {
				So(res.Report.Calibrated, ShouldBeFalse)
				So(simulate.Verify(res), ShouldBeNil)
			})
		})

		Convey("When the report disagrees with the workout", func() {
			cfg.SkipCalibration = true
			res, err := simulate.Run(ctx, cfg, simulate.Generate(cfg, p, sc), p, sc)
			So(err, ShouldBeNil)
			res.Expected = 4

			Convey("Then verification fails for both limbs", func() {
				err := simulate.Verify(res)
				So(errors.Is(err, simulate.ErrVerification), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, string(model.Left))
				So(err.Error(), ShouldContainSubstring, string(model.Right))
			})
		})

		Convey("When the stream is empty", func() {
			_, err := simulate.Run(ctx, cfg, simulate.Workout{}, p, sc)

			Convey("Then nothing runs", func() {
				So(errors.Is(err, simulate.ErrEmptyStream), ShouldBeTrue)
			})
		})
	})
}

func TestSamplesFile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a saved workout", t, func() {
		cfg := simulate.DefaultConfig()
		cfg.Reps = 2
		cfg.Start = epoch
		cfg.SkipCalibration = true
		p := lookup(profile.BicepCurl)
		sc := sessionConfig()
		w := simulate.Generate(cfg, p, sc)

		path := filepath.Join(t.TempDir(), "out", "curl.jsonl")
		So(simulate.SaveSamples(path, w.Samples), ShouldBeNil)

		Convey("When it is loaded back", func() {
			loaded, err := simulate.LoadSamples(path)
			So(err, ShouldBeNil)

			Convey("Then the frames are intact and the expectation unknown", func() {
				So(loaded.Samples, ShouldHaveLength, len(w.Samples))
				So(loaded.Samples[10].At.Equal(w.Samples[10].At), ShouldBeTrue)
				So(loaded.Samples[10].Frame, ShouldResemble, w.Samples[10].Frame)
				So(loaded.Expected, ShouldBeLessThan, 0)
			})

			Convey("Then replaying it counts the same reps", func() {
				res, err := simulate.Run(ctx, cfg, loaded, p, sc)
				So(err, ShouldBeNil)
				So(simulate.Verify(res), ShouldBeNil)
				So(res.Report.Summary[model.Right].TotalReps, ShouldEqual, 2)
			})
		})

		Convey("When a line is corrupt", func() {
			bad := filepath.Join(t.TempDir(), "bad.jsonl")
			So(os.WriteFile(bad, []byte("{\"at\":\n"), 0o600), ShouldBeNil)
			_, err := simulate.LoadSamples(bad)

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When nothing is saved", func() {
			Convey("Then saving and loading report an empty stream", func() {
				So(errors.Is(simulate.SaveSamples(path, nil), simulate.ErrEmptyStream), ShouldBeTrue)
				empty := filepath.Join(t.TempDir(), "empty.jsonl")
				So(os.WriteFile(empty, nil, 0o600), ShouldBeNil)
				_, err := simulate.LoadSamples(empty)
				So(errors.Is(err, simulate.ErrEmptyStream), ShouldBeTrue)
			})
		})
	})
}

func TestDrive(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		sc := sessionConfig()
		svc := service.New(service.WithSessionConfig(sc), service.WithMaxSessions(4))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := simulate.DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.Reps = 2
		cfg.SkipCalibration = true
		cfg.Sessions = 3
		w := simulate.Generate(cfg, lookup(cfg.Exercise), sc)

		Convey("When the workout is driven on concurrent sessions", func() {
			results, err := simulate.Drive(ctx, cfg, w)
			So(err, ShouldBeNil)

			Convey("Then every session counts the reps and is removed", func() {
				So(results, ShouldHaveLength, 3)
				for _, r := range results {
					So(simulate.Verify(r), ShouldBeNil)
					So(r.Report.Duration, ShouldBeGreaterThan, 0)
				}
				So(svc.GetStats()["activeSessions"], ShouldEqual, 0)
			})
		})

		Convey("When the service is already full", func() {
			for i := 0; i < 4; i++ {
				_, err := svc.CreateSession(ctx, profile.BicepCurl, true)
				So(err, ShouldBeNil)
			}
			cfg.Sessions = 1
			results, err := simulate.Drive(ctx, cfg, w)

			Convey("Then the refused session is reported", func() {
				So(errors.Is(err, simulate.ErrRemote), ShouldBeTrue)
				So(errors.Is(err, simulate.ErrRejected), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "429")
				So(results, ShouldBeEmpty)
			})
		})

		Convey("When the exercise is unknown", func() {
			client := simulate.NewClient(srv.URL, time.Second)
			_, err := client.CreateSession(ctx, "Deadlift", false)

			Convey("Then the service refusal is returned", func() {
				So(errors.Is(err, simulate.ErrRejected), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "unknown_exercise")
			})
		})

		Convey("When the service is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := simulate.Drive(ctx, cfg, w)

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
