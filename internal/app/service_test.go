package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/repcoach/internal/app"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/domain/types"
	"github.com/okian/repcoach/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When it is used before starting", func() {
			_, err := svc.CreateSession(context.Background(), profile.BicepCurl, false)

			Convey("Then it refuses", func() {
				So(errors.Is(err, service.ErrServiceNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it serves the preset exercises", func() {
				So(svc.Exercises(), ShouldContain, profile.BicepCurl)
				So(svc.Exercises(), ShouldHaveLength, len(profile.Presets()))
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["activeSessions"], ShouldEqual, 0)
			})

			Convey("Then stopping it marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with a fake clock", t, func() {
		clock := &fakeClock{now: epoch}
		cfg := testConfig()
		svc := service.New(
			service.WithClock(clock.Now),
			service.WithSessionConfig(cfg),
			service.WithMaxSessions(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a session is created for an unknown exercise", func() {
			_, err := svc.CreateSession(ctx, "Deadlift", false)

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrUnknownExercise), ShouldBeTrue)
				So(errors.Is(err, profile.ErrUnknownExercise), ShouldBeTrue)
			})
		})

		Convey("When more sessions than allowed are created", func() {
			_, err1 := svc.CreateSession(ctx, profile.BicepCurl, false)
			_, err2 := svc.CreateSession(ctx, "squat", true)
			_, err3 := svc.CreateSession(ctx, profile.BicepCurl, false)

			Convey("Then the extra one is refused", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(errors.Is(err3, service.ErrTooManySessions), ShouldBeTrue)
				So(svc.GetStats()["activeSessions"], ShouldEqual, 2)
				byPhase := svc.GetStats()["sessionsByPhase"].(map[string]int)
				So(byPhase["CALIBRATION"], ShouldEqual, 1)
				So(byPhase["COUNTDOWN"], ShouldEqual, 1)
			})
		})

		Convey("When a session is driven through a workout", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, true)
			So(err, ShouldBeNil)
			So(sess.Exercise(), ShouldEqual, profile.BicepCurl)

			gen := synth.NewGenerator(bicep(), synth.WithStart(epoch))
			samples := gen.Stream(synth.Hold(160, 1100*time.Millisecond))
			samples = append(samples, gen.Stream(synth.Reps(2, 40, 160, 2*time.Second)...)...)
			for _, s := range samples {
				_, err := svc.ProcessFrame(ctx, sess.ID(), s.Frame, s.At)
				So(err, ShouldBeNil)
			}
			clock.Advance(10 * time.Second)

			Convey("Then its snapshot and report reflect the reps", func() {
				snap, err := svc.Snapshot(ctx, sess.ID())
				So(err, ShouldBeNil)
				So(snap.Phase, ShouldEqual, string(service.PhaseActive))
				So(snap.Limbs[model.Left].RepCount, ShouldEqual, 2)

				report, err := svc.StopSession(ctx, sess.ID())
				So(err, ShouldBeNil)
				So(report.Summary[model.Right].TotalReps, ShouldEqual, 2)
				So(sess.Phase(), ShouldEqual, service.PhaseStopped)
			})

			Convey("Then a stopped session is gone", func() {
				_, err := svc.StopSession(ctx, sess.ID())
				So(err, ShouldBeNil)
				_, err = svc.StopSession(ctx, sess.ID())
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				_, err = svc.ProcessFrame(ctx, sess.ID(), model.Frame{}, time.Time{})
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When a frame comes without a timestamp", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, false)
			So(err, ShouldBeNil)
			clock.Advance(time.Second)
			_, err = svc.ProcessFrame(ctx, sess.ID(), model.Frame{}, time.Time{})

			Convey("Then the service clock is used", func() {
				So(err, ShouldBeNil)
				So(sess.LastSeen(), ShouldEqual, epoch.Add(time.Second))
			})
		})
	})
}

func TestService_IdleReaper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with an idle timeout", t, func() {
		clock := &fakeClock{now: epoch}
		svc := service.New(
			service.WithClock(clock.Now),
			service.WithIdleTimeout(time.Minute),
			service.WithReapInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		idle, err := svc.CreateSession(ctx, profile.BicepCurl, false)
		So(err, ShouldBeNil)
		busy, err := svc.CreateSession(ctx, profile.BicepCurl, false)
		So(err, ShouldBeNil)

		Convey("When one session keeps receiving frames", func() {
			clock.Advance(45 * time.Second)
			_, err := svc.ProcessFrame(ctx, busy.ID(), model.Frame{}, time.Time{})
			So(err, ShouldBeNil)
			clock.Advance(30 * time.Second)

			Convey("Then only the idle one is reaped", func() {
				So(svc.ReapIdle(ctx), ShouldEqual, 1)
				So(idle.Phase(), ShouldEqual, service.PhaseStopped)
				_, err := svc.Snapshot(ctx, idle.ID())
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				_, err = svc.Snapshot(ctx, busy.ID())
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestService_ClientClockSkew(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service whose clock disagrees with the client's", t, func() {
		clock := &fakeClock{now: epoch}
		svc := service.New(
			service.WithClock(clock.Now),
			service.WithSessionConfig(testConfig()),
			service.WithIdleTimeout(time.Minute),
			service.WithReapInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ahead := synth.NewGenerator(bicep(), synth.WithStart(epoch.Add(10*time.Second)))

		Convey("When calibration frames are stamped ahead of the service clock", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, false)
			So(err, ShouldBeNil)
			samples := ahead.Stream(synth.Hold(170, 500*time.Millisecond))
			first, err := svc.ProcessFrame(ctx, sess.ID(), samples[0].Frame, samples[0].At)
			So(err, ShouldBeNil)

			Convey("Then the extended hold starts at the first frame", func() {
				So(first.Calibration.Phase, ShouldEqual, "EXTEND")
				So(first.Calibration.Progress, ShouldEqual, 0)
				var last types.Snapshot
				for _, s := range samples[1:] {
					last, err = svc.ProcessFrame(ctx, sess.ID(), s.Frame, s.At)
					So(err, ShouldBeNil)
				}
				So(last.Calibration.Phase, ShouldEqual, "EXTEND")
				So(last.Calibration.Progress, ShouldBeBetweenOrEqual, 40, 50)
			})
		})

		Convey("When countdown frames are stamped ahead of the service clock", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, true)
			So(err, ShouldBeNil)
			var last types.Snapshot
			for _, s := range ahead.Stream(synth.Hold(160, 500*time.Millisecond)) {
				last, err = svc.ProcessFrame(ctx, sess.ID(), s.Frame, s.At)
				So(err, ShouldBeNil)
			}

			Convey("Then the countdown is not skipped", func() {
				So(last.Phase, ShouldEqual, string(service.PhaseCountdown))
			})
		})

		Convey("When a workout stamped ahead is stopped", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, true)
			So(err, ShouldBeNil)
			samples := ahead.Stream(synth.Hold(160, 1100*time.Millisecond))
			samples = append(samples, ahead.Stream(synth.Reps(1, 40, 160, 2*time.Second)...)...)
			for _, s := range samples {
				_, err := svc.ProcessFrame(ctx, sess.ID(), s.Frame, s.At)
				So(err, ShouldBeNil)
			}
			clock.Advance(time.Second)
			report, err := svc.StopSession(ctx, sess.ID())

			Convey("Then the duration is measured on the frames' clock", func() {
				So(err, ShouldBeNil)
				So(report.Summary[model.Right].TotalReps, ShouldEqual, 1)
				So(report.Duration, ShouldBeBetween, 3.5, 4.5)
			})
		})

		Convey("When frames are stamped behind the service clock", func() {
			sess, err := svc.CreateSession(ctx, profile.BicepCurl, false)
			So(err, ShouldBeNil)
			_, err = svc.ProcessFrame(ctx, sess.ID(), model.Frame{}, epoch.Add(-2*time.Minute))
			So(err, ShouldBeNil)

			Convey("Then the reaper judges idleness on its own clock", func() {
				So(svc.ReapIdle(ctx), ShouldEqual, 0)
				_, err := svc.Snapshot(ctx, sess.ID())
				So(err, ShouldBeNil)

				clock.Advance(2 * time.Minute)
				So(svc.ReapIdle(ctx), ShouldEqual, 1)
			})
		})
	})
}
