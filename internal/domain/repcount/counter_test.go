package repcount_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/repcount"
	. "github.com/smartystreets/goconvey/convey"
)

const step = 33 * time.Millisecond

var calibrated = calibration.Thresholds{Contracted: 40, Extended: 170, SafeMin: 30, SafeMax: 175}

var compliments = []string{"Great Rep!", "Excellent!", "Perfect Form!", "Good Job!"}

// feeder drives one limb of a counter at a fixed frame interval.
type feeder struct {
	c    *repcount.Counter
	limb model.Limb
	at   time.Time
}

func newFeeder(c *repcount.Counter, l model.Limb) *feeder {
	return &feeder{c: c, limb: l, at: time.Unix(0, 0)}
}

func (f *feeder) hold(deg, frames int) *feeder {
	for i := 0; i < frames; i++ {
		f.c.Process(f.limb, deg, f.at)
		f.at = f.at.Add(step)
	}
	return f
}

func (f *feeder) ramp(from, to, frames int) *feeder {
	for i := 0; i < frames; i++ {
		deg := float64(from) + float64(to-from)*float64(i)/float64(frames-1)
		f.c.Process(f.limb, int(math.Round(deg)), f.at)
		f.at = f.at.Add(step)
	}
	return f
}

func (f *feeder) lost(frames int) *feeder {
	for i := 0; i < frames; i++ {
		f.c.MarkLost(f.limb, f.at)
		f.at = f.at.Add(step)
	}
	return f
}

func (f *feeder) cycle() *feeder {
	return f.hold(170, 10).ramp(170, 40, 30).ramp(40, 170, 30).hold(170, 10)
}

func TestRepCounting(t *testing.T) {
	Convey("Given a counter calibrated to 40/170", t, func() {
		c := repcount.NewCounter(calibrated)

		Convey("Limbs start lost with no reps", func() {
			m := c.Metrics(model.Right)
			So(m.Stage, ShouldEqual, repcount.StageLost)
			So(m.RepCount, ShouldEqual, 0)
		})

		Convey("When one full DOWN to UP to DOWN cycle is performed", func() {
			newFeeder(c, model.Right).cycle()
			m := c.Metrics(model.Right)

			Convey("Then exactly one rep is counted at full accuracy", func() {
				So(m.RepCount, ShouldEqual, 1)
				So(m.Accuracy, ShouldEqual, 100)
				So(m.Stage, ShouldEqual, repcount.StageDown)
				So(m.RepTime, ShouldBeGreaterThanOrEqualTo, repcount.DefaultMinRepDuration)
				So(m.MinRepTime, ShouldEqual, m.RepTime)
			})

			Convey("Then a compliment is shown in green", func() {
				So(m.Feedback, ShouldBeIn, compliments)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorGreen)
			})
		})

		Convey("When three cycles are performed", func() {
			f := newFeeder(c, model.Left)
			for i := 0; i < 3; i++ {
				f.cycle()
			}

			Convey("Then three reps are counted", func() {
				So(c.Metrics(model.Left).RepCount, ShouldEqual, 3)
			})
		})

		Convey("When a cycle is faster than the minimum rep duration", func() {
			newFeeder(c, model.Right).hold(160, 6).hold(100, 5).hold(40, 5).hold(100, 5).hold(170, 10)

			Convey("Then it is not counted", func() {
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 0)
			})
		})

		Convey("When the same cycle is slowed down", func() {
			newFeeder(c, model.Right).hold(160, 6).hold(100, 8).hold(40, 8).hold(100, 8).hold(170, 10)

			Convey("Then it is counted", func() {
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 1)
			})
		})

		Convey("When the limb goes UP without having been DOWN", func() {
			f := newFeeder(c, model.Right).hold(40, 10).ramp(40, 170, 30).hold(170, 10)

			Convey("Then nothing is counted until a full cycle follows", func() {
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 0)
				f.ramp(170, 40, 30).ramp(40, 170, 30).hold(170, 10)
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 1)
			})
		})

		Convey("When the angle flickers across the UP boundary", func() {
			f := newFeeder(c, model.Right).hold(170, 10).ramp(170, 40, 30).hold(40, 10)
			for i := 0; i < 20; i++ {
				f.hold(58, 1).hold(62, 1)
			}
			f.ramp(40, 170, 30).hold(170, 10)

			Convey("Then the rep is counted once", func() {
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 1)
			})
		})

		Convey("When tracking is lost mid-rep", func() {
			f := newFeeder(c, model.Right).hold(170, 10).ramp(170, 40, 30).lost(15)
			m := c.Metrics(model.Right)
			So(m.Stage, ShouldEqual, repcount.StageLost)
			So(m.Feedback, ShouldEqual, repcount.FeedbackAdjust)
			So(m.FeedbackColor, ShouldEqual, repcount.ColorRed)

			f.hold(40, 10)

			Convey("Then the red color stays locked after recovery", func() {
				m := c.Metrics(model.Right)
				So(m.Stage, ShouldEqual, repcount.StageUp)
				So(m.Feedback, ShouldEqual, repcount.FeedbackSmooth)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorRed)
			})

			Convey("Then finishing the rep counts it once", func() {
				f.ramp(40, 170, 30).hold(170, 10)
				So(c.Metrics(model.Right).RepCount, ShouldEqual, 1)
			})
		})
	})
}

func TestLimbIsolation(t *testing.T) {
	Convey("Given two counters fed identical streams", t, func() {
		a := repcount.NewCounter(calibrated)
		b := repcount.NewCounter(calibrated)
		newFeeder(a, model.Right).cycle()
		newFeeder(b, model.Right).cycle()

		Convey("Then each counts its own rep", func() {
			So(a.Metrics(model.Right).RepCount, ShouldEqual, 1)
			So(b.Metrics(model.Right).RepCount, ShouldEqual, 1)
		})

		Convey("Then the untouched limb is unaffected", func() {
			So(a.Metrics(model.Left).RepCount, ShouldEqual, 0)
			So(a.Metrics(model.Left).Stage, ShouldEqual, repcount.StageLost)
		})

		Convey("When one limb is reset", func() {
			newFeeder(a, model.Left).cycle()
			a.ResetArm(model.Right)

			Convey("Then only its tracking state is cleared", func() {
				So(a.Metrics(model.Right).RepCount, ShouldEqual, 1)
				So(a.Metrics(model.Right).Stage, ShouldEqual, repcount.StageLost)
				So(a.Metrics(model.Left).Stage, ShouldEqual, repcount.StageDown)
			})

			Convey("Then a full reset clears counts", func() {
				a.Reset()
				So(a.Metrics(model.Left).RepCount, ShouldEqual, 0)
			})
		})
	})
}

func TestFeedback(t *testing.T) {
	Convey("Given a counter past its compliment window", t, func() {
		c := repcount.NewCounter(calibrated, repcount.WithComplimentDuration(0))

		Convey("When the joint is nearly closed", func() {
			newFeeder(c, model.Right).hold(5, 3)

			Convey("Then the user is told to relax", func() {
				m := c.Metrics(model.Right)
				So(m.Feedback, ShouldEqual, repcount.FeedbackRelaxGrip)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorRed)
			})
		})

		Convey("When the joint is fully open inside the safe range", func() {
			newFeeder(c, model.Right).hold(174, 3)

			Convey("Then full extension is acknowledged", func() {
				m := c.Metrics(model.Right)
				So(m.Feedback, ShouldEqual, repcount.FeedbackFullExtension)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorYellow)
			})
		})

		Convey("When the joint is mid range", func() {
			newFeeder(c, model.Right).hold(100, 3)

			Convey("Then smooth movement is encouraged", func() {
				m := c.Metrics(model.Right)
				So(m.Feedback, ShouldEqual, repcount.FeedbackSmooth)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorGreen)
			})
		})

		Convey("When feedback is overridden", func() {
			newFeeder(c, model.Right).hold(100, 3)
			c.OverrideFeedback(model.Right, "Bad Form Detected", repcount.ColorRed)

			Convey("Then the override is visible", func() {
				So(c.Metrics(model.Right).Feedback, ShouldEqual, "Bad Form Detected")
			})
		})
	})
}

func TestScoring(t *testing.T) {
	Convey("Given the scoring helpers", t, func() {
		Convey("A full-range rep scores 100", func() {
			So(repcount.Accuracy(130, 130), ShouldEqual, 100)
		})

		Convey("A half-range rep scores about 50", func() {
			So(repcount.Accuracy(65, 130), ShouldEqual, 50)
			So(repcount.Accuracy(64, 130), ShouldEqual, 49)
		})

		Convey("Scores are capped and guarded", func() {
			So(repcount.Accuracy(200, 130), ShouldEqual, 100)
			So(repcount.Accuracy(10, 0), ShouldEqual, 100)
		})

		Convey("The dead zone scales with range and is clamped", func() {
			So(repcount.DeadZone(calibrated), ShouldAlmostEqual, 15, 1e-9)
			So(repcount.DeadZone(calibration.Thresholds{Contracted: 80, Extended: 100}), ShouldAlmostEqual, 5, 1e-9)
			So(repcount.DeadZone(calibration.Thresholds{Contracted: 60, Extended: 120}), ShouldAlmostEqual, 9, 1e-9)
		})
	})
}

func TestLostColorLock(t *testing.T) {
	Convey("Given a counter without a lost color lock", t, func() {
		c := repcount.NewCounter(calibrated, repcount.WithLostColorLock(0))

		Convey("When tracking recovers after a loss", func() {
			newFeeder(c, model.Left).hold(170, 10).ramp(170, 40, 30).lost(15).hold(40, 10)

			Convey("Then the color follows the angle again at once", func() {
				m := c.Metrics(model.Left)
				So(m.Stage, ShouldEqual, repcount.StageUp)
				So(m.FeedbackColor, ShouldEqual, repcount.ColorGreen)
			})
		})
	})
}
