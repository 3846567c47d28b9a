package repcount

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/pkg/logger"
)

// Dead-zone tuning around the calibrated extremes.
const (
	deadZoneRatio = 0.15
	deadZoneMin   = 5
	deadZoneMax   = 15
	// hysteresis is the extra travel needed to leave UP or DOWN.
	hysteresis = 5

	relaxBelow  = 10
	extendAbove = 170
)

// limb holds all mutable state of one limb.
type limb struct {
	metrics ArmMetrics

	pending      Stage
	pendingSince time.Time

	ready    bool
	repStart time.Time
	lastRep  time.Time
	minAngle int
	maxAngle int
	samples  int

	compliment string
	colorLock  time.Time
}

// Counter tracks both limbs independently against a shared threshold
// source.
type Counter struct {
	thresholds    calibration.ThresholdSource
	minRep        time.Duration
	stateHold     time.Duration
	complimentFor time.Duration
	lostLock      time.Duration
	rng           *rand.Rand
	logger        logger.Logger

	limbs map[model.Limb]*limb
}

// NewCounter creates a counter reading thresholds from src on every frame.
func NewCounter(src calibration.ThresholdSource, opts ...Option) *Counter {
	c := &Counter{
		thresholds:    src,
		minRep:        DefaultMinRepDuration,
		stateHold:     DefaultStateHoldTime,
		complimentFor: DefaultComplimentDuration,
		lostLock:      DefaultLostColorLock,
		rng:           rand.New(rand.NewSource(defaultSeed)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.Or(c.logger)
	c.Reset()
	return c
}

// Reset clears every limb, rep counts included.
func (c *Counter) Reset() {
	c.limbs = make(map[model.Limb]*limb, len(model.Limbs))
	for _, l := range model.Limbs {
		c.limbs[l] = &limb{metrics: newArmMetrics(), compliment: FeedbackMaintain}
	}
}

// ResetArm clears the tracking state of one limb. Its rep count and best
// rep time survive.
func (c *Counter) ResetArm(l model.Limb) {
	st := c.state(l)
	m := newArmMetrics()
	m.RepCount = st.metrics.RepCount
	m.MinRepTime = st.metrics.MinRepTime
	m.RepTime = st.metrics.RepTime
	m.Accuracy = st.metrics.Accuracy
	*st = limb{metrics: m, compliment: FeedbackMaintain}
}

// Metrics returns a copy of the limb's metrics.
func (c *Counter) Metrics(l model.Limb) ArmMetrics {
	return c.state(l).metrics
}

// Process feeds one smoothed angle for a tracked limb.
func (c *Counter) Process(l model.Limb, angle int, now time.Time) {
	st := c.state(l)
	st.metrics.Angle = angle
	if st.samples == 0 {
		st.minAngle, st.maxAngle = angle, angle
	}
	st.minAngle = min(st.minAngle, angle)
	st.maxAngle = max(st.maxAngle, angle)
	st.samples++

	th := c.thresholds.Thresholds()
	if st.samples >= 2 {
		prev := st.metrics.Stage
		target := c.target(prev, angle, th)
		switch {
		case target == prev:
			st.pending = ""
		case st.pending == target:
			if now.Sub(st.pendingSince) >= c.stateHold {
				c.commit(l, st, prev, target, th, now)
				st.pending = ""
			}
		default:
			st.pending = target
			st.pendingSince = now
		}
	}

	if st.metrics.Stage == StageUp && !st.repStart.IsZero() {
		st.metrics.CurrRepTime = now.Sub(st.repStart)
	}
	c.feedback(st, angle, th, now)
}

// MarkLost records that the limb could not be measured this frame.
func (c *Counter) MarkLost(l model.Limb, now time.Time) {
	st := c.state(l)
	st.metrics.Stage = StageLost
	st.pending = ""
	st.metrics.Feedback = FeedbackAdjust
	st.metrics.FeedbackColor = ColorRed
	st.colorLock = now.Add(c.lostLock)
}

// OverrideFeedback replaces the limb's feedback for the current frame.
func (c *Counter) OverrideFeedback(l model.Limb, text string, color Color) {
	st := c.state(l)
	st.metrics.Feedback = text
	st.metrics.FeedbackColor = color
}

// InCompliment reports whether a post-rep compliment is still showing.
func (c *Counter) InCompliment(l model.Limb, now time.Time) bool {
	st := c.state(l)
	return !st.lastRep.IsZero() && now.Sub(st.lastRep) < c.complimentFor
}

// DeadZone returns the buffer in degrees applied inside each calibrated
// extreme.
func DeadZone(th calibration.Thresholds) float64 {
	b := deadZoneRatio * float64(th.Range())
	return min(max(b, deadZoneMin), deadZoneMax)
}

func (c *Counter) target(current Stage, deg int, th calibration.Thresholds) Stage {
	b := DeadZone(th)
	upLimit := float64(th.Contracted) + b
	downLimit := float64(th.Extended) - b
	angle := float64(deg)

	if angle <= upLimit {
		return StageUp
	}
	if angle >= downLimit {
		return StageDown
	}
	switch current {
	case StageUp:
		if angle < upLimit+hysteresis {
			return StageUp
		}
		return StageMovingDown
	case StageDown:
		if angle > downLimit-hysteresis {
			return StageDown
		}
		return StageMovingUp
	case StageMovingUp, StageMovingDown, StageLost:
		return current
	}
	return current
}

func (c *Counter) commit(l model.Limb, st *limb, prev, next Stage, th calibration.Thresholds, now time.Time) {
	st.metrics.Stage = next

	if prev == StageUp && (next == StageMovingDown || next == StageDown) {
		elapsed := now.Sub(st.repStart)
		if st.ready && elapsed >= c.minRep {
			c.count(l, st, elapsed, th, now)
		}
		st.ready = false
	}
	if next == StageDown {
		st.ready = true
		st.repStart = now
		st.minAngle, st.maxAngle = st.metrics.Angle, st.metrics.Angle
	}
}

func (c *Counter) count(l model.Limb, st *limb, elapsed time.Duration, th calibration.Thresholds, now time.Time) {
	m := &st.metrics
	m.RepCount++
	m.RepTime = elapsed
	if m.MinRepTime == 0 || elapsed < m.MinRepTime {
		m.MinRepTime = elapsed
	}
	m.Accuracy = Accuracy(st.maxAngle-st.minAngle, th.Range())
	st.lastRep = now
	st.compliment = compliments[c.rng.Intn(len(compliments))]

	c.logger.Debug(context.Background(), "rep counted",
		logger.String("limb", string(l)),
		logger.Int("count", m.RepCount),
		logger.Duration("rep_time", elapsed),
		logger.Int("accuracy", m.Accuracy))
}

func (c *Counter) feedback(st *limb, angle int, th calibration.Thresholds, now time.Time) {
	m := &st.metrics
	if !st.lastRep.IsZero() && now.Sub(st.lastRep) < c.complimentFor {
		m.Feedback = st.compliment
		m.FeedbackColor = ColorGreen
		return
	}
	switch {
	case angle < relaxBelow:
		m.Feedback = FeedbackRelaxGrip
	case angle > extendAbove:
		m.Feedback = FeedbackFullExtension
	default:
		m.Feedback = FeedbackSmooth
	}
	if now.Before(st.colorLock) {
		return
	}
	switch {
	case angle < th.SafeMin || angle > th.SafeMax:
		m.FeedbackColor = ColorRed
	case angle < relaxBelow || angle > extendAbove:
		m.FeedbackColor = ColorYellow
	default:
		m.FeedbackColor = ColorGreen
	}
}

func (c *Counter) state(l model.Limb) *limb {
	st, ok := c.limbs[l]
	if !ok {
		st = &limb{metrics: newArmMetrics(), compliment: FeedbackMaintain}
		c.limbs[l] = st
	}
	return st
}
