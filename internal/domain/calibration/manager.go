package calibration

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/pkg/logger"
)

// Defaults and protocol constants.
const (
	DefaultHoldTime     = 3 * time.Second
	DefaultSafetyMargin = 10

	// holdTolerance is how far the angle may drift back from the running
	// extreme while still counting as holding.
	holdTolerance = 5.0
	// graceWindow lets the user settle at the start of a hold.
	graceWindow = 500 * time.Millisecond

	safeFloor   = 20
	safeCeiling = 175
	// minRange below which the calibration is flagged as degenerate.
	minRange = 30

	maxProgress = 100
)

// AngleSource measures both limbs of a frame.
type AngleSource interface {
	BothArmAngles(frame model.Frame) map[model.Limb]model.Reading
}

// Manager runs the EXTEND then CONTRACT protocol and owns Data.
type Manager struct {
	source  AngleSource
	profile profile.Profile
	hold    time.Duration
	margin  int
	logger  logger.Logger

	data     Data
	start    time.Time
	minAngle float64
	maxAngle float64
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithHoldTime sets how long each position must be held.
func WithHoldTime(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.hold = d
		}
	}
}

// WithSafetyMargin sets the degrees added around the calibrated range.
func WithSafetyMargin(deg int) Option {
	return func(m *Manager) {
		if deg >= 0 {
			m.margin = deg
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an inactive manager seeded with the profile's default
// thresholds.
func NewManager(source AngleSource, p profile.Profile, opts ...Option) *Manager {
	m := &Manager{
		source:  source,
		profile: p,
		hold:    DefaultHoldTime,
		margin:  DefaultSafetyMargin,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.Or(m.logger)
	m.data = Data{
		Phase:               PhaseInactive,
		ContractedThreshold: p.DefaultContracted,
		ExtendedThreshold:   p.DefaultExtended,
	}
	m.data.SafeAngleMin, m.data.SafeAngleMax = m.safeBounds(p.DefaultContracted, p.DefaultExtended)
	return m
}

// Data returns a snapshot of the calibration state.
func (m *Manager) Data() Data {
	return m.data
}

// Thresholds returns the current thresholds: the profile defaults until
// calibration completes, the learned values afterwards.
func (m *Manager) Thresholds() Thresholds {
	return m.data.Thresholds()
}

// Completed returns the thresholds once the protocol has finished.
func (m *Manager) Completed() (Thresholds, error) {
	if m.data.Phase != PhaseComplete {
		return Thresholds{}, fmt.Errorf("%w: phase %s", ErrNotComplete, m.data.Phase)
	}
	return m.data.Thresholds(), nil
}

// Start begins the EXTEND phase at now.
func (m *Manager) Start(now time.Time) {
	m.data.Active = true
	m.data.Phase = PhaseExtend
	m.data.Progress = 0
	m.data.Warning = ""
	m.data.Message = fmt.Sprintf("CALIBRATION: Fully EXTEND your %s joint.", m.joint())
	m.start = now
	m.resetTrackers()
	m.logger.Info(context.Background(), "calibration started",
		logger.String("exercise", m.profile.Name),
		logger.String("joint", string(m.profile.Joint)),
		logger.Duration("hold", m.hold))
}

// UseDefaults completes calibration immediately with the profile defaults.
func (m *Manager) UseDefaults() {
	m.data.ContractedThreshold = m.profile.DefaultContracted
	m.data.ExtendedThreshold = m.profile.DefaultExtended
	m.finalize()
	m.data.Message = fmt.Sprintf("%s: using default range. Start Workout!", m.profile.Name)
}

// ProcessFrame advances the protocol by one frame. It returns true exactly
// on the frame that completes calibration and false while inactive.
func (m *Manager) ProcessFrame(frame model.Frame, now time.Time) bool {
	if !m.data.Active {
		return false
	}

	var sum float64
	var n int
	for _, r := range m.source.BothArmAngles(frame) {
		if a, ok := r.Value(); ok {
			sum += float64(a)
			n++
		}
	}
	if n == 0 {
		m.data.Message = fmt.Sprintf("CALIBRATION: Please ensure your %s joint is visible.", m.joint())
		m.data.Progress = 0
		m.start = now
		return false
	}

	current := sum / float64(n)
	m.minAngle = math.Min(m.minAngle, current)
	m.maxAngle = math.Max(m.maxAngle, current)
	elapsed := now.Sub(m.start)

	switch m.data.Phase {
	case PhaseExtend:
		holding := current > m.maxAngle-holdTolerance || elapsed < graceWindow
		if !m.track(holding, elapsed, now, "EXTENDED") {
			return false
		}
		m.data.ExtendedThreshold = int(math.Round(m.maxAngle))
		m.data.Phase = PhaseContract
		m.data.Progress = 0
		m.data.Message = fmt.Sprintf("CALIBRATION: Great! Now Fully CONTRACT your %s joint.", m.joint())
		m.start = now
		m.resetTrackers()
		m.logger.Debug(context.Background(), "calibration extended position captured",
			logger.Int("extended", m.data.ExtendedThreshold))
	case PhaseContract:
		holding := current < m.minAngle+holdTolerance || elapsed < graceWindow
		if !m.track(holding, elapsed, now, "CONTRACTED") {
			return false
		}
		contracted := int(math.Round(m.minAngle))
		if contracted >= m.data.ExtendedThreshold {
			m.restart(now, contracted)
			return false
		}
		m.data.ContractedThreshold = contracted
		m.finalize()
		return true
	}
	return false
}

// restart sends the protocol back to EXTEND after a contracted hold that
// did not end below the extended angle, e.g. when tracking was lost around
// the phase switch.
func (m *Manager) restart(now time.Time, contracted int) {
	m.logger.Warn(context.Background(), "calibration range inverted, restarting",
		logger.String("exercise", m.profile.Name),
		logger.Int("contracted", contracted),
		logger.Int("extended", m.data.ExtendedThreshold))
	m.data.ExtendedThreshold = m.profile.DefaultExtended
	m.data.Phase = PhaseExtend
	m.data.Progress = 0
	m.data.Message = fmt.Sprintf("CALIBRATION: Contracted angle must be below the extended one. Fully EXTEND your %s joint again.", m.joint())
	m.start = now
	m.resetTrackers()
}

// track updates progress and messages for a hold and reports whether the
// hold has lasted long enough. A deviation restarts the hold timer only.
func (m *Manager) track(holding bool, elapsed time.Duration, now time.Time, position string) bool {
	if !holding {
		m.start = now
		m.data.Progress = 0
		m.data.Message = fmt.Sprintf("CALIBRATION: Please hold %s %s position steady.", position, m.joint())
		return false
	}
	m.data.Message = fmt.Sprintf("CALIBRATION: Hold %s %s position.", position, m.joint())
	m.data.Progress = progress(elapsed, m.hold)
	return elapsed >= m.hold
}

func (m *Manager) finalize() {
	c, e := m.data.ContractedThreshold, m.data.ExtendedThreshold
	m.data.SafeAngleMin, m.data.SafeAngleMax = m.safeBounds(c, e)
	m.data.Active = false
	m.data.Phase = PhaseComplete
	m.data.Progress = maxProgress
	m.data.Warning = ""
	m.data.Message = fmt.Sprintf("%s Calibration Complete. Start Workout!", m.profile.Name)

	ctx := context.Background()
	if e-c < minRange {
		m.data.Warning = "WARNING: Small Range of Motion detected. Please try to move fully."
		m.data.Message = m.data.Warning
		m.logger.Warn(ctx, "calibration range of motion is small",
			logger.String("exercise", m.profile.Name),
			logger.Int("contracted", c),
			logger.Int("extended", e))
	}
	m.logger.Info(ctx, "calibration finalized",
		logger.String("exercise", m.profile.Name),
		logger.Int("contracted", c),
		logger.Int("extended", e),
		logger.Int("safe_min", m.data.SafeAngleMin),
		logger.Int("safe_max", m.data.SafeAngleMax))
}

// safeBounds widens the range by the margin within [20, 175] without ever
// cutting into the calibrated range itself.
func (m *Manager) safeBounds(contracted, extended int) (int, int) {
	lo := min(max(safeFloor, contracted-m.margin), contracted)
	hi := max(min(safeCeiling, extended+m.margin), extended)
	return lo, hi
}

func (m *Manager) resetTrackers() {
	m.minAngle = math.Inf(1)
	m.maxAngle = math.Inf(-1)
}

func (m *Manager) joint() string {
	return m.profile.Joint.Title()
}

func progress(elapsed, hold time.Duration) int {
	p := int(float64(elapsed) / float64(hold) * maxProgress)
	return min(max(p, 0), maxProgress-1)
}
