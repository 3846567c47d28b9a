package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/classifier"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/pose"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/domain/repcount"
	"github.com/okian/repcoach/internal/domain/types"
	"github.com/okian/repcoach/internal/domain/verify"
	"github.com/okian/repcoach/pkg/logger"
	"github.com/okian/repcoach/pkg/metrics"
)

// Phase is the session lifecycle stage.
type Phase string

// Session phases.
const (
	PhaseInactive    Phase = "INACTIVE"
	PhaseCalibration Phase = "CALIBRATION"
	PhaseCountdown   Phase = "COUNTDOWN"
	PhaseActive      Phase = "ACTIVE"
	PhaseStopped     Phase = "STOPPED"
)

// FeedbackBadForm replaces the counter's feedback while the classifier
// reports bad form on a limb in UP.
const FeedbackBadForm = "Bad Form Detected"

// Session wires one component set together for one user and one exercise.
// The domain components are single-threaded; mu serializes callers.
type Session struct {
	mu sync.Mutex

	id      string
	profile profile.Profile
	cfg     SessionConfig
	logger  logger.Logger

	processor   *pose.Processor
	calibration *calibration.Manager
	counter     *repcount.Counter
	engine      *classifier.Engine
	load        classifier.Loader
	clock       func() time.Time

	phase        Phase
	calibrated   bool
	anchored     bool
	calibStart   time.Time
	countdownEnd time.Time
	activeStart  time.Time
	lastFrame    time.Time
	lastSeen     time.Time

	badForm      bool
	lastCheck    time.Time
	errors       map[model.Limb]int
	lastFeedback map[model.Limb]string

	snapshot types.Snapshot
	report   *types.Report
}

// SessionOption applies a configuration option to a Session.
type SessionOption func(*Session)

// WithSessionLogger sets a custom logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionClassifier sets the form classifier loader. Without one the
// session assumes good form.
func WithSessionClassifier(load classifier.Loader) SessionOption {
	return func(s *Session) {
		s.load = load
	}
}

// WithSessionClock sets the local clock behind LastSeen. Protocol timers
// run on frame timestamps instead.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.clock = now
		}
	}
}

// NewSession creates an inactive session for p.
func NewSession(id string, p profile.Profile, cfg SessionConfig, opts ...SessionOption) *Session {
	s := &Session{
		id:      id,
		profile: p,
		cfg:     cfg,
		phase:   PhaseInactive,
		clock:   time.Now,
	}
	s.logger = logger.Nop()
	for _, opt := range opts {
		opt(s)
	}
	s.engine = classifier.NewEngine(s.load,
		classifier.WithLogger(s.logger),
		classifier.WithTimeout(s.cfg.ClassifierTimeout),
		classifier.WithLatency(s.cfg.ClassifierLatency),
	)
	if s.cfg.ClassifierInterval <= 0 {
		s.cfg.ClassifierInterval = DefaultClassifierInterval
	}
	s.processor = pose.NewProcessor(p, angle.NewSmoother(cfg.SmoothingWindow),
		pose.WithVisibilityThreshold(cfg.VisibilityThreshold))
	s.reset()
	s.snapshot = s.buildSnapshot(time.Time{})
	return s
}

func (s *Session) reset() {
	s.processor.Smoother().Reset()
	s.calibration = calibration.NewManager(s.processor, s.profile,
		calibration.WithHoldTime(s.cfg.CalibrationHold),
		calibration.WithSafetyMargin(s.cfg.SafetyMargin),
		calibration.WithLogger(s.logger),
	)
	s.counter = repcount.NewCounter(s.calibration,
		repcount.WithMinRepDuration(s.cfg.MinRepDuration),
		repcount.WithStateHoldTime(s.cfg.StateHold),
		repcount.WithComplimentDuration(s.cfg.ComplimentDuration),
		repcount.WithLostColorLock(s.cfg.LostColorLock),
		repcount.WithLogger(s.logger),
	)
	s.calibrated = false
	s.badForm = false
	s.lastCheck = time.Time{}
	s.activeStart = time.Time{}
	s.errors = make(map[model.Limb]int, len(model.Limbs))
	s.lastFeedback = make(map[model.Limb]string, len(model.Limbs))
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Exercise returns the exercise name.
func (s *Session) Exercise() string {
	return s.profile.Name
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastSeen returns the local clock reading of the last start or frame.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot returns the state after the last processed frame.
func (s *Session) Snapshot() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Start resets all state and opens the classifier. With skip the profile
// defaults are used and the countdown starts immediately. The timers start
// at now and move to the first frame's timestamp when it arrives.
func (s *Session) Start(ctx context.Context, now time.Time, skip bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseStopped {
		return fmt.Errorf("%w: %s", ErrSessionStopped, s.id)
	}
	s.reset()
	s.anchored = false
	s.lastFrame = time.Time{}
	s.lastSeen = s.clock()
	if err := s.engine.Open(ctx); err != nil {
		s.logger.Warn(ctx, "session running without form classifier",
			logger.String("session", s.id), logger.Error(err))
	}

	if skip {
		s.calibration.UseDefaults()
		metrics.RecordCalibrationSkipped()
		s.beginCountdown(now)
	} else {
		s.calibration.Start(now)
		s.calibStart = now
		s.phase = PhaseCalibration
	}
	s.snapshot = s.buildSnapshot(now)
	s.logger.Info(ctx, "session started",
		logger.String("session", s.id),
		logger.String("exercise", s.profile.Name),
		logger.Bool("skip_calibration", skip))
	return nil
}

func (s *Session) beginCountdown(now time.Time) {
	s.phase = PhaseCountdown
	s.countdownEnd = now.Add(s.cfg.Countdown)
}

// ProcessFrame advances the session by one frame captured at now.
func (s *Session) ProcessFrame(ctx context.Context, frame model.Frame, now time.Time) (types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseStopped:
		return s.snapshot, fmt.Errorf("%w: %s", ErrSessionStopped, s.id)
	case PhaseInactive:
		return s.snapshot, fmt.Errorf("%w: %s", ErrSessionNotStarted, s.id)
	}
	if err := frame.Validate(); err != nil {
		metrics.RecordFrameRejected()
		return s.snapshot, fmt.Errorf("session %s: %w", s.id, err)
	}

	start := time.Now()
	s.lastSeen = s.clock()
	if !s.anchored {
		s.anchor(now)
	}
	if now.After(s.lastFrame) {
		s.lastFrame = now
	}

	switch s.phase {
	case PhaseCalibration:
		s.calibrate(ctx, frame, now)
	case PhaseCountdown:
		if !now.Before(s.countdownEnd) {
			s.phase = PhaseActive
			s.activeStart = now
			// Calibration angles must not leak into the first rep.
			s.processor.Smoother().Reset()
			s.logger.Debug(ctx, "session active", logger.String("session", s.id))
			s.track(ctx, frame, now)
		}
	case PhaseActive:
		s.track(ctx, frame, now)
	}

	snap := s.buildSnapshot(now)
	snap.Mismatch, snap.MismatchReason = verify.CheckMismatch(frame, s.profile.Kind())
	if snap.Mismatch {
		metrics.RecordMismatch(snap.MismatchReason)
	}
	snap.VSign = s.processor.DetectVSign(frame)
	if snap.VSign {
		metrics.RecordVSign()
	}
	s.snapshot = snap

	metrics.RecordFrameProcessed(string(s.phase))
	metrics.RecordFrameLatency(float64(time.Since(start).Microseconds()) / 1000)
	return snap, nil
}

// anchor moves the protocol timers onto the time base of the frames, which
// may be a client clock skewed against the one passed to Start.
func (s *Session) anchor(now time.Time) {
	s.anchored = true
	switch s.phase {
	case PhaseCalibration:
		if !now.Equal(s.calibStart) {
			s.calibration.Start(now)
			s.calibStart = now
		}
	case PhaseCountdown:
		s.countdownEnd = now.Add(s.cfg.Countdown)
	}
}

func (s *Session) calibrate(ctx context.Context, frame model.Frame, now time.Time) {
	if s.calibration.ProcessFrame(frame, now) {
		data := s.calibration.Data()
		s.calibrated = true
		metrics.RecordCalibrationCompleted(data.Warning != "")
		s.logger.Info(ctx, "calibration complete",
			logger.String("session", s.id),
			logger.Int("contracted", data.ContractedThreshold),
			logger.Int("extended", data.ExtendedThreshold))
		s.beginCountdown(now)
		return
	}
	if s.cfg.MaxCalibration > 0 && now.Sub(s.calibStart) >= s.cfg.MaxCalibration {
		s.logger.Warn(ctx, "calibration timed out, using defaults",
			logger.String("session", s.id),
			logger.Duration("elapsed", now.Sub(s.calibStart)))
		s.calibration.UseDefaults()
		metrics.RecordCalibrationSkipped()
		s.beginCountdown(now)
	}
}

func (s *Session) track(ctx context.Context, frame model.Frame, now time.Time) {
	if frame.HasPose() && (s.lastCheck.IsZero() || now.Sub(s.lastCheck) >= s.cfg.ClassifierInterval) {
		s.lastCheck = now
		features := classifier.Features(frame, s.profile.FeatureLandmarks)
		s.badForm = classifier.FailOpen(ctx, s.engine, features) == classifier.Bad
	}

	readings := s.processor.BothArmAngles(frame)
	for _, l := range model.Limbs {
		before := s.counter.Metrics(l)
		if a, ok := readings[l].Value(); ok {
			s.counter.Process(l, a, now)
			if s.badForm && s.counter.Metrics(l).Stage == repcount.StageUp && !s.counter.InCompliment(l, now) {
				s.counter.OverrideFeedback(l, FeedbackBadForm, repcount.ColorRed)
			}
		} else {
			s.counter.MarkLost(l, now)
			if before.Stage != repcount.StageLost {
				metrics.RecordTrackingLost(string(l))
			}
		}

		after := s.counter.Metrics(l)
		if after.RepCount > before.RepCount {
			metrics.RecordRepCounted(string(l))
		}
		if after.Feedback == FeedbackBadForm && s.lastFeedback[l] != FeedbackBadForm {
			s.errors[l]++
			metrics.RecordFormError(string(l))
		}
		s.lastFeedback[l] = after.Feedback
	}
}

func (s *Session) buildSnapshot(now time.Time) types.Snapshot {
	limbs := make(map[model.Limb]types.Limb, len(model.Limbs))
	for _, l := range model.Limbs {
		limbs[l] = types.NewLimb(s.counter.Metrics(l), s.errors[l])
	}
	snap := types.Snapshot{
		Phase:       string(s.phase),
		Limbs:       limbs,
		Calibration: types.NewCalibration(s.calibration.Data()),
	}
	if s.phase == PhaseCountdown {
		snap.Remaining = max(0, int(s.countdownEnd.Sub(now).Seconds()))
	}
	return snap
}

// Stop ends the session at now, given on the frames' time base, and returns
// its report. Stopping twice returns the same report.
func (s *Session) Stop(ctx context.Context, now time.Time) types.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil {
		return *s.report
	}

	duration := s.activeFor(now)
	summary := make(map[model.Limb]types.LimbSummary, len(model.Limbs))
	for _, l := range model.Limbs {
		m := s.counter.Metrics(l)
		summary[l] = types.LimbSummary{
			TotalReps:  m.RepCount,
			MinTime:    types.Seconds(m.MinRepTime),
			ErrorCount: s.errors[l],
		}
	}
	report := types.Report{
		Exercise:    s.profile.Name,
		Duration:    types.Seconds(duration),
		Summary:     summary,
		Calibration: types.NewThresholds(s.calibration.Thresholds()),
		Calibrated:  s.calibrated,
	}
	s.report = &report

	if err := s.engine.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close form classifier",
			logger.String("session", s.id), logger.Error(err))
	}
	s.phase = PhaseStopped
	s.snapshot.Phase = string(PhaseStopped)
	s.logger.Info(ctx, "session stopped",
		logger.String("session", s.id),
		logger.Float64("duration", report.Duration))
	return report
}

// activeFor returns how long the session has been in ACTIVE at now. now
// never counts as earlier than the last frame.
func (s *Session) activeFor(now time.Time) time.Duration {
	if s.activeStart.IsZero() {
		return 0
	}
	if now.Before(s.lastFrame) {
		now = s.lastFrame
	}
	return now.Sub(s.activeStart)
}

// FrameTime translates a local clock reading into the frames' time base by
// adding the local time elapsed since the last frame to its timestamp.
func (s *Session) FrameTime(local time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFrame.IsZero() {
		return local
	}
	return s.lastFrame.Add(max(0, local.Sub(s.lastSeen)))
}
