// Package service owns live exercise sessions and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/repcoach/internal/adapters/repository"
	"github.com/okian/repcoach/internal/domain/classifier"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/domain/types"
	"github.com/okian/repcoach/pkg/logger"
	"github.com/okian/repcoach/pkg/metrics"
)

// defaultReapInterval is how often idle sessions are looked for.
const defaultReapInterval = 30 * time.Second

// Service keeps a registry of exercise profiles and the live sessions
// created from them.
type Service struct {
	mu sync.RWMutex

	// Core components
	profiles *profile.Registry
	sessions *repository.MemoryStore[*Session]
	loader   classifier.Loader

	// Configuration
	sessionCfg   SessionConfig
	maxSessions  int
	idleTimeout  time.Duration
	reapInterval time.Duration
	now          func() time.Time

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry sets the exercise profiles sessions can be created for.
func WithRegistry(r *profile.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.profiles = r
		}
	}
}

// WithSessionConfig sets the tuning applied to every new session.
func WithSessionConfig(cfg SessionConfig) Option {
	return func(s *Service) {
		s.sessionCfg = cfg
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithClassifierLoader sets how each session loads its form classifier.
func WithClassifierLoader(load classifier.Loader) Option {
	return func(s *Service) {
		s.loader = load
	}
}

// WithIdleTimeout stops sessions that received no frame for d. Zero keeps
// them until deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.idleTimeout = d
		}
	}
}

// WithReapInterval sets how often idle sessions are looked for.
func WithReapInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reapInterval = d
		}
	}
}

// WithClock sets the time source used when callers give no timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionCfg:   DefaultSessionConfig(),
		maxSessions:  DefaultMaxSessions,
		reapInterval: defaultReapInterval,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the session store and the idle reaper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.profiles == nil {
		r, err := profile.DefaultRegistry()
		if err != nil {
			return fmt.Errorf("load default profiles: %w", err)
		}
		s.profiles = r
	}

	s.logger.Info(ctx, "starting session service...")

	s.sessions = repository.NewMemoryStore[*Session](
		repository.WithCapacity(s.maxSessions),
		repository.WithName("sessions"),
	)
	s.stopCh = make(chan struct{})
	if s.idleTimeout > 0 {
		s.wg.Add(1)
		go s.reapLoop(s.stopCh)
	}

	s.started = true
	metrics.UpdateActiveSessions(0)
	s.logger.Info(ctx, "session service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Any("exercises", s.profiles.Names()),
		logger.Duration("idleTimeout", s.idleTimeout),
	)

	return nil
}

// Stop stops every live session and the background loops.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping session service...")
	close(s.stopCh)
	s.started = false
	s.mu.Unlock()

	s.wg.Wait()

	var ids []string
	s.sessions.Range(ctx, func(id string, _ *Session) bool {
		ids = append(ids, id)
		return true
	})
	for _, id := range ids {
		if _, err := s.stopSession(ctx, id, s.now()); err != nil {
			s.logger.Warn(ctx, "failed to stop session", logger.String("session", id), logger.Error(err))
		}
	}
	s.logger.Info(ctx, "session service stopped", logger.Int("stoppedSessions", len(ids)))
}

func (s *Service) reapLoop(stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.ReapIdle(context.Background())
		}
	}
}

// ReapIdle stops sessions idle for longer than the idle timeout and returns
// how many were removed.
func (s *Service) ReapIdle(ctx context.Context) int {
	if s.idleTimeout <= 0 || s.store() == nil {
		return 0
	}
	now := s.now()
	var idle []string
	s.sessions.Range(ctx, func(id string, sess *Session) bool {
		if now.Sub(sess.LastSeen()) > s.idleTimeout {
			idle = append(idle, id)
		}
		return true
	})
	for _, id := range idle {
		if _, err := s.stopSession(ctx, id, now); err == nil {
			s.logger.Info(ctx, "reaped idle session", logger.String("session", id))
		}
	}
	return len(idle)
}

func (s *Service) store() *repository.MemoryStore[*Session] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil
	}
	return s.sessions
}

// CreateSession starts a new session for exercise and returns it.
func (s *Service) CreateSession(ctx context.Context, exercise string, skipCalibration bool) (*Session, error) {
	store := s.store()
	if store == nil {
		return nil, ErrServiceNotStarted
	}
	p, err := s.profiles.Lookup(exercise)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownExercise, err)
	}

	id := uuid.NewString()
	sess := NewSession(id, p, s.sessionCfg,
		WithSessionLogger(s.logger.Named("session")),
		WithSessionClassifier(s.loader),
		WithSessionClock(s.now),
	)
	if err := store.Create(ctx, id, sess); err != nil {
		if errors.Is(err, repository.ErrCapacity) {
			return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
		}
		return nil, fmt.Errorf("store session: %w", err)
	}
	if err := sess.Start(ctx, s.now(), skipCalibration); err != nil {
		_, _ = store.Delete(ctx, id)
		return nil, err
	}

	metrics.RecordSessionStarted()
	metrics.UpdateActiveSessions(store.Count(ctx))
	return sess, nil
}

// StartSession creates a session and describes it for transport callers.
func (s *Service) StartSession(ctx context.Context, exercise string, skipCalibration bool) (types.SessionInfo, error) {
	sess, err := s.CreateSession(ctx, exercise, skipCalibration)
	if err != nil {
		return types.SessionInfo{}, err
	}
	return types.SessionInfo{
		ID:       sess.ID(),
		Exercise: sess.Exercise(),
		Snapshot: sess.Snapshot(),
	}, nil
}

// Session returns the live session with id.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	store := s.store()
	if store == nil {
		return nil, ErrServiceNotStarted
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	return sess, nil
}

// Snapshot returns the latest state of session id.
func (s *Service) Snapshot(ctx context.Context, id string) (types.Snapshot, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return types.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// ProcessFrame feeds one frame to session id. A zero at uses the service
// clock.
func (s *Service) ProcessFrame(ctx context.Context, id string, frame model.Frame, at time.Time) (types.Snapshot, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return types.Snapshot{}, err
	}
	if at.IsZero() {
		at = s.now()
	}
	return sess.ProcessFrame(ctx, frame, at)
}

// StopSession stops session id, removes it and returns its report.
func (s *Service) StopSession(ctx context.Context, id string) (types.Report, error) {
	if s.store() == nil {
		return types.Report{}, ErrServiceNotStarted
	}
	return s.stopSession(ctx, id, s.now())
}

func (s *Service) stopSession(ctx context.Context, id string, now time.Time) (types.Report, error) {
	sess, err := s.sessions.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.Report{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return types.Report{}, err
	}
	report := sess.Stop(ctx, sess.FrameTime(now))
	metrics.RecordSessionStopped(time.Duration(report.Duration * float64(time.Second)))
	metrics.UpdateActiveSessions(s.sessions.Count(ctx))
	return report, nil
}

// Exercises returns the names sessions can be created for.
func (s *Service) Exercises() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profiles == nil {
		return nil
	}
	return s.profiles.Names()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"maxSessions": s.maxSessions,
	}

	if s.started {
		byPhase := map[string]int{}
		s.sessions.Range(ctx, func(_ string, sess *Session) bool {
			byPhase[string(sess.Phase())]++
			return true
		})
		total := s.sessions.Count(ctx)
		stats["activeSessions"] = total
		stats["sessionsByPhase"] = byPhase
		stats["exercises"] = s.profiles.Names()

		metrics.UpdateActiveSessions(total)
	}

	return stats
}
