package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/repcoach/pkg/logger"
)

// Loader builds the underlying classifier when an Engine opens.
type Loader func(ctx context.Context) (Classifier, error)

// FileLoader loads a LinearModel from path. An empty path yields Nop.
func FileLoader(path string) Loader {
	return func(context.Context) (Classifier, error) {
		if path == "" {
			return Nop{}, nil
		}
		return LoadLinearModel(path)
	}
}

// Static always opens with c.
func Static(c Classifier) Loader {
	return func(context.Context) (Classifier, error) {
		return c, nil
	}
}

// Engine owns one classifier instance for the lifetime of a session.
type Engine struct {
	load    Loader
	timeout time.Duration
	latency time.Duration
	logger  logger.Logger

	model Classifier
	open  bool
}

// EngineOption applies a configuration option to the Engine.
type EngineOption func(*Engine)

// WithTimeout bounds each prediction.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLatency simulates a remote model by delaying each prediction.
func WithLatency(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.latency = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a closed engine. A nil loader opens with Nop.
func NewEngine(load Loader, opts ...EngineOption) *Engine {
	if load == nil {
		load = Static(Nop{})
	}
	e := &Engine{load: load}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.Or(e.logger)
	return e
}

// Open loads the model. When loading fails the engine still opens with Nop
// so the session keeps running, and the load error is returned.
func (e *Engine) Open(ctx context.Context) error {
	if e.open {
		return nil
	}
	e.open = true
	m, err := e.load(ctx)
	if err != nil || m == nil {
		e.model = Nop{}
		if err == nil {
			err = fmt.Errorf("%w: loader returned no classifier", ErrModelLoad)
		}
		e.logger.Warn(ctx, "form classifier unavailable, assuming good form", logger.Error(err))
		return err
	}
	e.model = m
	return nil
}

// Close releases the model. Closing twice is a no-op.
func (e *Engine) Close() error {
	if !e.open {
		return nil
	}
	if c, ok := e.model.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close classifier: %w", err)
		}
	}
	e.model = nil
	e.open = false
	return nil
}

// IsOpen reports whether Open has been called without a matching Close.
func (e *Engine) IsOpen() bool {
	return e.open
}

// Predict implements Classifier. With a timeout the model runs on its own
// goroutine so a model that ignores ctx cannot hold up the caller; such
// models must be safe for concurrent use.
func (e *Engine) Predict(ctx context.Context, features []float64) (Label, error) {
	if !e.open {
		return Good, ErrEngineClosed
	}
	model := e.model
	if e.timeout <= 0 {
		return e.predict(ctx, model, features)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	done := make(chan prediction, 1)
	go func() {
		label, err := e.predict(ctx, model, features)
		done <- prediction{label: label, err: err}
	}()
	select {
	case p := <-done:
		return p.label, p.err
	case <-ctx.Done():
		return Good, fmt.Errorf("%w after %s: %w", ErrPredictTimeout, e.timeout, ctx.Err())
	}
}

type prediction struct {
	label Label
	err   error
}

func (e *Engine) predict(ctx context.Context, model Classifier, features []float64) (Label, error) {
	if e.latency > 0 {
		select {
		case <-ctx.Done():
			return Good, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(e.latency):
		}
	}
	return model.Predict(ctx, features)
}
