// Package classifier defines the contract for the external form classifier
// and the fail-open policy the engine applies to it.
package classifier

import (
	"context"
	"time"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/pkg/metrics"
)

// Label is the classifier verdict.
type Label int

// Labels as produced by the model.
const (
	Bad  Label = 0
	Good Label = 1
)

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	return l == Bad || l == Good
}

func (l Label) String() string {
	switch l {
	case Bad:
		return "bad"
	case Good:
		return "good"
	}
	return "invalid"
}

// Classifier predicts form quality from flattened landmark coordinates.
type Classifier interface {
	// Predict honors ctx for cancellation.
	Predict(ctx context.Context, features []float64) (Label, error)
}

// Features flattens the selected pose landmarks into [x0, y0, x1, y1, ...].
// A frame without a full pose yields nil.
func Features(frame model.Frame, indices []model.PoseLandmark) []float64 {
	if len(frame.Pose) != model.PoseLandmarkCount {
		return nil
	}
	out := make([]float64, 0, 2*len(indices))
	for _, idx := range indices {
		if !idx.Valid() {
			return nil
		}
		l := frame.Point(idx)
		out = append(out, l.X, l.Y)
	}
	return out
}

// FailOpen asks c for a verdict and treats every failure as Good: a nil
// classifier, an error, or a label outside {Bad, Good}.
func FailOpen(ctx context.Context, c Classifier, features []float64) Label {
	if c == nil {
		metrics.RecordClassifierCheck("fail_open")
		return Good
	}
	start := time.Now()
	label, err := c.Predict(ctx, features)
	metrics.RecordClassifierLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil || !label.Valid() {
		metrics.RecordClassifierCheck("fail_open")
		return Good
	}
	metrics.RecordClassifierCheck(label.String())
	return label
}

// Nop always predicts Good. It stands in when no model is configured.
type Nop struct{}

// Predict implements Classifier.
func (Nop) Predict(context.Context, []float64) (Label, error) {
	return Good, nil
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, features []float64) (Label, error)

// Predict implements Classifier.
func (f Func) Predict(ctx context.Context, features []float64) (Label, error) {
	return f(ctx, features)
}
