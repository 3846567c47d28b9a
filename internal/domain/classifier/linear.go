package classifier

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gonum.org/v1/gonum/floats"
)

// LinearModel is a logistic-style linear decision rule: Good when
// w·x + b ≥ 0.
type LinearModel struct {
	Weights []float64 `koanf:"weights"`
	Bias    float64   `koanf:"bias"`
}

// Predict implements Classifier.
func (m *LinearModel) Predict(ctx context.Context, features []float64) (Label, error) {
	if err := ctx.Err(); err != nil {
		return Good, fmt.Errorf("context cancelled: %w", err)
	}
	if len(features) != len(m.Weights) {
		return Good, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), len(m.Weights))
	}
	if floats.Dot(m.Weights, features)+m.Bias >= 0 {
		return Good, nil
	}
	return Bad, nil
}

// LoadLinearModel reads a model of the form
//
//	weights: [0.1, -0.4, ...]
//	bias: 0.2
func LoadLinearModel(path string) (*LinearModel, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	var m LinearModel
	if err := k.UnmarshalWithConf("", &m, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("%w: %s: no weights", ErrModelLoad, path)
	}
	return &m, nil
}
