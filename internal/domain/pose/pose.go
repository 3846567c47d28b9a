// Package pose turns per-frame landmarks into smoothed joint angles for the
// active exercise and recognizes the V-sign hand gesture.
package pose

import (
	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"gonum.org/v1/gonum/floats"
)

// DefaultVisibilityThreshold is the minimum confidence for every landmark of
// a tracked chain.
const DefaultVisibilityThreshold = 0.6

// vSpreadRatio is how much wider the fingertips must be than the PIP joints.
const vSpreadRatio = 1.5

// Processor measures the active profile's joint on both limbs.
type Processor struct {
	profile    profile.Profile
	smoother   *angle.Smoother
	visibility float64
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithVisibilityThreshold overrides the per-landmark confidence floor.
func WithVisibilityThreshold(v float64) Option {
	return func(p *Processor) {
		if v >= 0 && v <= 1 {
			p.visibility = v
		}
	}
}

// NewProcessor creates a processor for p. A nil smoother gets one with the
// default window.
func NewProcessor(p profile.Profile, smoother *angle.Smoother, opts ...Option) *Processor {
	if smoother == nil {
		smoother = angle.NewSmoother(angle.DefaultWindow)
	}
	proc := &Processor{
		profile:    p,
		smoother:   smoother,
		visibility: DefaultVisibilityThreshold,
	}
	for _, opt := range opts {
		opt(proc)
	}
	return proc
}

// Profile returns the active exercise profile.
func (p *Processor) Profile() profile.Profile {
	return p.profile
}

// Smoother returns the smoother shared by both limbs.
func (p *Processor) Smoother() *angle.Smoother {
	return p.smoother
}

// ArmAngle returns the smoothed joint angle for limb, or Lost when the frame
// has no usable body or any landmark of the chain is below the visibility
// threshold. Lost readings leave the smoothing window untouched.
func (p *Processor) ArmAngle(frame model.Frame, limb model.Limb) model.Reading {
	if len(frame.Pose) != model.PoseLandmarkCount {
		return model.Lost()
	}
	t, ok := p.profile.Triplets[limb]
	if !ok {
		return model.Lost()
	}
	a, b, c := frame.Point(t.A), frame.Point(t.B), frame.Point(t.C)
	if a.Visibility < p.visibility || b.Visibility < p.visibility || c.Visibility < p.visibility {
		return model.Lost()
	}
	return model.Found(p.smoother.Smoothed(limb, angle.Between(a, b, c)))
}

// BothArmAngles measures every limb. Both are Lost when no pose was detected.
func (p *Processor) BothArmAngles(frame model.Frame) map[model.Limb]model.Reading {
	out := make(map[model.Limb]model.Reading, len(model.Limbs))
	for _, limb := range model.Limbs {
		out[limb] = p.ArmAngle(frame, limb)
	}
	return out
}

// DetectVSign reports whether either hand shows index and middle fingers
// extended and spread with ring and pinky curled. Y grows downward.
func (p *Processor) DetectVSign(frame model.Frame) bool {
	for _, h := range frame.Hands() {
		if isVSign(h) {
			return true
		}
	}
	return false
}

func isVSign(h *model.Hand) bool {
	extended := h.At(model.IndexTip).Y < h.At(model.IndexPIP).Y &&
		h.At(model.MiddleTip).Y < h.At(model.MiddlePIP).Y
	curled := h.At(model.RingTip).Y > h.At(model.RingPIP).Y &&
		h.At(model.PinkyTip).Y > h.At(model.PinkyPIP).Y
	if !extended || !curled {
		return false
	}
	tipSpread := distance(h.At(model.IndexTip), h.At(model.MiddleTip))
	pipSpread := distance(h.At(model.IndexPIP), h.At(model.MiddlePIP))
	return tipSpread > pipSpread*vSpreadRatio
}

func distance(a, b model.Landmark) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}
