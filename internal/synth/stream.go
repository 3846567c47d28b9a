package synth

import (
	"math/rand"
	"time"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
)

// Default stream settings.
const (
	DefaultFPS  = 30
	defaultSeed = 1
)

// Segment is one piece of a trajectory. The joint angle moves linearly from
// From to To over Duration on the listed limbs. Hidden segments carry no
// pose at all.
type Segment struct {
	From     float64
	To       float64
	Duration time.Duration
	Limbs    []model.Limb
	Hidden   bool
	VSign    bool
}

// Hold keeps both limbs at deg.
func Hold(deg float64, d time.Duration) Segment {
	return Segment{From: deg, To: deg, Duration: d}
}

// Ramp moves both limbs from one angle to another.
func Ramp(from, to float64, d time.Duration) Segment {
	return Segment{From: from, To: to, Duration: d}
}

// Hidden produces frames without a detected body.
func Hidden(d time.Duration) Segment {
	return Segment{Duration: d, Hidden: true}
}

// Only restricts the segment to the given limbs; the others stay neutral and
// invisible.
func (s Segment) Only(limbs ...model.Limb) Segment {
	s.Limbs = limbs
	return s
}

// WithVSign adds a V-sign hand to every frame of the segment.
func (s Segment) WithVSign() Segment {
	s.VSign = true
	return s
}

// Reps returns n full cycles extended -> contracted -> extended, each taking
// period, preceded by a short hold at extension.
func Reps(n int, contracted, extended float64, period time.Duration) []Segment {
	half := period / 2
	segs := []Segment{Hold(extended, period/4)}
	for i := 0; i < n; i++ {
		segs = append(segs,
			Ramp(extended, contracted, half),
			Ramp(contracted, extended, half),
		)
	}
	return append(segs, Hold(extended, period/4))
}

// Sample is one generated frame with its timestamp.
type Sample struct {
	At    time.Time   `json:"at"`
	Frame model.Frame `json:"frame"`
	// Angle is the trajectory value used for the frame, before jitter.
	Angle float64 `json:"angle"`
}

// Generator renders segments into frames for one profile.
type Generator struct {
	profile profile.Profile
	fps     int
	start   time.Time
	jitter  float64
	rng     *rand.Rand
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithFPS sets the frame rate.
func WithFPS(fps int) Option {
	return func(g *Generator) {
		if fps > 0 {
			g.fps = fps
		}
	}
}

// WithStart sets the timestamp of the first frame.
func WithStart(t time.Time) Option {
	return func(g *Generator) {
		g.start = t
	}
}

// WithJitter adds uniform noise of up to deg degrees to every frame.
func WithJitter(deg float64, seed int64) Option {
	return func(g *Generator) {
		if deg >= 0 {
			g.jitter = deg
			g.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// NewGenerator creates a generator for p.
func NewGenerator(p profile.Profile, opts ...Option) *Generator {
	g := &Generator{
		profile: p,
		fps:     DefaultFPS,
		start:   time.Unix(0, 0).UTC(),
		rng:     rand.New(rand.NewSource(defaultSeed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Interval returns the time between two frames.
func (g *Generator) Interval() time.Duration {
	return time.Second / time.Duration(g.fps)
}

// Stream renders the segments back to back. Each segment contributes
// Duration*fps frames; the end point of a ramp lands on its last frame.
func (g *Generator) Stream(segments ...Segment) []Sample {
	step := g.Interval()
	at := g.start
	var out []Sample
	for _, seg := range segments {
		n := int(seg.Duration / step)
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			deg := seg.From
			if n > 1 {
				deg += (seg.To - seg.From) * float64(i) / float64(n-1)
			}
			out = append(out, Sample{At: at, Frame: g.frame(seg, deg), Angle: deg})
			at = at.Add(step)
		}
	}
	g.start = at
	return out
}

func (g *Generator) frame(seg Segment, deg float64) model.Frame {
	if seg.Hidden {
		return model.Frame{}
	}
	limbs := seg.Limbs
	if len(limbs) == 0 {
		limbs = model.Limbs[:]
	}
	angles := make(map[model.Limb]float64, len(limbs))
	for _, limb := range limbs {
		v := deg
		if g.jitter > 0 {
			v += (g.rng.Float64()*2 - 1) * g.jitter
		}
		angles[limb] = clamp(v, 0, 180)
	}
	f := model.Frame{Pose: Pose(g.profile, angles)}
	for _, limb := range model.Limbs {
		if _, ok := angles[limb]; ok {
			continue
		}
		t := g.profile.Triplets[limb]
		f.Pose[t.C].Visibility = 0
	}
	if seg.VSign {
		f.RightHand = VSignHand()
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
