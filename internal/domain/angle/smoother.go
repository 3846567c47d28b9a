package angle

import (
	"math"

	"github.com/okian/repcoach/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of samples averaged per limb.
const DefaultWindow = 7

// truncEpsilon absorbs float summation error before truncating the mean.
const truncEpsilon = 1e-9

type ring struct {
	buf  []float64
	next int
}

// Smoother keeps a fixed-size moving-average window per limb.
type Smoother struct {
	window  int
	buffers map[model.Limb]*ring
}

// NewSmoother creates a smoother averaging the last window samples.
// Non-positive windows fall back to DefaultWindow.
func NewSmoother(window int) *Smoother {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Smoother{
		window:  window,
		buffers: make(map[model.Limb]*ring, len(model.Limbs)),
	}
}

// Window returns the configured window size.
func (s *Smoother) Window() int {
	return s.window
}

// Smoothed pushes raw into the limb's window and returns the truncated mean.
// The first sample for a limb fills the whole window so the average does not
// start biased toward zero.
func (s *Smoother) Smoothed(limb model.Limb, raw float64) int {
	r, ok := s.buffers[limb]
	if !ok {
		r = &ring{buf: make([]float64, s.window)}
		for i := range r.buf {
			r.buf[i] = raw
		}
		s.buffers[limb] = r
	} else {
		r.buf[r.next] = raw
		r.next = (r.next + 1) % s.window
	}
	return int(math.Floor(stat.Mean(r.buf, nil) + truncEpsilon))
}

// Reset clears every limb's window.
func (s *Smoother) Reset() {
	clear(s.buffers)
}
