// Package angle computes joint angles from 2D landmark geometry and smooths
// them per limb.
package angle

import (
	"math"

	"github.com/okian/repcoach/internal/domain/model"
)

const (
	straightAngle = 180.0
	fullTurn      = 360.0
)

// Point is a 2D position in normalized image space.
type Point struct {
	X, Y float64
}

// FromLandmark drops the confidence of l.
func FromLandmark(l model.Landmark) Point {
	return Point{X: l.X, Y: l.Y}
}

// Calculate returns the angle in degrees at vertex b formed by the rays to a
// and c. The result lies in [0, 180] and does not depend on argument order.
func Calculate(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(radians * straightAngle / math.Pi)
	if deg > straightAngle {
		deg = fullTurn - deg
	}
	return deg
}

// Between is Calculate over landmarks.
func Between(a, b, c model.Landmark) float64 {
	return Calculate(FromLandmark(a), FromLandmark(b), FromLandmark(c))
}
