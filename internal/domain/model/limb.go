package model

// Limb identifies one of the two independently tracked sides.
type Limb string

// Tracked sides.
const (
	Right Limb = "RIGHT"
	Left  Limb = "LEFT"
)

// Limbs lists every tracked side in a fixed order.
var Limbs = [...]Limb{Right, Left}

// Valid reports whether l is a known side.
func (l Limb) Valid() bool {
	return l == Right || l == Left
}

// Reading is the result of measuring a joint angle on one frame: either a
// found angle in degrees or lost tracking.
type Reading struct {
	angle int
	found bool
}

// Found returns a reading carrying angle.
func Found(angle int) Reading {
	return Reading{angle: angle, found: true}
}

// Lost returns a reading for a limb whose landmarks were not usable.
func Lost() Reading {
	return Reading{}
}

// Value returns the angle and whether tracking succeeded.
func (r Reading) Value() (int, bool) {
	return r.angle, r.found
}

// IsLost reports whether tracking failed.
func (r Reading) IsLost() bool {
	return !r.found
}
