// Package synth builds deterministic landmark streams from joint-angle
// trajectories. It drives tests and the offline simulator.
package synth

import (
	"math"

	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
)

// Standing skeleton in normalized image space. Y grows downward.
const (
	noseY     = 0.10
	shoulderY = 0.25
	elbowY    = 0.40
	wristY    = 0.55
	hipY      = 0.55
	kneeY     = 0.75
	ankleY    = 0.95

	leftArmX  = 0.60
	rightArmX = 0.40
	leftLegX  = 0.55
	rightLegX = 0.45
	centerX   = 0.50
)

// segmentLength is the distance at which the moving landmark is placed.
const segmentLength = 0.15

// Skeleton returns a fully visible neutral standing pose.
func Skeleton() []model.Landmark {
	pose := make([]model.Landmark, model.PoseLandmarkCount)
	for i := range pose {
		pose[i] = model.Landmark{X: centerX, Y: noseY, Visibility: 1}
	}
	set := func(p model.PoseLandmark, x, y float64) {
		pose[p] = model.Landmark{X: x, Y: y, Visibility: 1}
	}
	set(model.LeftShoulder, leftArmX, shoulderY)
	set(model.RightShoulder, rightArmX, shoulderY)
	set(model.LeftElbow, leftArmX, elbowY)
	set(model.RightElbow, rightArmX, elbowY)
	set(model.LeftWrist, leftArmX, wristY)
	set(model.RightWrist, rightArmX, wristY)
	set(model.LeftHip, leftLegX, hipY)
	set(model.RightHip, rightLegX, hipY)
	set(model.LeftKnee, leftLegX, kneeY)
	set(model.RightKnee, rightLegX, kneeY)
	set(model.LeftAnkle, leftLegX, ankleY)
	set(model.RightAnkle, rightLegX, ankleY)
	for _, p := range []model.PoseLandmark{model.LeftHeel, model.LeftFootIndex} {
		set(p, leftLegX, ankleY)
	}
	for _, p := range []model.PoseLandmark{model.RightHeel, model.RightFootIndex} {
		set(p, rightLegX, ankleY)
	}
	return pose
}

// Pose returns a standing pose with the profile's joint bent to the given
// angle on each listed limb. Landmarks A and B stay put and C is rotated
// around B. Limbs missing from angles keep the neutral posture.
func Pose(p profile.Profile, angles map[model.Limb]float64) []model.Landmark {
	pose := Skeleton()
	for limb, deg := range angles {
		t, ok := p.Triplets[limb]
		if !ok {
			continue
		}
		a, b := pose[t.A], pose[t.B]
		dx, dy := a.X-b.X, a.Y-b.Y
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		dx, dy = dx/n, dy/n
		theta := deg * math.Pi / 180
		if limb == model.Left {
			theta = -theta
		}
		sin, cos := math.Sincos(theta)
		pose[t.C] = model.Landmark{
			X:          b.X + segmentLength*(dx*cos-dy*sin),
			Y:          b.Y + segmentLength*(dx*sin+dy*cos),
			Visibility: 1,
		}
	}
	return pose
}

// VSignHand returns a hand showing a spread index and middle finger.
func VSignHand() *model.Hand {
	h := openHand()
	h[model.IndexPIP] = model.Landmark{X: 0.48, Y: 0.50, Visibility: 1}
	h[model.MiddlePIP] = model.Landmark{X: 0.50, Y: 0.50, Visibility: 1}
	h[model.IndexTip] = model.Landmark{X: 0.44, Y: 0.40, Visibility: 1}
	h[model.MiddleTip] = model.Landmark{X: 0.54, Y: 0.40, Visibility: 1}
	return h
}

// FistHand returns a hand with all four fingers curled.
func FistHand() *model.Hand {
	h := openHand()
	for _, pair := range [][2]model.HandLandmark{
		{model.IndexPIP, model.IndexTip},
		{model.MiddlePIP, model.MiddleTip},
	} {
		pip := h[pair[0]]
		h[pair[1]] = model.Landmark{X: pip.X, Y: pip.Y + 0.03, Visibility: 1}
	}
	return h
}

// openHand has ring and pinky curled and index/middle pointing straight up
// without spread.
func openHand() *model.Hand {
	h := &model.Hand{}
	for i := range h {
		h[i] = model.Landmark{X: 0.5, Y: 0.6, Visibility: 1}
	}
	h[model.IndexPIP] = model.Landmark{X: 0.48, Y: 0.50, Visibility: 1}
	h[model.IndexTip] = model.Landmark{X: 0.48, Y: 0.42, Visibility: 1}
	h[model.MiddlePIP] = model.Landmark{X: 0.50, Y: 0.50, Visibility: 1}
	h[model.MiddleTip] = model.Landmark{X: 0.50, Y: 0.42, Visibility: 1}
	h[model.RingPIP] = model.Landmark{X: 0.52, Y: 0.50, Visibility: 1}
	h[model.RingTip] = model.Landmark{X: 0.52, Y: 0.54, Visibility: 1}
	h[model.PinkyPIP] = model.Landmark{X: 0.54, Y: 0.52, Visibility: 1}
	h[model.PinkyTip] = model.Landmark{X: 0.54, Y: 0.56, Visibility: 1}
	return h
}
