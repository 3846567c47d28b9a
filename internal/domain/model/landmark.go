// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Landmark counts for the supported pose and hand topologies.
const (
	PoseLandmarkCount = 33
	HandLandmarkCount = 21
)

// ErrInvalidFrame is returned when a frame fails boundary validation.
var ErrInvalidFrame = errors.New("invalid frame")

// PoseLandmark indexes the 33-point body topology.
type PoseLandmark int

// Body landmark indices.
const (
	Nose PoseLandmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// Valid reports whether p addresses a landmark of the pose topology.
func (p PoseLandmark) Valid() bool {
	return p >= 0 && p < PoseLandmarkCount
}

// HandLandmark indexes the 21-point hand topology.
type HandLandmark int

// Hand landmark indices.
const (
	Wrist HandLandmark = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
)

// Landmark is a normalized image-space keypoint with a confidence score.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

func (l Landmark) finite() bool {
	return !math.IsNaN(l.X) && !math.IsNaN(l.Y) && !math.IsInf(l.X, 0) && !math.IsInf(l.Y, 0)
}

// Hand holds the landmarks of one detected hand.
type Hand [HandLandmarkCount]Landmark

// At returns the hand landmark at index i.
func (h *Hand) At(i HandLandmark) Landmark {
	return h[i]
}

// Frame is a single pose-estimation result. An empty Pose means no body was
// detected; hands are nil when not detected.
type Frame struct {
	Pose      []Landmark `json:"pose"`
	RightHand *Hand      `json:"right_hand,omitempty"`
	LeftHand  *Hand      `json:"left_hand,omitempty"`
}

// HasPose reports whether the frame carries body landmarks.
func (f Frame) HasPose() bool {
	return len(f.Pose) > 0
}

// Point returns the body landmark at p. Callers must check HasPose first.
func (f Frame) Point(p PoseLandmark) Landmark {
	return f.Pose[p]
}

// Hands returns the detected hands, right first.
func (f Frame) Hands() []*Hand {
	hands := make([]*Hand, 0, 2)
	if f.RightHand != nil {
		hands = append(hands, f.RightHand)
	}
	if f.LeftHand != nil {
		hands = append(hands, f.LeftHand)
	}
	return hands
}

// Validate checks the frame once at the boundary so per-frame consumers can
// index landmarks without further checks.
func (f Frame) Validate() error {
	if n := len(f.Pose); n != 0 && n != PoseLandmarkCount {
		return fmt.Errorf("%w: pose has %d landmarks, want 0 or %d", ErrInvalidFrame, n, PoseLandmarkCount)
	}
	for i, l := range f.Pose {
		if !l.finite() {
			return fmt.Errorf("%w: pose landmark %d is not finite", ErrInvalidFrame, i)
		}
	}
	for _, h := range f.Hands() {
		for i, l := range h {
			if !l.finite() {
				return fmt.Errorf("%w: hand landmark %d is not finite", ErrInvalidFrame, i)
			}
		}
	}
	return nil
}
