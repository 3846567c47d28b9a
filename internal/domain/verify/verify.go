// Package verify flags frames whose body pose contradicts the exercise the
// user is supposed to perform.
package verify

import (
	"strings"

	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/model"
)

// Mismatch reasons.
const (
	ReasonOverhead      = "Overhead Movement Detected"
	ReasonSquat         = "Squat Detected"
	ReasonLegLift       = "Leg Lift Detected"
	ReasonSingleLegLift = "Single Leg Lift Detected"
)

// Geometric thresholds.
const (
	squatKneeAngle = 130.0
	kneeLiftDeltaY = 0.15
)

// Features are the boolean pose properties the rules are written against.
type Features struct {
	Overhead  bool `json:"overhead"`
	Squatting bool `json:"squatting"`
	KneeLift  bool `json:"knee_lift"`
}

type check struct {
	violated func(Features) bool
	reason   string
}

var (
	overhead = func(f Features) bool { return f.Overhead }
	squat    = func(f Features) bool { return f.Squatting }
	kneeLift = func(f Features) bool { return f.KneeLift }
)

// rule excludes movements for exercises whose kind contains any keyword.
type rule struct {
	keywords []string
	checks   []check
}

// rules are evaluated in order; the first rule whose keyword matches wins.
var rules = []rule{
	{
		keywords: []string{"bicep", "curl"},
		checks: []check{
			{overhead, ReasonOverhead},
			{squat, ReasonSquat},
			{kneeLift, ReasonLegLift},
		},
	},
	{
		keywords: []string{"shoulder", "press"},
		checks: []check{
			{squat, ReasonSquat},
			{kneeLift, ReasonLegLift},
		},
	},
	{
		keywords: []string{"squat"},
		checks: []check{
			{overhead, ReasonOverhead},
			{kneeLift, ReasonSingleLegLift},
		},
	},
	{
		keywords: []string{"knee", "lift"},
		checks: []check{
			{squat, ReasonSquat},
			{overhead, ReasonOverhead},
		},
	},
	{
		keywords: []string{"row"},
		checks: []check{
			{overhead, ReasonOverhead},
			{squat, ReasonSquat},
			{kneeLift, ReasonLegLift},
		},
	},
}

// Extract computes the pose features of a frame. A frame without a full
// pose has no features.
func Extract(frame model.Frame) Features {
	if len(frame.Pose) != model.PoseLandmarkCount {
		return Features{}
	}
	p := frame.Point
	nose := p(model.Nose)
	rightKnee := angle.Between(p(model.RightHip), p(model.RightKnee), p(model.RightAnkle))
	leftKnee := angle.Between(p(model.LeftHip), p(model.LeftKnee), p(model.LeftAnkle))
	ankleDelta := p(model.RightAnkle).Y - p(model.LeftAnkle).Y
	if ankleDelta < 0 {
		ankleDelta = -ankleDelta
	}
	return Features{
		Overhead:  p(model.RightWrist).Y < nose.Y || p(model.LeftWrist).Y < nose.Y,
		Squatting: rightKnee < squatKneeAngle && leftKnee < squatKneeAngle,
		KneeLift:  ankleDelta > kneeLiftDeltaY,
	}
}

// CheckMismatch reports whether the frame shows a movement excluded for the
// expected exercise and, if so, why. Unknown exercises never mismatch.
func CheckMismatch(frame model.Frame, exercise string) (bool, string) {
	if !frame.HasPose() {
		return false, ""
	}
	r, ok := lookup(exercise)
	if !ok {
		return false, ""
	}
	f := Extract(frame)
	for _, c := range r.checks {
		if c.violated(f) {
			return true, c.reason
		}
	}
	return false, ""
}

func lookup(exercise string) (rule, bool) {
	name := strings.ToLower(exercise)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}
