// Package repcount counts repetitions per limb with a hysteretic stage
// machine, scores each rep against the calibrated range and produces short
// coaching feedback.
package repcount

// Stage is the position of a limb within a repetition.
type Stage string

// Limb stages. Limbs start in StageLost until first tracked at an extreme.
const (
	StageUp         Stage = "UP"
	StageDown       Stage = "DOWN"
	StageMovingUp   Stage = "MOVING_UP"
	StageMovingDown Stage = "MOVING_DOWN"
	StageLost       Stage = "LOST"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageUp, StageDown, StageMovingUp, StageMovingDown, StageLost:
		return true
	}
	return false
}

// Color is the display hint attached to feedback.
type Color string

// Feedback colors.
const (
	ColorGreen  Color = "GREEN"
	ColorYellow Color = "YELLOW"
	ColorRed    Color = "RED"
)

// Feedback texts.
const (
	FeedbackRelaxGrip     = "Relax Grip"
	FeedbackFullExtension = "Full Extension"
	FeedbackSmooth        = "Smooth Movements"
	FeedbackAdjust        = "Adjust Position"
	FeedbackMaintain      = "Maintain Form"
)

var compliments = []string{"Great Rep!", "Excellent!", "Perfect Form!", "Good Job!"}
