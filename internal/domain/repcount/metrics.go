package repcount

import (
	"math"
	"time"
)

// ArmMetrics is the observable state of one limb.
type ArmMetrics struct {
	Stage         Stage         `json:"stage"`
	Angle         int           `json:"angle"`
	RepCount      int           `json:"rep_count"`
	RepTime       time.Duration `json:"rep_time"`
	MinRepTime    time.Duration `json:"min_rep_time"`
	CurrRepTime   time.Duration `json:"curr_rep_time"`
	Accuracy      int           `json:"accuracy"`
	Feedback      string        `json:"feedback"`
	FeedbackColor Color         `json:"feedback_color"`
}

func newArmMetrics() ArmMetrics {
	return ArmMetrics{
		Stage:         StageLost,
		Feedback:      FeedbackMaintain,
		FeedbackColor: ColorGreen,
	}
}

// Accuracy scores an observed range of motion against the calibrated one as
// a percentage capped at 100. A non-positive calibrated range scores 100.
func Accuracy(observed, calibrated int) int {
	if calibrated <= 0 {
		return 100
	}
	score := int(math.Round(100 * float64(observed) / float64(calibrated)))
	return min(max(score, 0), 100)
}
