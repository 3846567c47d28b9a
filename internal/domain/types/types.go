// Package types contains the per-frame snapshot and final report shapes
// exposed to callers.
package types

import (
	"math"
	"time"

	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/repcount"
)

// Limb is the per-limb part of a Snapshot. Times are in seconds.
type Limb struct {
	Stage         repcount.Stage `json:"stage"`
	Angle         int            `json:"angle"`
	RepCount      int            `json:"rep_count"`
	RepTime       float64        `json:"rep_time"`
	MinRepTime    float64        `json:"min_rep_time"`
	CurrRepTime   float64        `json:"curr_rep_time"`
	Accuracy      int            `json:"accuracy"`
	Feedback      string         `json:"feedback"`
	FeedbackColor repcount.Color `json:"feedback_color"`
	ErrorCount    int            `json:"error_count"`
}

// NewLimb converts counter metrics into their exposed form.
func NewLimb(m repcount.ArmMetrics, errors int) Limb {
	return Limb{
		Stage:         m.Stage,
		Angle:         m.Angle,
		RepCount:      m.RepCount,
		RepTime:       Seconds(m.RepTime),
		MinRepTime:    Seconds(m.MinRepTime),
		CurrRepTime:   Seconds(m.CurrRepTime),
		Accuracy:      m.Accuracy,
		Feedback:      m.Feedback,
		FeedbackColor: m.FeedbackColor,
		ErrorCount:    errors,
	}
}

// Calibration is the calibration part of a Snapshot.
// Thresholds hold the profile defaults until calibration completes.
type Calibration struct {
	Active              bool   `json:"active"`
	Phase               string `json:"phase"`
	Message             string `json:"message"`
	Warning             string `json:"warning,omitempty"`
	Progress            int    `json:"progress"`
	ContractedThreshold int    `json:"contracted_threshold"`
	ExtendedThreshold   int    `json:"extended_threshold"`
	SafeAngleMin        int    `json:"safe_angle_min"`
	SafeAngleMax        int    `json:"safe_angle_max"`
}

// NewCalibration converts calibration data into its exposed form.
func NewCalibration(d calibration.Data) Calibration {
	return Calibration{
		Active:              d.Active,
		Phase:               string(d.Phase),
		Message:             d.Message,
		Warning:             d.Warning,
		Progress:            d.Progress,
		ContractedThreshold: d.ContractedThreshold,
		ExtendedThreshold:   d.ExtendedThreshold,
		SafeAngleMin:        d.SafeAngleMin,
		SafeAngleMax:        d.SafeAngleMax,
	}
}

// Snapshot is the state of a session after one frame.
type Snapshot struct {
	Phase          string              `json:"status"`
	Limbs          map[model.Limb]Limb `json:"limbs"`
	Calibration    Calibration         `json:"calibration"`
	Remaining      int                 `json:"remaining"`
	Mismatch       bool                `json:"mismatch"`
	MismatchReason string              `json:"mismatch_reason,omitempty"`
	VSign          bool                `json:"v_sign"`
}

// SessionInfo identifies a newly created session.
type SessionInfo struct {
	ID       string   `json:"session_id"`
	Exercise string   `json:"exercise"`
	Snapshot Snapshot `json:"snapshot"`
}

// LimbSummary is the per-limb part of a Report.
type LimbSummary struct {
	TotalReps  int     `json:"total_reps"`
	MinTime    float64 `json:"min_time"`
	ErrorCount int     `json:"error_count"`
}

// Thresholds are the calibration values reported at the end of a session.
type Thresholds struct {
	Extended   int `json:"extended_threshold"`
	Contracted int `json:"contracted_threshold"`
	SafeMin    int `json:"safe_min"`
	SafeMax    int `json:"safe_max"`
}

// NewThresholds converts calibration thresholds into their exposed form.
func NewThresholds(t calibration.Thresholds) Thresholds {
	return Thresholds{
		Extended:   t.Extended,
		Contracted: t.Contracted,
		SafeMin:    t.SafeMin,
		SafeMax:    t.SafeMax,
	}
}

// Report summarizes a stopped session. Duration covers the active phase.
type Report struct {
	Exercise    string                     `json:"exercise"`
	Duration    float64                    `json:"duration"`
	Summary     map[model.Limb]LimbSummary `json:"summary"`
	Calibration Thresholds                 `json:"calibration"`
	Calibrated  bool                       `json:"calibrated"`
}

// Seconds converts d to seconds rounded to two decimals.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
