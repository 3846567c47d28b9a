// Package calibration learns a user's contracted and extended joint angles
// through a guided two-phase hold protocol.
package calibration

// Phase is the calibration step.
type Phase string

// Calibration phases.
const (
	PhaseInactive Phase = "INACTIVE"
	PhaseExtend   Phase = "EXTEND"
	PhaseContract Phase = "CONTRACT"
	PhaseComplete Phase = "COMPLETE"
)

// Data is the observable calibration state. Only Manager writes it.
type Data struct {
	Phase               Phase  `json:"phase"`
	Active              bool   `json:"active"`
	ContractedThreshold int    `json:"contracted_threshold"`
	ExtendedThreshold   int    `json:"extended_threshold"`
	SafeAngleMin        int    `json:"safe_angle_min"`
	SafeAngleMax        int    `json:"safe_angle_max"`
	Message             string `json:"message"`
	Warning             string `json:"warning,omitempty"`
	Progress            int    `json:"progress"`
}

// Thresholds returns the threshold view of d.
func (d Data) Thresholds() Thresholds {
	return Thresholds{
		Contracted: d.ContractedThreshold,
		Extended:   d.ExtendedThreshold,
		SafeMin:    d.SafeAngleMin,
		SafeMax:    d.SafeAngleMax,
	}
}

// Thresholds is the immutable angle range consumers count against.
type Thresholds struct {
	Contracted int `json:"contracted"`
	Extended   int `json:"extended"`
	SafeMin    int `json:"safe_min"`
	SafeMax    int `json:"safe_max"`
}

// Range returns the calibrated range of motion.
func (t Thresholds) Range() int {
	return t.Extended - t.Contracted
}

// Thresholds lets a fixed value act as a ThresholdSource.
func (t Thresholds) Thresholds() Thresholds {
	return t
}

// ThresholdSource gives read-only access to the current thresholds.
type ThresholdSource interface {
	Thresholds() Thresholds
}
