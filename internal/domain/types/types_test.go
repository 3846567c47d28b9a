package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/repcoach/internal/domain/calibration"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/repcount"
	types "github.com/okian/repcoach/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLimb(t *testing.T) {
	Convey("Given counter metrics", t, func() {
		m := repcount.ArmMetrics{
			Stage:         repcount.StageUp,
			Angle:         52,
			RepCount:      4,
			RepTime:       1234 * time.Millisecond,
			MinRepTime:    987 * time.Millisecond,
			CurrRepTime:   250 * time.Millisecond,
			Accuracy:      93,
			Feedback:      "Good Job!",
			FeedbackColor: repcount.ColorGreen,
		}

		Convey("When converted", func() {
			l := types.NewLimb(m, 2)

			Convey("Then times are seconds with two decimals", func() {
				So(l.RepTime, ShouldEqual, 1.23)
				So(l.MinRepTime, ShouldEqual, 0.99)
				So(l.CurrRepTime, ShouldEqual, 0.25)
				So(l.ErrorCount, ShouldEqual, 2)
				So(l.Stage, ShouldEqual, repcount.StageUp)
			})
		})
	})
}

func TestReportJSON(t *testing.T) {
	Convey("Given a report", t, func() {
		r := types.Report{
			Exercise: "Bicep Curl",
			Duration: 61.5,
			Summary: map[model.Limb]types.LimbSummary{
				model.Right: {TotalReps: 10, MinTime: 1.1, ErrorCount: 1},
			},
			Calibration: types.NewThresholds(calibration.Thresholds{Contracted: 40, Extended: 170, SafeMin: 30, SafeMax: 175}),
			Calibrated:  true,
		}

		Convey("When encoded", func() {
			raw, err := json.Marshal(r)
			So(err, ShouldBeNil)

			Convey("Then limbs are keyed by name and thresholds by role", func() {
				s := string(raw)
				So(s, ShouldContainSubstring, `"RIGHT":{"total_reps":10,"min_time":1.1,"error_count":1}`)
				So(s, ShouldContainSubstring, `"extended_threshold":170`)
				So(s, ShouldContainSubstring, `"safe_min":30`)
			})
		})
	})
}

func TestCalibrationView(t *testing.T) {
	Convey("Given completed calibration data", t, func() {
		d := calibration.Data{
			Phase:               calibration.PhaseComplete,
			ContractedThreshold: 42,
			ExtendedThreshold:   168,
			SafeAngleMin:        32,
			SafeAngleMax:        175,
			Message:             "Bicep Curl Calibration Complete. Start Workout!",
			Progress:            100,
		}

		Convey("When converted and encoded", func() {
			c := types.NewCalibration(d)
			raw, err := json.Marshal(c)
			So(err, ShouldBeNil)

			Convey("Then the learned thresholds and safe bounds are exposed", func() {
				So(c.Phase, ShouldEqual, "COMPLETE")
				So(c.ContractedThreshold, ShouldEqual, 42)
				So(c.ExtendedThreshold, ShouldEqual, 168)
				So(c.SafeAngleMin, ShouldEqual, 32)
				So(c.SafeAngleMax, ShouldEqual, 175)
				So(string(raw), ShouldContainSubstring, `"safe_angle_min":32`)
				So(string(raw), ShouldContainSubstring, `"extended_threshold":168`)
			})
		})
	})
}
