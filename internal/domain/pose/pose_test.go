package pose_test

import (
	"testing"

	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/pose"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func bicep() profile.Profile {
	return profile.Presets()[0]
}

func TestArmAngle(t *testing.T) {
	Convey("Given a processor for the bicep curl", t, func() {
		p := pose.NewProcessor(bicep(), angle.NewSmoother(angle.DefaultWindow))

		Convey("When both elbows are visible", func() {
			f := model.Frame{Pose: synth.Pose(bicep(), map[model.Limb]float64{
				model.Right: 150, model.Left: 60,
			})}
			got := p.BothArmAngles(f)

			Convey("Then each limb is measured independently", func() {
				r, ok := got[model.Right].Value()
				So(ok, ShouldBeTrue)
				So(r, ShouldEqual, 150)
				l, ok := got[model.Left].Value()
				So(ok, ShouldBeTrue)
				So(l, ShouldEqual, 60)
			})
		})

		Convey("When a chain landmark is below the visibility threshold", func() {
			f := model.Frame{Pose: synth.Pose(bicep(), map[model.Limb]float64{
				model.Right: 150, model.Left: 150,
			})}
			f.Pose[model.LeftElbow].Visibility = 0.59

			Convey("Then only that limb is lost", func() {
				So(p.ArmAngle(f, model.Left).IsLost(), ShouldBeTrue)
				So(p.ArmAngle(f, model.Right).IsLost(), ShouldBeFalse)
			})
		})

		Convey("When the threshold is lowered", func() {
			p = pose.NewProcessor(bicep(), nil, pose.WithVisibilityThreshold(0.5))
			f := model.Frame{Pose: synth.Pose(bicep(), map[model.Limb]float64{model.Left: 150})}
			f.Pose[model.LeftElbow].Visibility = 0.59

			Convey("Then the limb is still tracked", func() {
				So(p.ArmAngle(f, model.Left).IsLost(), ShouldBeFalse)
			})
		})

		Convey("When no pose is detected", func() {
			got := p.BothArmAngles(model.Frame{})

			Convey("Then both limbs are lost", func() {
				So(got[model.Right].IsLost(), ShouldBeTrue)
				So(got[model.Left].IsLost(), ShouldBeTrue)
			})
		})

		Convey("When a limb jumps after a steady run", func() {
			steady := model.Frame{Pose: synth.Pose(bicep(), map[model.Limb]float64{model.Right: 170})}
			for i := 0; i < angle.DefaultWindow; i++ {
				p.ArmAngle(steady, model.Right)
			}
			jump := model.Frame{Pose: synth.Pose(bicep(), map[model.Limb]float64{model.Right: 100})}

			Convey("Then the reading is smoothed", func() {
				v, _ := p.ArmAngle(jump, model.Right).Value()
				So(v, ShouldEqual, 160)
			})
		})
	})
}

func TestDetectVSign(t *testing.T) {
	Convey("Given hand landmarks", t, func() {
		p := pose.NewProcessor(bicep(), nil)

		Convey("A spread V on either hand is detected", func() {
			So(p.DetectVSign(model.Frame{LeftHand: synth.VSignHand()}), ShouldBeTrue)
			So(p.DetectVSign(model.Frame{RightHand: synth.VSignHand()}), ShouldBeTrue)
		})

		Convey("Two straight but parallel fingers are not a V", func() {
			h := synth.VSignHand()
			h[model.IndexTip] = model.Landmark{X: 0.48, Y: 0.40}
			h[model.MiddleTip] = model.Landmark{X: 0.50, Y: 0.40}
			So(p.DetectVSign(model.Frame{RightHand: h}), ShouldBeFalse)
		})

		Convey("A fist is not a V", func() {
			So(p.DetectVSign(model.Frame{RightHand: synth.FistHand()}), ShouldBeFalse)
		})

		Convey("A curled ring finger is required", func() {
			h := synth.VSignHand()
			h[model.RingTip] = model.Landmark{X: 0.52, Y: 0.40}
			So(p.DetectVSign(model.Frame{RightHand: h}), ShouldBeFalse)
		})

		Convey("No hands means no V", func() {
			So(p.DetectVSign(model.Frame{}), ShouldBeFalse)
		})
	})
}
