package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/repcoach/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fullPose() []model.Landmark {
	pose := make([]model.Landmark, model.PoseLandmarkCount)
	for i := range pose {
		pose[i] = model.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	return pose
}

func TestFrameValidate(t *testing.T) {
	Convey("Given frames at the boundary", t, func() {
		Convey("When the frame carries no pose", func() {
			f := model.Frame{}

			Convey("Then it is valid and reports no pose", func() {
				So(f.Validate(), ShouldBeNil)
				So(f.HasPose(), ShouldBeFalse)
			})
		})

		Convey("When the frame carries a full pose", func() {
			f := model.Frame{Pose: fullPose()}
			f.Pose[model.LeftWrist] = model.Landmark{X: 0.1, Y: 0.2, Visibility: 0.9}

			Convey("Then named access resolves the right landmark", func() {
				So(f.Validate(), ShouldBeNil)
				So(f.Point(model.LeftWrist).X, ShouldEqual, 0.1)
				So(f.Point(model.LeftWrist).Y, ShouldEqual, 0.2)
			})
		})

		Convey("When the pose is truncated", func() {
			f := model.Frame{Pose: fullPose()[:12]}

			Convey("Then validation fails", func() {
				err := f.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrInvalidFrame), ShouldBeTrue)
			})
		})

		Convey("When a coordinate is NaN", func() {
			f := model.Frame{Pose: fullPose()}
			f.Pose[model.Nose].Y = math.NaN()

			Convey("Then validation fails", func() {
				So(errors.Is(f.Validate(), model.ErrInvalidFrame), ShouldBeTrue)
			})
		})

		Convey("When a hand coordinate is infinite", func() {
			h := &model.Hand{}
			h[model.IndexTip].X = math.Inf(1)
			f := model.Frame{RightHand: h}

			Convey("Then validation fails", func() {
				So(errors.Is(f.Validate(), model.ErrInvalidFrame), ShouldBeTrue)
			})
		})
	})
}

func TestReading(t *testing.T) {
	Convey("Given readings", t, func() {
		Convey("Found carries its angle", func() {
			a, ok := model.Found(120).Value()
			So(ok, ShouldBeTrue)
			So(a, ShouldEqual, 120)
		})

		Convey("Lost carries no angle", func() {
			r := model.Lost()
			_, ok := r.Value()
			So(ok, ShouldBeFalse)
			So(r.IsLost(), ShouldBeTrue)
		})

		Convey("Limbs are distinct and valid", func() {
			So(model.Right.Valid(), ShouldBeTrue)
			So(model.Left.Valid(), ShouldBeTrue)
			So(model.Limb("UP").Valid(), ShouldBeFalse)
			So(model.Limbs[0], ShouldNotEqual, model.Limbs[1])
		})
	})
}
