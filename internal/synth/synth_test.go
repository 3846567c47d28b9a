package synth_test

import (
	"testing"
	"time"

	"github.com/okian/repcoach/internal/domain/angle"
	"github.com/okian/repcoach/internal/domain/model"
	"github.com/okian/repcoach/internal/domain/profile"
	"github.com/okian/repcoach/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPose(t *testing.T) {
	Convey("Given every preset", t, func() {
		for _, p := range profile.Presets() {
			Convey("When "+p.Name+" is posed at several angles", func() {
				for _, deg := range []float64{0, 35, 90, 142.5, 180} {
					pose := synth.Pose(p, map[model.Limb]float64{model.Right: deg, model.Left: deg})

					for _, limb := range model.Limbs {
						tr := p.Triplet(limb)
						got := angle.Between(pose[tr.A], pose[tr.B], pose[tr.C])
						So(got, ShouldAlmostEqual, deg, 1e-9)
					}
				}
			})
		}
	})
}

func TestStream(t *testing.T) {
	Convey("Given a generator", t, func() {
		p := profile.Presets()[0]
		start := time.Unix(100, 0)
		g := synth.NewGenerator(p, synth.WithFPS(10), synth.WithStart(start))

		Convey("When a ramp is rendered", func() {
			out := g.Stream(synth.Ramp(160, 40, time.Second))

			Convey("Then it spans the segment evenly", func() {
				So(len(out), ShouldEqual, 10)
				So(out[0].Angle, ShouldEqual, 160)
				So(out[9].Angle, ShouldEqual, 40)
				So(out[0].At, ShouldEqual, start)
				So(out[9].At.Sub(start), ShouldEqual, 900*time.Millisecond)
			})

			Convey("Then the next stream continues the clock", func() {
				next := g.Stream(synth.Hidden(200 * time.Millisecond))
				So(next[0].At.Sub(start), ShouldEqual, time.Second)
				So(next[0].Frame.HasPose(), ShouldBeFalse)
			})
		})

		Convey("When a segment is restricted to one limb", func() {
			out := g.Stream(synth.Hold(90, 100*time.Millisecond).Only(model.Left))

			Convey("Then the other limb's end point is invisible", func() {
				f := out[0].Frame
				So(f.Validate(), ShouldBeNil)
				So(f.Point(model.RightWrist).Visibility, ShouldEqual, 0)
				So(f.Point(model.LeftWrist).Visibility, ShouldEqual, 1)
			})
		})

		Convey("When a rep sequence is built", func() {
			segs := synth.Reps(3, 40, 160, 2*time.Second)

			Convey("Then it holds, cycles and holds", func() {
				So(len(segs), ShouldEqual, 8)
				So(segs[1].From, ShouldEqual, 160)
				So(segs[1].To, ShouldEqual, 40)
			})
		})
	})
}
