package vision

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	testFrameW = 640
	testFrameH = 480
	testDepth  = 500.0
)

// projectPose builds a full landmark set whose pose-model points are the
// perspective projection of the rigid model under the given rotation
// vector, so HeadPose should recover the corresponding angles.
func projectPose(rx, ry, rz float64) []Landmark {
	rot := rodrigues(rx, ry, rz)
	focal := float64(testFrameW)
	cx := float64(testFrameW) / 2.0
	cy := float64(testFrameH) / 2.0

	lms := make([]Landmark, MeshLandmarkCount)
	for i, idx := range FacePose2D {
		m := modelPoints3D[i]
		xc := rot.At(0, 0)*m[0] + rot.At(0, 1)*m[1] + rot.At(0, 2)*m[2]
		yc := rot.At(1, 0)*m[0] + rot.At(1, 1)*m[1] + rot.At(1, 2)*m[2]
		zc := rot.At(2, 0)*m[0] + rot.At(2, 1)*m[1] + rot.At(2, 2)*m[2] + testDepth

		u := focal*xc/zc + cx
		v := focal*yc/zc + cy
		lms[idx] = Landmark{X: u / float64(testFrameW), Y: v / float64(testFrameH)}
	}
	return lms
}

func TestHeadPose(t *testing.T) {
	Convey("Given landmarks projected from a frontal pose", t, func() {
		lms := projectPose(0, 0, 0)

		Convey("When estimating the head pose", func() {
			pitch, yaw, roll := HeadPose(lms, testFrameW, testFrameH)

			Convey("Then all angles should be close to zero", func() {
				So(math.Abs(pitch), ShouldBeLessThan, 3.0)
				So(math.Abs(yaw), ShouldBeLessThan, 3.0)
				So(math.Abs(roll), ShouldBeLessThan, 3.0)
			})
		})
	})

	Convey("Given landmarks projected from a head turned 20 degrees", t, func() {
		angle := 20.0 * math.Pi / 180.0
		lms := projectPose(0, angle, 0)

		Convey("When estimating the head pose", func() {
			_, yaw, _ := HeadPose(lms, testFrameW, testFrameH)

			Convey("Then the recovered yaw should be near 20 degrees", func() {
				So(yaw, ShouldBeBetween, 14.0, 26.0)
			})
		})
	})

	Convey("Given no landmarks", t, func() {
		pitch, yaw, roll := HeadPose(nil, testFrameW, testFrameH)

		Convey("Then the neutral fallback pose is returned", func() {
			So(pitch, ShouldEqual, 0)
			So(yaw, ShouldEqual, 0)
			So(roll, ShouldEqual, 0)
		})
	})
}

func TestEyeAspectRatio(t *testing.T) {
	Convey("Given an eye contour with degenerate width", t, func() {
		lms := make([]Landmark, MeshLandmarkCount)
		for _, idx := range LeftEye {
			lms[idx] = Landmark{X: 0.5, Y: 0.5}
		}

		Convey("Then the ratio is zero, never NaN", func() {
			ear := EyeAspectRatio(lms, LeftEye)
			So(ear, ShouldEqual, 0)
			So(math.IsNaN(ear), ShouldBeFalse)
		})
	})

	Convey("Given an open eye contour", t, func() {
		lms := make([]Landmark, MeshLandmarkCount)
		lms[LeftEye[0]] = Landmark{X: 0.40, Y: 0.50}
		lms[LeftEye[3]] = Landmark{X: 0.45, Y: 0.50}
		lms[LeftEye[1]] = Landmark{X: 0.42, Y: 0.49}
		lms[LeftEye[5]] = Landmark{X: 0.42, Y: 0.515}
		lms[LeftEye[2]] = Landmark{X: 0.43, Y: 0.49}
		lms[LeftEye[4]] = Landmark{X: 0.43, Y: 0.515}

		Convey("Then the ratio reflects the eyelid opening", func() {
			ear := EyeAspectRatio(lms, LeftEye)
			So(ear, ShouldBeGreaterThan, EarClosed)
		})
	})

	Convey("Given a wrong number of indices", t, func() {
		So(EyeAspectRatio(make([]Landmark, MeshLandmarkCount), []int{1, 2, 3}), ShouldEqual, 0)
	})
}

func TestYawToPercent(t *testing.T) {
	Convey("Given yaw angles across the mapping range", t, func() {
		Convey("Then zero maps to zero", func() {
			So(YawToPercent(0), ShouldEqual, 0)
		})
		Convey("Then 45 degrees maps to 50 percent", func() {
			So(YawToPercent(45), ShouldEqual, 50)
		})
		Convey("Then 90 degrees maps to 100 percent", func() {
			So(YawToPercent(90), ShouldEqual, 100)
		})
		Convey("Then values past 90 clamp at 100", func() {
			So(YawToPercent(130), ShouldEqual, 100)
		})
	})
}

func TestGazeOffset(t *testing.T) {
	Convey("Given a landmark set without iris points", t, func() {
		lms := make([]Landmark, 200)

		Convey("Then the offset is zero", func() {
			So(GazeOffset(lms), ShouldEqual, 0)
		})
	})

	Convey("Given centered irises", t, func() {
		lms := make([]Landmark, MeshLandmarkCount)
		fillEye(lms, LeftEye, 0.40, 0.50)
		fillEye(lms, RightEye, 0.55, 0.50)
		fillIris(lms, LeftIris, 0.425, 0.50)
		fillIris(lms, RightIris, 0.575, 0.50)

		Convey("Then the offset is near zero", func() {
			So(math.Abs(GazeOffset(lms)), ShouldBeLessThan, 0.01)
		})
	})

	Convey("Given irises shifted toward the right", t, func() {
		lms := make([]Landmark, MeshLandmarkCount)
		fillEye(lms, LeftEye, 0.40, 0.50)
		fillEye(lms, RightEye, 0.55, 0.50)
		fillIris(lms, LeftIris, 0.445, 0.50)
		fillIris(lms, RightIris, 0.595, 0.50)

		Convey("Then the offset is positive and past the gaze threshold", func() {
			offset := GazeOffset(lms)
			So(offset, ShouldBeGreaterThan, GazeThreshold)
		})
	})
}

func TestFaceWidthNorm(t *testing.T) {
	Convey("Given landmarks spread over a fifth of the frame", t, func() {
		lms := []Landmark{{X: 0.4}, {X: 0.5}, {X: 0.6}}

		Convey("Then the width is the horizontal spread", func() {
			So(FaceWidthNorm(lms), ShouldAlmostEqual, 0.2, 1e-9)
		})
	})

	Convey("Given no landmarks", t, func() {
		So(FaceWidthNorm(nil), ShouldEqual, 0)
	})
}

// fillEye places a 6-point eye contour spanning 0.05 of the frame width
// centered vertically at y.
func fillEye(lms []Landmark, indices []int, startX, y float64) {
	lms[indices[0]] = Landmark{X: startX, Y: y}
	lms[indices[3]] = Landmark{X: startX + 0.05, Y: y}
	lms[indices[1]] = Landmark{X: startX + 0.015, Y: y - 0.01}
	lms[indices[5]] = Landmark{X: startX + 0.015, Y: y + 0.01}
	lms[indices[2]] = Landmark{X: startX + 0.035, Y: y - 0.01}
	lms[indices[4]] = Landmark{X: startX + 0.035, Y: y + 0.01}
}

func fillIris(lms []Landmark, indices []int, x, y float64) {
	for _, idx := range indices {
		lms[idx] = Landmark{X: x, Y: y}
	}
}
