package vision

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Detection thresholds shared by the analyzer.
const (
	// MinFaceScale is the normalized face width below which the subject
	// counts as out of frame.
	MinFaceScale = 0.08
	// GazeThreshold is the absolute iris offset that counts as a
	// deviated gaze.
	GazeThreshold = 0.22
	// EarClosed is the eye-aspect-ratio boundary between open and
	// closed eyes.
	EarClosed = 0.15

	// YawMaxDegFor100 maps 90 degrees of head turn to 100%.
	YawMaxDegFor100 = 90.0
	// YawPctInfoLow..YawPctBad is the informational band: status text
	// only, no event. At YawPctBad and above the turn is actionable.
	YawPctInfoLow = 80.0
	YawPctBad     = 85.0
)

const (
	pnpMaxIterations = 60
	pnpEpsilon       = 1e-9
)

// HeadPose estimates head rotation from the 9 rigid-model landmarks using
// a pinhole camera with focal length equal to the frame width, principal
// point at the frame center and no lens distortion. Returns pitch, yaw and
// roll in degrees, or (0,0,0) when the solver fails to converge; callers
// treat that as a neutral pose, not an error.
func HeadPose(lms []Landmark, frameW, frameH int) (pitch, yaw, roll float64) {
	if len(lms) == 0 || frameW <= 0 || frameH <= 0 {
		return 0, 0, 0
	}
	for _, idx := range FacePose2D {
		if idx >= len(lms) {
			return 0, 0, 0
		}
	}

	w := float64(frameW)
	h := float64(frameH)
	focal := w
	cx := w / 2.0
	cy := h / 2.0

	imagePts := make([][2]float64, len(FacePose2D))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, idx := range FacePose2D {
		imagePts[i][0] = lms[idx].X * w
		imagePts[i][1] = lms[idx].Y * h
		minX = math.Min(minX, imagePts[i][0])
		maxX = math.Max(maxX, imagePts[i][0])
	}

	// Initial guess: frontal pose at the depth where the model's width
	// matches the observed pixel width.
	pxWidth := math.Max(maxX-minX, 1.0)
	theta := []float64{0, 0, 0, 0, 0, focal * 123.2 / pxWidth}

	rot, ok := solvePnP(theta, imagePts, focal, cx, cy)
	if !ok {
		return 0, 0, 0
	}

	sy := math.Hypot(rot.At(0, 0), rot.At(1, 0))
	pitch = degrees(math.Atan2(rot.At(2, 1), rot.At(2, 2)))
	yaw = degrees(math.Atan2(-rot.At(2, 0), sy))
	roll = degrees(math.Atan2(rot.At(1, 0), rot.At(0, 0)))
	return pitch, yaw, roll
}

// solvePnP runs damped Gauss-Newton over the 6 pose parameters (Rodrigues
// rotation vector plus translation) against the 18 reprojection residuals.
func solvePnP(theta []float64, imagePts [][2]float64, focal, cx, cy float64) (*mat.Dense, bool) {
	n := len(imagePts)
	residual := make([]float64, 2*n)
	lambda := 1e-3

	cost := reprojectionResiduals(theta, imagePts, focal, cx, cy, residual)
	if math.IsNaN(cost) {
		return nil, false
	}

	jac := mat.NewDense(2*n, 6, nil)
	perturbed := make([]float64, 6)
	resPlus := make([]float64, 2*n)
	resMinus := make([]float64, 2*n)

	for iter := 0; iter < pnpMaxIterations; iter++ {
		for j := 0; j < 6; j++ {
			step := 1e-6 * math.Max(1.0, math.Abs(theta[j]))
			copy(perturbed, theta)
			perturbed[j] += step
			reprojectionResiduals(perturbed, imagePts, focal, cx, cy, resPlus)
			perturbed[j] -= 2 * step
			reprojectionResiduals(perturbed, imagePts, focal, cx, cy, resMinus)
			for i := 0; i < 2*n; i++ {
				jac.Set(i, j, (resPlus[i]-resMinus[i])/(2*step))
			}
		}

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		for j := 0; j < 6; j++ {
			jtj.Set(j, j, jtj.At(j, j)+lambda*(1+jtj.At(j, j)))
		}

		r := mat.NewVecDense(2*n, residual)
		var jtr mat.VecDense
		jtr.MulVec(jac.T(), r)

		var delta mat.VecDense
		if err := delta.SolveVec(&jtj, &jtr); err != nil {
			return nil, false
		}

		trial := make([]float64, 6)
		for j := 0; j < 6; j++ {
			trial[j] = theta[j] - delta.AtVec(j)
		}
		trialRes := make([]float64, 2*n)
		trialCost := reprojectionResiduals(trial, imagePts, focal, cx, cy, trialRes)

		if math.IsNaN(trialCost) {
			return nil, false
		}

		if trialCost < cost {
			copy(theta, trial)
			copy(residual, trialRes)
			improved := cost - trialCost
			cost = trialCost
			lambda = math.Max(lambda*0.3, 1e-12)
			if improved < pnpEpsilon || mat.Norm(&delta, 2) < pnpEpsilon {
				break
			}
		} else {
			lambda *= 10
			if lambda > 1e8 {
				break
			}
		}
	}

	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, false
	}
	return rodrigues(theta[0], theta[1], theta[2]), true
}

// reprojectionResiduals fills res with projected-minus-observed pixel
// coordinates and returns the summed squared error.
func reprojectionResiduals(theta []float64, imagePts [][2]float64, focal, cx, cy float64, res []float64) float64 {
	rot := rodrigues(theta[0], theta[1], theta[2])
	tx, ty, tz := theta[3], theta[4], theta[5]

	cost := 0.0
	for i := range imagePts {
		m := modelPoints3D[i]
		xc := rot.At(0, 0)*m[0] + rot.At(0, 1)*m[1] + rot.At(0, 2)*m[2] + tx
		yc := rot.At(1, 0)*m[0] + rot.At(1, 1)*m[1] + rot.At(1, 2)*m[2] + ty
		zc := rot.At(2, 0)*m[0] + rot.At(2, 1)*m[1] + rot.At(2, 2)*m[2] + tz
		if zc < 1e-6 {
			zc = 1e-6
		}
		u := focal*xc/zc + cx
		v := focal*yc/zc + cy
		res[2*i] = u - imagePts[i][0]
		res[2*i+1] = v - imagePts[i][1]
		cost += res[2*i]*res[2*i] + res[2*i+1]*res[2*i+1]
	}
	return cost
}

// rodrigues converts a rotation vector to its 3x3 rotation matrix.
func rodrigues(rx, ry, rz float64) *mat.Dense {
	angle := math.Sqrt(rx*rx + ry*ry + rz*rz)
	rot := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if angle < 1e-12 {
		return rot
	}

	kx, ky, kz := rx/angle, ry/angle, rz/angle
	c := math.Cos(angle)
	s := math.Sin(angle)
	oc := 1 - c

	rot.Set(0, 0, c+kx*kx*oc)
	rot.Set(0, 1, kx*ky*oc-kz*s)
	rot.Set(0, 2, kx*kz*oc+ky*s)
	rot.Set(1, 0, ky*kx*oc+kz*s)
	rot.Set(1, 1, c+ky*ky*oc)
	rot.Set(1, 2, ky*kz*oc-kx*s)
	rot.Set(2, 0, kz*kx*oc-ky*s)
	rot.Set(2, 1, kz*ky*oc+kx*s)
	rot.Set(2, 2, c+kz*kz*oc)
	return rot
}

// EyeAspectRatio is the ratio of the two vertical eyelid distances to the
// horizontal eye width for the 6-point eye contour in indices. Returns 0
// when the eye width is degenerate.
func EyeAspectRatio(lms []Landmark, indices []int) float64 {
	if len(indices) != 6 {
		return 0
	}
	for _, idx := range indices {
		if idx >= len(lms) {
			return 0
		}
	}

	v1 := dist2D(lms[indices[1]], lms[indices[5]])
	v2 := dist2D(lms[indices[2]], lms[indices[4]])
	h := dist2D(lms[indices[0]], lms[indices[3]])
	if h <= 1e-6 {
		return 0
	}
	return (v1 + v2) / (2.0 * h)
}

// GazeOffset is the signed horizontal iris offset averaged over both eyes,
// normalized by eye width. Positive means the gaze points to the subject's
// right. Returns 0 when the set carries no iris landmarks.
func GazeOffset(lms []Landmark) float64 {
	if len(lms) < MeshLandmarkCount {
		return 0
	}

	leftOff := (centerX(lms, LeftIris) - centerX(lms, LeftEye)) / widthX(lms, LeftEye)
	rightOff := (centerX(lms, RightIris) - centerX(lms, RightEye)) / widthX(lms, RightEye)
	return (leftOff + rightOff) / 2.0
}

// FaceWidthNorm is the horizontal landmark spread; landmarks are already
// normalized so the result is a fraction of the frame width.
func FaceWidthNorm(lms []Landmark) float64 {
	if len(lms) == 0 {
		return 0
	}
	minX, maxX := lms[0].X, lms[0].X
	for _, lm := range lms[1:] {
		minX = math.Min(minX, lm.X)
		maxX = math.Max(maxX, lm.X)
	}
	return maxX - minX
}

// YawToPercent maps |yaw| in degrees linearly onto [0,100], clamped.
func YawToPercent(absYawDeg float64) float64 {
	pct := absYawDeg / YawMaxDegFor100 * 100.0
	return math.Max(0.0, math.Min(100.0, pct))
}

func centerX(lms []Landmark, indices []int) float64 {
	sum := 0.0
	for _, idx := range indices {
		sum += lms[idx].X
	}
	return sum / float64(len(indices))
}

func widthX(lms []Landmark, indices []int) float64 {
	minX, maxX := lms[indices[0]].X, lms[indices[0]].X
	for _, idx := range indices[1:] {
		minX = math.Min(minX, lms[idx].X)
		maxX = math.Max(maxX, lms[idx].X)
	}
	if maxX-minX < 1e-6 {
		return 1e-6
	}
	return maxX - minX
}

func dist2D(a, b Landmark) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
