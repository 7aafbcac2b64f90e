package vision

// Landmark is one normalized facial keypoint as produced by the landmark
// sidecar: x and y in [0,1] relative to the frame, z a synthetic depth.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Index sets into the 478-point refined face mesh.
var (
	LeftEye   = []int{33, 160, 158, 133, 153, 144}
	RightEye  = []int{362, 385, 387, 263, 373, 380}
	LeftIris  = []int{474, 475, 476, 477}
	RightIris = []int{469, 470, 471, 472}

	// FacePose2D are the landmarks matched against the rigid 3D face
	// model when solving head pose: nose tip, chin, eye corners, mouth
	// corners and cheek points.
	FacePose2D = []int{1, 152, 263, 33, 287, 57, 61, 291, 199}
)

// modelPoints3D is the rigid 9-point face model (millimetres, nose tip at
// the origin) paired index-for-index with FacePose2D.
var modelPoints3D = [9][3]float64{
	{0.0, 0.0, 0.0},
	{0.0, -63.6, -12.5},
	{-43.3, 32.7, -26.0},
	{43.3, 32.7, -26.0},
	{-28.9, -28.9, -24.1},
	{28.9, -28.9, -24.1},
	{-61.6, -11.2, -39.5},
	{61.6, -11.2, -39.5},
	{0.0, -48.0, -50.0},
}

// MeshLandmarkCount is the size of a refined landmark set (iris points
// included). Sets smaller than this cannot provide gaze metrics.
const MeshLandmarkCount = 478
