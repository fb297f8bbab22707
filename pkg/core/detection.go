// pkg/core/detection.go
package core

// COCO 17-point keypoint layout. Any pose estimator feeding this module must
// be remapped onto these indices.
const (
	KeypointNose = iota
	KeypointLeftEye
	KeypointRightEye
	KeypointLeftEar
	KeypointRightEar
	KeypointLeftShoulder
	KeypointRightShoulder
	KeypointLeftElbow
	KeypointRightElbow
	KeypointLeftWrist
	KeypointRightWrist
	KeypointLeftHip
	KeypointRightHip
	KeypointLeftKnee
	KeypointRightKnee
	KeypointLeftAnkle
	KeypointRightAnkle

	NumKeypoints
)

// BBox is an axis-aligned box in pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// BBoxFromXYWH converts a top-left corner plus size into a BBox.
func BBoxFromXYWH(x, y, w, h float64) BBox {
	return BBox{X1: x, Y1: y, X2: x + w, Y2: y + h}
}

// Width returns X2-X1.
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Foot returns the ground contact point: horizontal centre of the bottom edge.
func (b BBox) Foot() (u, v float64) {
	return (b.X1 + b.X2) / 2, b.Y2
}

// Keypoint is one skeleton joint. Visibility is the estimator's confidence in [0,1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Detection is a single person found by the external detector.
type Detection struct {
	BBox       BBox       `json:"bbox"`
	Confidence float64    `json:"confidence"`
	Keypoints  []Keypoint `json:"keypoints,omitempty"`
}
