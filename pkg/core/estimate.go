// pkg/core/estimate.go
package core

import "time"

// GeoPoint is a WGS84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RangeEstimate is the per-detection ranging output. It is produced whole or not at all.
type RangeEstimate struct {
	// Index is the detection's position in the input list.
	Index      int     `json:"index"`
	Terrain    Terrain `json:"terrain"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`

	// Distance is horizontal ground distance in metres.
	Distance    float64 `json:"distance"`
	DistanceMin float64 `json:"distance_min"`
	DistanceMax float64 `json:"distance_max"`

	// Bearing is clockwise from north in [0,360).
	Bearing float64 `json:"bearing"`
	// RelativeAngle is the signed horizontal offset from the optical axis.
	RelativeAngle float64 `json:"relative_angle"`

	Position GeoPoint `json:"position"`

	// Oblique-mode only.
	HasAltitude   bool          `json:"has_altitude"`
	Altitude      float64       `json:"altitude,omitempty"`
	SlantDistance float64       `json:"slant_distance,omitempty"`
	VerticalDrop  float64       `json:"vertical_drop,omitempty"`
	Mode          ReferenceMode `json:"mode"`
	Keypoints     []Keypoint    `json:"keypoints,omitempty"`
}

// Target pairs an estimate with its display id and uncertainty polygon.
type Target struct {
	TargetID string        `json:"target_id"`
	Estimate RangeEstimate `json:"estimate"`
	// Region vertices: near-left, near-right, far-right, far-left.
	Region [4]GeoPoint `json:"region"`
}

// Localization is everything produced for one request. Storage backends
// persist it; nothing in the ranging path reads it back.
type Localization struct {
	RequestID  string        `json:"request_id"`
	ReceivedAt time.Time     `json:"received_at"`
	Terrain    Terrain       `json:"terrain"`
	Camera     CameraConfig  `json:"camera"`
	Detections int           `json:"detections"`
	Targets    []Target      `json:"targets"`
	Duration   time.Duration `json:"duration"`
}

// Omitted is the number of detections that could not be localized.
func (l *Localization) Omitted() int {
	return l.Detections - len(l.Targets)
}
