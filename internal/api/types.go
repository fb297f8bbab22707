// internal/api/types.go
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// LocalizePath is the localization endpoint.
const LocalizePath = "/api/v1/perception/suspect_localization"

// LocalizationRequest is the request body of LocalizePath.
type LocalizationRequest struct {
	ReqID      string        `json:"req_id,omitempty"`
	Terrain    string        `json:"terrain,omitempty"`
	Timestamp  string        `json:"timestamp,omitempty"`
	CameraInfo CameraInfo    `json:"camera_info"`
	Targets    []TargetInput `json:"targets"`
}

// CameraInfo describes the camera that produced the frame.
type CameraInfo struct {
	DeviceID   string     `json:"device_id"`
	Extrinsics Extrinsics `json:"extrinsics"`
	Intrinsics Intrinsics `json:"intrinsics"`
}

// Extrinsics is where the camera is and where it points.
type Extrinsics struct {
	GPS               core.GPS  `json:"gps"`
	HeightAboveGround float64   `json:"height_above_ground"`
	Pose              core.Pose `json:"pose"`
}

// Intrinsics is the lens, sensor and image geometry.
type Intrinsics struct {
	ImageResolution  core.Resolution `json:"image_resolution"`
	HardwareSpecs    core.Hardware   `json:"hardware_specs"`
	DistortionCoeffs []float64       `json:"distortion_coeffs,omitempty"`
}

// BBoxXYWH is a top-left corner plus size.
type BBoxXYWH struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// TargetInput is one detection. Either BBox or BBoxXYXY must be set;
// keypoints are [x, y, visibility] triples in COCO order.
type TargetInput struct {
	TargetID   string      `json:"target_id,omitempty"`
	BBox       *BBoxXYWH   `json:"bbox,omitempty"`
	BBoxXYXY   []float64   `json:"bbox_xyxy,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Keypoints  [][]float64 `json:"keypoints,omitempty"`
}

// LocalizationResponse is the envelope every endpoint answers with.
type LocalizationResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *ResponseData `json:"data"`
}

// ResponseData holds the results of one request.
type ResponseData struct {
	ReqID   string          `json:"req_id"`
	Results []SuspectResult `json:"results"`
}

// GeoLocation is a target position; Alt is 0 when the terrain model does
// not estimate altitude.
type GeoLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Alt float64 `json:"alt"`
}

// SuspectResult is one localized person.
type SuspectResult struct {
	TargetID             string             `json:"target_id"`
	SuspectGeoLocation   GeoLocation        `json:"suspect_geo_location"`
	Confidence           float64            `json:"confidence"`
	SuspectRegionPolygon []core.GeoPoint    `json:"suspect_region_polygon"`
	ReferenceMode        string             `json:"reference_mode"`
	ComputationDetails   ComputationDetails `json:"computation_details"`
}

// ComputationDetails exposes the intermediate ranging values.
type ComputationDetails struct {
	CalculatedDepth  float64 `json:"calculated_depth"`
	StraightDistance float64 `json:"straight_distance"`
	BearingAngle     float64 `json:"bearing_angle"`
	RelativeAngle    float64 `json:"relative_angle"`
	DistanceMin      float64 `json:"distance_min"`
	DistanceMax      float64 `json:"distance_max"`
}

// ErrBadRequest marks request validation failures.
var ErrBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// ToRequest validates the body and converts it for the localizer.
func (r LocalizationRequest) ToRequest(now time.Time) (localize.Request, error) {
	terrain := core.TerrainOblique
	if r.Terrain != "" {
		t, err := core.ParseTerrain(r.Terrain)
		if err != nil {
			return localize.Request{}, badRequest("%v", err)
		}
		terrain = t
	}

	received := now
	if r.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return localize.Request{}, badRequest("invalid timestamp %q", r.Timestamp)
		}
		received = ts
	}

	res := r.CameraInfo.Intrinsics.ImageResolution
	if res.Width <= 0 || res.Height <= 0 {
		return localize.Request{}, badRequest("image_resolution must be positive, got %dx%d", res.Width, res.Height)
	}

	reqID := r.ReqID
	if reqID == "" {
		reqID = uuid.NewString()
	}

	dets := make([]core.Detection, len(r.Targets))
	for i, t := range r.Targets {
		det, err := t.toDetection()
		if err != nil {
			return localize.Request{}, badRequest("targets[%d]: %v", i, err)
		}
		dets[i] = det
	}

	ext, in := r.CameraInfo.Extrinsics, r.CameraInfo.Intrinsics
	return localize.Request{
		RequestID:  reqID,
		ReceivedAt: received,
		Terrain:    terrain,
		Camera: core.CameraConfig{
			DeviceID:          r.CameraInfo.DeviceID,
			GPS:               ext.GPS,
			HeightAboveGround: ext.HeightAboveGround,
			Pose:              ext.Pose,
			Hardware:          in.HardwareSpecs,
			Resolution:        in.ImageResolution,
			Distortion:        in.DistortionCoeffs,
		},
		Detections: dets,
	}, nil
}

func (t TargetInput) toDetection() (core.Detection, error) {
	det := core.Detection{Confidence: t.Confidence}

	switch {
	case len(t.BBoxXYXY) > 0:
		if len(t.BBoxXYXY) != 4 {
			return det, fmt.Errorf("bbox_xyxy needs 4 values, got %d", len(t.BBoxXYXY))
		}
		b := t.BBoxXYXY
		det.BBox = core.BBox{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]}
	case t.BBox != nil:
		det.BBox = core.BBoxFromXYWH(t.BBox.X, t.BBox.Y, t.BBox.W, t.BBox.H)
	default:
		return det, errors.New("bbox or bbox_xyxy is required")
	}

	if len(t.Keypoints) > 0 {
		det.Keypoints = make([]core.Keypoint, len(t.Keypoints))
		for i, kp := range t.Keypoints {
			if len(kp) != 3 {
				return det, fmt.Errorf("keypoint %d needs [x, y, visibility]", i)
			}
			det.Keypoints[i] = core.Keypoint{X: kp[0], Y: kp[1], Visibility: kp[2]}
		}
	}
	return det, nil
}

// NewResponseData renders a localization for the wire.
func NewResponseData(loc *core.Localization) *ResponseData {
	data := &ResponseData{
		ReqID:   loc.RequestID,
		Results: make([]SuspectResult, 0, len(loc.Targets)),
	}
	for _, t := range loc.Targets {
		e := t.Estimate
		straight := e.Distance
		if e.HasAltitude {
			straight = e.SlantDistance
		}
		data.Results = append(data.Results, SuspectResult{
			TargetID: t.TargetID,
			SuspectGeoLocation: GeoLocation{
				Lat: e.Position.Lat,
				Lng: e.Position.Lng,
				Alt: e.Altitude,
			},
			Confidence:           e.Confidence,
			SuspectRegionPolygon: t.Region[:],
			ReferenceMode:        e.Mode.String(),
			ComputationDetails: ComputationDetails{
				CalculatedDepth:  e.Distance,
				StraightDistance: straight,
				BearingAngle:     e.Bearing,
				RelativeAngle:    e.RelativeAngle,
				DistanceMin:      e.DistanceMin,
				DistanceMax:      e.DistanceMax,
			},
		})
	}
	return data
}
