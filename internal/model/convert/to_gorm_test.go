package convert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocalization() core.Localization {
	origin := core.GeoPoint{Lat: 22.54321, Lng: 114.05755}
	est := core.RangeEstimate{
		Index:         1,
		Terrain:       core.TerrainOblique,
		BBox:          core.BBox{X1: 900, Y1: 400, X2: 960, Y2: 600},
		Confidence:    0.91,
		Distance:      42.5,
		DistanceMin:   40,
		DistanceMax:   45,
		Bearing:       38.2,
		RelativeAngle: 2.2,
		Position:      geo.WGS84.Project(origin, 38.2, 42.5),
		HasAltitude:   true,
		Altitude:      3.4,
		SlantDistance: 44.1,
		VerticalDrop:  11.6,
		Mode:          core.ModeTorsoFull,
		Keypoints:     []core.Keypoint{{X: 930, Y: 420, Visibility: 0.9}},
	}
	return core.Localization{
		RequestID:  "req-1",
		ReceivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Terrain:    core.TerrainOblique,
		Camera: core.CameraConfig{
			DeviceID:          "cam_01",
			GPS:               core.GPS{Lat: origin.Lat, Lng: origin.Lng, Alt: 15},
			HeightAboveGround: 3.5,
			Pose:              core.Pose{Pitch: -15, Yaw: 36},
			Hardware:          core.Hardware{FocalLengthMM: 6, SensorWidthMM: 5.37},
			Resolution:        core.Resolution{Width: 1920, Height: 1080},
		},
		Detections: 3,
		Targets: []core.Target{{
			TargetID: "person_02",
			Estimate: est,
			Region:   geo.BuildRegion(geo.WGS84, origin, est.Bearing, est.DistanceMin, est.DistanceMax, geo.DefaultHalfWidth),
		}},
		Duration: 1500 * time.Microsecond,
	}
}

func TestCoreToLocalizationRequest(t *testing.T) {
	req, err := CoreToLocalizationRequest(testLocalization())
	require.NoError(t, err)

	assert.Equal(t, "req-1", req.RequestID)
	assert.Equal(t, "mount", req.Terrain)
	assert.Equal(t, "cam_01", req.DeviceID)
	assert.Equal(t, 3, req.Detections)
	assert.Equal(t, 2, req.Omitted)
	assert.InDelta(t, 1.5, req.DurationMs, 1e-9)
	assert.Equal(t, 1920, req.ImageWidth)
	assert.JSONEq(t, "[]", string(req.Distortion))

	coord, ok := req.CameraLocation.Coordinates()
	require.True(t, ok)
	x, y := geo.ToWebMercator(core.GeoPoint{Lat: 22.54321, Lng: 114.05755})
	assert.InDelta(t, x, coord.XY.X, 1e-6)
	assert.InDelta(t, y, coord.XY.Y, 1e-6)
	assert.Equal(t, 15.0, coord.Z)

	require.Len(t, req.Targets, 1)
}

func TestCoreToTargetEstimate(t *testing.T) {
	loc := testLocalization()
	te, err := CoreToTargetEstimate(loc.Targets[0])
	require.NoError(t, err)

	assert.Equal(t, "person_02", te.TargetID)
	assert.Equal(t, 1, te.Index)
	assert.Equal(t, "Torso_Full", te.Mode)
	assert.Equal(t, 42.5, te.Distance)
	assert.True(t, te.HasAltitude)

	coord, ok := te.Location.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 3.4, coord.Z, 1e-9)

	ring := te.Region.ExteriorRing().Coordinates()
	assert.Equal(t, 5, ring.Length())
	assert.Greater(t, te.Region.Area(), 0.0)

	var kps []core.Keypoint
	require.NoError(t, json.Unmarshal(te.Keypoints, &kps))
	assert.Equal(t, loc.Targets[0].Estimate.Keypoints, kps)
}

func TestCoreToTargetEstimate_DegenerateRegion(t *testing.T) {
	loc := testLocalization()
	p := loc.Targets[0].Estimate.Position
	loc.Targets[0].Region = [4]core.GeoPoint{p, p, p, p}

	_, err := CoreToLocalizationRequest(loc)
	assert.ErrorContains(t, err, "person_02")
	assert.ErrorContains(t, err, "invalid uncertainty region")

	_, err = CoreToTargetEstimate(loc.Targets[0])
	assert.ErrorContains(t, err, "invalid uncertainty region")
}

func TestCoreToLocalizationRequest_BadCameraFix(t *testing.T) {
	loc := testLocalization()
	loc.Camera.GPS.Lat = math.NaN()

	_, err := CoreToLocalizationRequest(loc)
	assert.ErrorContains(t, err, "camera location")
}

func TestCoreToTargetEstimate_NoKeypoints(t *testing.T) {
	loc := testLocalization()
	loc.Targets[0].Estimate.Keypoints = nil

	te, err := CoreToTargetEstimate(loc.Targets[0])
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(te.Keypoints))
}
