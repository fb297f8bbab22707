// Package convert maps core localization records onto GORM models.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/model"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column, storing "[]" for empty slices.
func toJSON[T any](v []T) datatypes.JSON {
	if len(v) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(v)
	return datatypes.JSON(data)
}

// CoreToLocalizationRequest converts a finished localization into a request
// row with its targets attached.
func CoreToLocalizationRequest(l core.Localization) (model.LocalizationRequest, error) {
	cam := l.Camera
	camLoc, err := geo.Point3857(cam.GPS.Point(), cam.GPS.Alt)
	if err != nil {
		return model.LocalizationRequest{}, fmt.Errorf("camera location: %w", err)
	}
	req := model.LocalizationRequest{
		RequestID:         l.RequestID,
		ReceivedAt:        l.ReceivedAt,
		Terrain:           l.Terrain.String(),
		DeviceID:          cam.DeviceID,
		CameraLocation:    camLoc,
		CameraAltitude:    cam.GPS.Alt,
		HeightAboveGround: cam.HeightAboveGround,
		Pitch:             cam.Pose.Pitch,
		Yaw:               cam.Pose.Yaw,
		Roll:              cam.Pose.Roll,
		FocalLengthMM:     cam.Hardware.FocalLengthMM,
		SensorWidthMM:     cam.Hardware.SensorWidthMM,
		ImageWidth:        cam.Resolution.Width,
		ImageHeight:       cam.Resolution.Height,
		Distortion:        toJSON(cam.Distortion),
		Detections:        l.Detections,
		Omitted:           l.Omitted(),
		DurationMs:        float64(l.Duration.Microseconds()) / 1000,
		Targets:           make([]model.TargetEstimate, 0, len(l.Targets)),
	}

	for _, t := range l.Targets {
		te, err := CoreToTargetEstimate(t)
		if err != nil {
			return model.LocalizationRequest{}, fmt.Errorf("target %s: %w", t.TargetID, err)
		}
		req.Targets = append(req.Targets, te)
	}
	return req, nil
}

// CoreToTargetEstimate converts one target. The location and region are
// stored in EPSG:3857; the location Z carries the target altitude when the
// ranging model produced one.
func CoreToTargetEstimate(t core.Target) (model.TargetEstimate, error) {
	e := t.Estimate
	region, err := geo.Region(t.Region).Polygon3857()
	if err != nil {
		return model.TargetEstimate{}, err
	}
	loc, err := geo.Point3857(e.Position, e.Altitude)
	if err != nil {
		return model.TargetEstimate{}, err
	}

	return model.TargetEstimate{
		TargetID:      t.TargetID,
		Index:         e.Index,
		Confidence:    e.Confidence,
		BBoxX1:        e.BBox.X1,
		BBoxY1:        e.BBox.Y1,
		BBoxX2:        e.BBox.X2,
		BBoxY2:        e.BBox.Y2,
		Distance:      e.Distance,
		DistanceMin:   e.DistanceMin,
		DistanceMax:   e.DistanceMax,
		Bearing:       e.Bearing,
		RelativeAngle: e.RelativeAngle,
		Mode:          e.Mode.String(),
		Latitude:      e.Position.Lat,
		Longitude:     e.Position.Lng,
		Location:      loc,
		Region:        region,
		HasAltitude:   e.HasAltitude,
		Altitude:      e.Altitude,
		SlantDistance: e.SlantDistance,
		VerticalDrop:  e.VerticalDrop,
		Keypoints:     toJSON(e.Keypoints),
	}, nil
}
