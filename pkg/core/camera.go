// pkg/core/camera.go
package core

import (
	"fmt"
	"strings"
)

// GPS is a WGS84 position. Alt is metres above sea level.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Alt float64 `json:"alt"`
}

// Point returns the horizontal part of the fix.
func (g GPS) Point() GeoPoint {
	return GeoPoint{Lat: g.Lat, Lng: g.Lng}
}

// Pose holds the camera orientation in degrees.
// Pitch is negative when the camera looks down. Yaw is clockwise from north.
type Pose struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Hardware describes the lens and sensor.
type Hardware struct {
	FocalLengthMM float64 `json:"focal_length_mm"`
	SensorWidthMM float64 `json:"sensor_width_mm"`
}

// Resolution is the image size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CameraConfig is built once per request and treated as read-only afterwards.
type CameraConfig struct {
	DeviceID string `json:"device_id"`
	GPS      GPS    `json:"gps"`

	// HeightAboveGround is used by flat-ground ranging. Oblique ranging uses GPS.Alt instead.
	HeightAboveGround float64 `json:"height_above_ground"`

	Pose       Pose       `json:"pose"`
	Hardware   Hardware   `json:"hardware"`
	Resolution Resolution `json:"resolution"`

	// Distortion is carried through to storage but never applied.
	Distortion []float64 `json:"distortion,omitempty"`
}

// Terrain selects the ranging model.
type Terrain uint8

const (
	// TerrainFlat assumes a camera near ground level over locally planar ground.
	TerrainFlat Terrain = iota
	// TerrainOblique covers elevated cameras and uneven ground; target altitude is estimated.
	TerrainOblique
)

func (t Terrain) String() string {
	switch t {
	case TerrainFlat:
		return "flat"
	case TerrainOblique:
		return "mount"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// ParseTerrain accepts "flat", "mount" and "oblique" (case-insensitive).
func ParseTerrain(s string) (Terrain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return TerrainFlat, nil
	case "mount", "oblique":
		return TerrainOblique, nil
	default:
		return 0, fmt.Errorf("unknown terrain %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Terrain) UnmarshalText(b []byte) error {
	v, err := ParseTerrain(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
