package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&LocalizationRequest{},
	&TargetEstimate{},
}

// LocalizationRequest is one call to the localization endpoint together with
// the camera it was made for. RequestID is client supplied and may repeat.
type LocalizationRequest struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	RequestID  string    `json:"reqId" gorm:"size:64;index:idx_request_id"`
	ReceivedAt time.Time `json:"receivedAt" gorm:"index:idx_received_at"`
	Terrain    string    `json:"terrain" gorm:"size:16"`

	DeviceID          string     `json:"deviceId" gorm:"size:64;index:idx_device_id"`
	CameraLocation    geom.Point `json:"cameraLocation"`
	CameraAltitude    float64    `json:"cameraAltitude"`
	HeightAboveGround float64    `json:"heightAboveGround"`
	Pitch             float64    `json:"pitch"`
	Yaw               float64    `json:"yaw"`
	Roll              float64    `json:"roll"`
	FocalLengthMM     float64    `json:"focalLengthMm"`
	SensorWidthMM     float64    `json:"sensorWidthMm"`
	ImageWidth        int        `json:"imageWidth"`
	ImageHeight       int        `json:"imageHeight"`

	// accepted and stored, never applied
	Distortion datatypes.JSON `json:"distortion"`

	Detections int              `json:"detections"`
	Omitted    int              `json:"omitted"`
	DurationMs float64          `json:"durationMs"`
	Targets    []TargetEstimate `json:"targets" gorm:"foreignKey:LocalizationRequestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*LocalizationRequest) TableName() string {
	return "localization_requests"
}

// TargetEstimate is one localized person.
type TargetEstimate struct {
	ID                    uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	LocalizationRequestID uint   `json:"localizationRequestId" gorm:"index:idx_target_request_id"`
	TargetID              string `json:"targetId" gorm:"size:32"`
	Index                 int    `json:"index"`

	Confidence    float64 `json:"confidence"`
	BBoxX1        float64 `json:"bboxX1"`
	BBoxY1        float64 `json:"bboxY1"`
	BBoxX2        float64 `json:"bboxX2"`
	BBoxY2        float64 `json:"bboxY2"`
	Distance      float64 `json:"distance"`
	DistanceMin   float64 `json:"distanceMin"`
	DistanceMax   float64 `json:"distanceMax"`
	Bearing       float64 `json:"bearing"`
	RelativeAngle float64 `json:"relativeAngle"`
	Mode          string  `json:"mode" gorm:"size:16;index:idx_target_mode"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// EPSG:3857, Z is altitude when known
	Location geom.Point   `json:"location"`
	Region   geom.Polygon `json:"region"`

	HasAltitude   bool    `json:"hasAltitude"`
	Altitude      float64 `json:"altitude"`
	SlantDistance float64 `json:"slantDistance"`
	VerticalDrop  float64 `json:"verticalDrop"`

	Keypoints datatypes.JSON `json:"keypoints"`
}

func (*TargetEstimate) TableName() string {
	return "target_estimates"
}
