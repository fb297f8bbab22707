package ranging

import (
	"fmt"
	"math"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// intrinsics is the pinhole model derived from physical lens parameters.
// Pixels are assumed square and the principal point centred.
type intrinsics struct {
	fx, fy float64
	cx, cy float64
}

func newIntrinsics(cam core.CameraConfig) (intrinsics, error) {
	if cam.Hardware.SensorWidthMM <= 0 {
		return intrinsics{}, fmt.Errorf("%w: device %q: sensor width %.3fmm must be positive",
			ErrConfiguration, cam.DeviceID, cam.Hardware.SensorWidthMM)
	}
	fx := cam.Hardware.FocalLengthMM * float64(cam.Resolution.Width) / cam.Hardware.SensorWidthMM
	return intrinsics{
		fx: fx,
		fy: fx,
		cx: float64(cam.Resolution.Width) / 2,
		cy: float64(cam.Resolution.Height) / 2,
	}, nil
}

// ray is the line of sight from the camera to a detection's foot point.
type ray struct {
	// phi is the depression below the horizon in radians, positive downward.
	phi           float64
	relativeAngle float64
	bearing       float64
}

func (e *Estimator) castRay(cam core.CameraConfig, k intrinsics, b core.BBox) (ray, error) {
	u, v := b.Foot()
	alphaV := math.Atan((v - k.cy) / k.fy)
	alphaH := math.Atan((u - k.cx) / k.fx)

	phi := -cam.Pose.Pitch*math.Pi/180 + alphaV
	if phi <= e.opts.DepressionFloor {
		return ray{}, fmt.Errorf("%w: depression %.4f rad", ErrGeometryInfeasible, phi)
	}

	rel := alphaH * 180 / math.Pi
	return ray{
		phi:           phi,
		relativeAngle: rel,
		bearing:       geo.NormalizeBearing(cam.Pose.Yaw + rel),
	}, nil
}
