// Package ranging turns a person detection into a metric distance, bearing and,
// for oblique views, an altitude estimate, from a single calibrated camera.
package ranging

import (
	"errors"
	"fmt"
	"math"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/anatomy"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

var (
	// ErrConfiguration means the camera config cannot produce any estimate.
	ErrConfiguration = errors.New("invalid camera configuration")
	// ErrGeometryInfeasible means the line of sight to the foot point does
	// not meet the ground. The target is omitted, not reported as a failure.
	ErrGeometryInfeasible = errors.New("line of sight does not intersect the ground")
)

// HeightPrior is the assumed standing height of a person in metres.
type HeightPrior struct {
	Min     float64
	Nominal float64
	Max     float64
}

// DefaultHeightPrior is 1.7 m with a ±0.1 m spread.
func DefaultHeightPrior() HeightPrior {
	return HeightPrior{Min: 1.6, Nominal: anatomy.StandingHeight, Max: 1.8}
}

func (h HeightPrior) valid() bool {
	return h.Min > 0 && h.Min <= h.Nominal && h.Nominal <= h.Max
}

// Options tune the estimator. Zero fields take their defaults in New.
type Options struct {
	Height HeightPrior
	// DepressionFloor in radians; rays at or above it are treated as missing the ground.
	DepressionFloor float64
	// MinKeypointConfidence is passed to the anatomical selector.
	MinKeypointConfidence float64
	// MinSkeletonKeypoints is the keypoint count that enables skeleton ranging.
	MinSkeletonKeypoints int
	Projector            geo.Projector
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		Height:                DefaultHeightPrior(),
		DepressionFloor:       0.05,
		MinKeypointConfidence: anatomy.DefaultMinConfidence,
		MinSkeletonKeypoints:  12,
		Projector:             geo.WGS84,
	}
}

// Estimator ranges detections. It holds only immutable options and is safe
// for concurrent use.
type Estimator struct {
	opts Options
}

// New creates an estimator, filling unset options from DefaultOptions.
func New(opts Options) *Estimator {
	def := DefaultOptions()
	if !opts.Height.valid() {
		opts.Height = def.Height
	}
	if opts.DepressionFloor == 0 {
		opts.DepressionFloor = def.DepressionFloor
	}
	if opts.MinKeypointConfidence == 0 {
		opts.MinKeypointConfidence = def.MinKeypointConfidence
	}
	if opts.MinSkeletonKeypoints == 0 {
		opts.MinSkeletonKeypoints = def.MinSkeletonKeypoints
	}
	if opts.Projector == nil {
		opts.Projector = def.Projector
	}
	return &Estimator{opts: opts}
}

// Options returns the effective options.
func (e *Estimator) Options() Options { return e.opts }

// Validate checks the parts of a camera config every estimate depends on.
func (e *Estimator) Validate(cam core.CameraConfig) error {
	_, err := newIntrinsics(cam)
	return err
}

// Estimate dispatches on terrain.
func (e *Estimator) Estimate(terrain core.Terrain, cam core.CameraConfig, index int, det core.Detection) (core.RangeEstimate, error) {
	switch terrain {
	case core.TerrainFlat:
		return e.Flat(cam, index, det)
	case core.TerrainOblique:
		return e.Oblique(cam, index, det)
	default:
		return core.RangeEstimate{}, fmt.Errorf("unsupported terrain %d", terrain)
	}
}

// Flat ranges a person standing on level ground at the camera's base. The
// distance comes from intersecting the foot ray with the ground plane; the
// height prior only shapes the interval around it.
func (e *Estimator) Flat(cam core.CameraConfig, index int, det core.Detection) (core.RangeEstimate, error) {
	k, err := newIntrinsics(cam)
	if err != nil {
		return core.RangeEstimate{}, err
	}
	r, err := e.castRay(cam, k, det.BBox)
	if err != nil {
		return core.RangeEstimate{}, err
	}

	dist := cam.HeightAboveGround / math.Tan(r.phi)

	hPx := det.BBox.Height()
	if hPx <= 0 {
		hPx = 1
	}
	cosPhi := math.Cos(r.phi)
	rawMin := k.fy * e.opts.Height.Min * cosPhi / hPx
	rawMax := k.fy * e.opts.Height.Max * cosPhi / hPx

	// Geometric anchoring: an empirical correction for miscalibrated
	// intrinsics. The optical interval is rescaled to centre on the ground
	// intersection distance, keeping only its relative spread. Tunable via
	// HeightPrior; not a physical model.
	scale := 1.0
	if mean := (rawMin + rawMax) / 2; mean > 0 {
		scale = dist / mean
	}

	return core.RangeEstimate{
		Index:         index,
		Terrain:       core.TerrainFlat,
		BBox:          det.BBox,
		Confidence:    det.Confidence,
		Distance:      dist,
		DistanceMin:   rawMin * scale,
		DistanceMax:   rawMax * scale,
		Bearing:       r.bearing,
		RelativeAngle: r.relativeAngle,
		Position:      e.opts.Projector.Project(cam.GPS.Point(), r.bearing, dist),
		Mode:          core.ModeBBox,
	}, nil
}

// Oblique ranges a person on terrain of unknown elevation by stadiametric
// ranging against an anatomical reference, then recovers the target's
// altitude from the slant vector.
func (e *Estimator) Oblique(cam core.CameraConfig, index int, det core.Detection) (core.RangeEstimate, error) {
	k, err := newIntrinsics(cam)
	if err != nil {
		return core.RangeEstimate{}, err
	}
	r, err := e.castRay(cam, k, det.BBox)
	if err != nil {
		return core.RangeEstimate{}, err
	}

	ref := e.reference(det)
	pixels := math.Max(ref.PixelLength, 1)

	sinPhi, cosPhi := math.Sincos(r.phi)
	slant := k.fy * ref.PhysicalLength * cosPhi / pixels
	horizontal := slant * cosPhi
	drop := slant * sinPhi

	h := e.opts.Height
	est := core.RangeEstimate{
		Index:         index,
		Terrain:       core.TerrainOblique,
		BBox:          det.BBox,
		Confidence:    det.Confidence,
		Distance:      horizontal,
		DistanceMin:   horizontal * (h.Min / h.Nominal),
		DistanceMax:   horizontal * (h.Max / h.Nominal),
		Bearing:       r.bearing,
		RelativeAngle: r.relativeAngle,
		Position:      e.opts.Projector.Project(cam.GPS.Point(), r.bearing, horizontal),
		HasAltitude:   true,
		Altitude:      cam.GPS.Alt - drop,
		SlantDistance: slant,
		VerticalDrop:  drop,
		Mode:          ref.Mode,
	}
	if ref.Mode != core.ModeBBox {
		est.Keypoints = append([]core.Keypoint(nil), det.Keypoints...)
	}
	return est, nil
}

// reference picks the skeleton yardstick when one qualifies, else the whole bbox.
func (e *Estimator) reference(det core.Detection) anatomy.Reference {
	if len(det.Keypoints) >= e.opts.MinSkeletonKeypoints {
		if ref, ok := anatomy.Select(det.Keypoints, e.opts.MinKeypointConfidence); ok {
			return ref
		}
	}
	return anatomy.Reference{
		PixelLength:    det.BBox.Height(),
		PhysicalLength: e.opts.Height.Nominal,
		Mode:           core.ModeBBox,
	}
}
