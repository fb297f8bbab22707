// Package anatomy picks the most trustworthy body segment of a COCO skeleton
// to use as a metric yardstick for stadiametric ranging.
package anatomy

import (
	"math"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Mean adult segment lengths in metres.
const (
	TorsoLength    = 0.53 // shoulder centre to hip centre
	ShoulderWidth  = 0.40
	UpperLegLength = 0.45 // hip to knee
	UpperArmLength = 0.30 // shoulder to elbow
	StandingHeight = 1.70
)

// DefaultMinConfidence is the visibility a joint needs to be considered at all.
const DefaultMinConfidence = 0.5

const (
	torsoConfidenceFloor    = 0.6
	shoulderConfidenceFloor = 0.7
	minShoulderPixels       = 15.0
	shoulderToArmRatio      = 0.9
	shoulderToEarRatio      = 2.0
	legVerticalRatio        = 0.5
	armVerticalRatio        = 0.85
	minSegmentPixels        = 1e-3
)

// requiredKeypoints covers every index a tier reads (up to the right knee).
const requiredKeypoints = core.KeypointRightKnee + 1

// Reference is a measured segment and the physical length it stands for.
type Reference struct {
	PixelLength    float64
	PhysicalLength float64
	Mode           core.ReferenceMode
}

// Tier is one rung of the selection waterfall.
type Tier struct {
	Mode     core.ReferenceMode
	Physical float64
	// Accept decides whether the skeleton qualifies for this tier.
	Accept func(s Skeleton, minConf float64) bool
	// Measure returns the segment length in pixels. Only called after Accept.
	Measure func(s Skeleton) float64
}

var tiers = []Tier{
	{
		Mode:     core.ModeTorsoFull,
		Physical: TorsoLength,
		Accept: func(s Skeleton, minConf float64) bool {
			c := torsoThreshold(minConf)
			return s.visible(core.KeypointLeftShoulder, c) && s.visible(core.KeypointRightShoulder, c) &&
				s.visible(core.KeypointLeftHip, c) && s.visible(core.KeypointRightHip, c)
		},
		Measure: func(s Skeleton) float64 {
			sx, sy := s.midpoint(core.KeypointLeftShoulder, core.KeypointRightShoulder)
			hx, hy := s.midpoint(core.KeypointLeftHip, core.KeypointRightHip)
			return math.Hypot(sx-hx, sy-hy)
		},
	},
	pairTier(core.ModeTorsoLeft, TorsoLength, core.KeypointLeftShoulder, core.KeypointLeftHip, torsoThreshold, 0),
	pairTier(core.ModeTorsoRight, TorsoLength, core.KeypointRightShoulder, core.KeypointRightHip, torsoThreshold, 0),
	{
		Mode:     core.ModeShoulders,
		Physical: ShoulderWidth,
		Accept:   shouldersFacingCamera,
		Measure: func(s Skeleton) float64 {
			return s.dist(core.KeypointLeftShoulder, core.KeypointRightShoulder)
		},
	},
	pairTier(core.ModeLegLeft, UpperLegLength, core.KeypointLeftHip, core.KeypointLeftKnee, baseThreshold, legVerticalRatio),
	pairTier(core.ModeLegRight, UpperLegLength, core.KeypointRightHip, core.KeypointRightKnee, baseThreshold, legVerticalRatio),
	pairTier(core.ModeArmLeft, UpperArmLength, core.KeypointLeftShoulder, core.KeypointLeftElbow, baseThreshold, armVerticalRatio),
	pairTier(core.ModeArmRight, UpperArmLength, core.KeypointRightShoulder, core.KeypointRightElbow, baseThreshold, armVerticalRatio),
}

// Tiers returns the waterfall in evaluation order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Select walks the tiers and returns the first one the skeleton satisfies.
// ok is false, with Mode set to ModeNone, when no tier qualifies or the
// skeleton does not reach the right knee.
func Select(keypoints []core.Keypoint, minConf float64) (ref Reference, ok bool) {
	if len(keypoints) < requiredKeypoints {
		return Reference{Mode: core.ModeNone}, false
	}
	s := Skeleton(keypoints)
	for _, t := range tiers {
		if t.Accept(s, minConf) {
			return Reference{
				PixelLength:    t.Measure(s),
				PhysicalLength: t.Physical,
				Mode:           t.Mode,
			}, true
		}
	}
	return Reference{Mode: core.ModeNone}, false
}

func torsoThreshold(minConf float64) float64 { return math.Max(minConf, torsoConfidenceFloor) }

func baseThreshold(minConf float64) float64 { return minConf }

// pairTier builds a two-joint tier. A zero verticalRatio skips the posture test.
func pairTier(mode core.ReferenceMode, physical float64, a, b int, threshold func(float64) float64, verticalRatio float64) Tier {
	return Tier{
		Mode:     mode,
		Physical: physical,
		Accept: func(s Skeleton, minConf float64) bool {
			c := threshold(minConf)
			if !s.visible(a, c) || !s.visible(b, c) {
				return false
			}
			return verticalRatio == 0 || s.isVertical(a, b, verticalRatio)
		},
		Measure: func(s Skeleton) float64 { return s.dist(a, b) },
	}
}

// shouldersFacingCamera approximates a torso-orientation estimate: shoulder
// width is only a usable yardstick when the person roughly faces the camera.
func shouldersFacingCamera(s Skeleton, minConf float64) bool {
	if !s.visible(core.KeypointLeftShoulder, shoulderConfidenceFloor) ||
		!s.visible(core.KeypointRightShoulder, shoulderConfidenceFloor) {
		return false
	}

	width := s.dist(core.KeypointLeftShoulder, core.KeypointRightShoulder)
	if width < minShoulderPixels {
		return false
	}

	// A hanging upper arm longer than the shoulder span means the span is foreshortened.
	arms := [][2]int{
		{core.KeypointLeftShoulder, core.KeypointLeftElbow},
		{core.KeypointRightShoulder, core.KeypointRightElbow},
	}
	for _, arm := range arms {
		if s.visible(arm[1], minConf) && s.isVertical(arm[0], arm[1], legVerticalRatio) {
			if width < shoulderToArmRatio*s.dist(arm[0], arm[1]) {
				return false
			}
		}
	}

	// Ears close together relative to the shoulders indicate strong yaw.
	if s.visible(core.KeypointLeftEar, minConf) && s.visible(core.KeypointRightEar, minConf) {
		if width < shoulderToEarRatio*s.dist(core.KeypointLeftEar, core.KeypointRightEar) {
			return false
		}
	}

	return true
}
