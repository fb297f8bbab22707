package anatomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// standing builds a front-facing upright skeleton with every joint hidden.
// Callers raise visibility on the joints they need.
func standing() []core.Keypoint {
	kps := make([]core.Keypoint, core.NumKeypoints)
	set := func(i int, x, y float64) { kps[i] = core.Keypoint{X: x, Y: y} }
	set(core.KeypointNose, 100, 20)
	set(core.KeypointLeftEye, 104, 16)
	set(core.KeypointRightEye, 96, 16)
	set(core.KeypointLeftEar, 110, 20)
	set(core.KeypointRightEar, 90, 20)
	set(core.KeypointLeftShoulder, 130, 50)
	set(core.KeypointRightShoulder, 70, 50)
	set(core.KeypointLeftElbow, 135, 90)
	set(core.KeypointRightElbow, 65, 90)
	set(core.KeypointLeftWrist, 138, 125)
	set(core.KeypointRightWrist, 62, 125)
	set(core.KeypointLeftHip, 120, 130)
	set(core.KeypointRightHip, 80, 130)
	set(core.KeypointLeftKnee, 122, 190)
	set(core.KeypointRightKnee, 78, 190)
	set(core.KeypointLeftAnkle, 122, 250)
	set(core.KeypointRightAnkle, 78, 250)
	return kps
}

func show(kps []core.Keypoint, v float64, idx ...int) {
	for _, i := range idx {
		kps[i].Visibility = v
	}
}

func TestSelect_TorsoFullWins(t *testing.T) {
	kps := standing()
	for i := range kps {
		kps[i].Visibility = 0.95
	}

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeTorsoFull, ref.Mode)
	assert.Equal(t, TorsoLength, ref.PhysicalLength)
	// shoulder centre (100,50) to hip centre (100,130)
	assert.InDelta(t, 80.0, ref.PixelLength, 1e-9)
}

func TestSelect_TorsoNeedsHigherConfidence(t *testing.T) {
	kps := standing()
	// Above minConf but not above the 0.6 torso floor.
	show(kps, 0.55, core.KeypointLeftShoulder, core.KeypointRightShoulder, core.KeypointLeftHip, core.KeypointRightHip)
	show(kps, 0.9, core.KeypointLeftKnee)

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeLegLeft, ref.Mode)
	assert.Equal(t, UpperLegLength, ref.PhysicalLength)
}

func TestSelect_TorsoSides(t *testing.T) {
	kps := standing()
	show(kps, 0.9, core.KeypointLeftShoulder, core.KeypointLeftHip, core.KeypointRightShoulder, core.KeypointRightHip)
	kps[core.KeypointRightHip].Visibility = 0.1

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeTorsoLeft, ref.Mode)

	kps = standing()
	show(kps, 0.9, core.KeypointRightShoulder, core.KeypointRightHip)

	ref, ok = Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeTorsoRight, ref.Mode)
	assert.InDelta(t, 80.62, ref.PixelLength, 0.01)
}

func TestSelect_ShouldersFacingCamera(t *testing.T) {
	kps := standing()
	show(kps, 0.9, core.KeypointLeftShoulder, core.KeypointRightShoulder)

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeShoulders, ref.Mode)
	assert.InDelta(t, 60.0, ref.PixelLength, 1e-9)
}

func TestSelect_ShouldersConfidenceIsStrict(t *testing.T) {
	kps := standing()
	show(kps, 0.7, core.KeypointLeftShoulder, core.KeypointRightShoulder)
	show(kps, 0.9, core.KeypointLeftElbow)

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeArmLeft, ref.Mode)

	show(kps, 0.71, core.KeypointLeftShoulder, core.KeypointRightShoulder)
	ref, ok = Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeShoulders, ref.Mode)
}

func TestSelect_ShouldersRejectedBySideView(t *testing.T) {
	kps := standing()
	show(kps, 0.9, core.KeypointLeftShoulder, core.KeypointRightShoulder)
	// Ears 40px apart need shoulders of at least 80px.
	kps[core.KeypointLeftEar].X = 120
	kps[core.KeypointRightEar].X = 80
	show(kps, 0.9, core.KeypointLeftEar, core.KeypointRightEar)

	_, ok := Select(kps, DefaultMinConfidence)
	assert.False(t, ok, "no other segment is visible")

	// With the knee visible the waterfall moves on to the leg.
	show(kps, 0.9, core.KeypointLeftKnee, core.KeypointLeftHip)
	kps[core.KeypointLeftHip].Visibility = 0.55
	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeLegLeft, ref.Mode)
}

func TestSelect_ShouldersRejectedByHangingArm(t *testing.T) {
	kps := standing()
	show(kps, 0.9, core.KeypointLeftShoulder, core.KeypointRightShoulder, core.KeypointRightElbow)
	// Right arm 80px straight down; shoulders 60px < 0.9*80.
	kps[core.KeypointRightElbow] = core.Keypoint{X: 70, Y: 130, Visibility: 0.9}

	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeArmRight, ref.Mode)
	assert.Equal(t, UpperArmLength, ref.PhysicalLength)
	assert.InDelta(t, 80.0, ref.PixelLength, 1e-9)
}

func TestSelect_ShouldersTooNarrow(t *testing.T) {
	kps := standing()
	kps[core.KeypointLeftShoulder].X = 105
	kps[core.KeypointRightShoulder].X = 95
	show(kps, 0.9, core.KeypointLeftShoulder, core.KeypointRightShoulder)

	_, ok := Select(kps, DefaultMinConfidence)
	assert.False(t, ok)
}

func TestSelect_LegMustBeUpright(t *testing.T) {
	kps := standing()
	show(kps, 0.55, core.KeypointLeftHip, core.KeypointLeftKnee)
	// Thigh nearly horizontal, e.g. sitting.
	kps[core.KeypointLeftKnee].X = 180
	kps[core.KeypointLeftKnee].Y = 140

	_, ok := Select(kps, DefaultMinConfidence)
	assert.False(t, ok)
}

func TestSelect_ArmVerticalThreshold(t *testing.T) {
	kps := standing()
	show(kps, 0.55, core.KeypointLeftShoulder, core.KeypointLeftElbow)

	// dy/len = 40/hypot(5,40) ~ 0.99
	ref, ok := Select(kps, DefaultMinConfidence)
	require.True(t, ok)
	assert.Equal(t, core.ModeArmLeft, ref.Mode)

	// dy/len = 30/hypot(30,30) ~ 0.71 passes the leg ratio but not the arm ratio.
	kps[core.KeypointLeftElbow] = core.Keypoint{X: 160, Y: 80, Visibility: 0.55}
	_, ok = Select(kps, DefaultMinConfidence)
	assert.False(t, ok)
}

func TestSelect_DegenerateSegment(t *testing.T) {
	kps := standing()
	show(kps, 0.55, core.KeypointLeftShoulder, core.KeypointLeftElbow)
	kps[core.KeypointLeftElbow].X = kps[core.KeypointLeftShoulder].X
	kps[core.KeypointLeftElbow].Y = kps[core.KeypointLeftShoulder].Y

	_, ok := Select(kps, DefaultMinConfidence)
	assert.False(t, ok)
}

func TestSelect_ShortSkeleton(t *testing.T) {
	kps := standing()
	for i := range kps {
		kps[i].Visibility = 1
	}

	ref, ok := Select(kps[:14], DefaultMinConfidence)
	assert.False(t, ok)
	assert.Equal(t, core.ModeNone, ref.Mode)

	_, ok = Select(kps[:15], DefaultMinConfidence)
	assert.True(t, ok)
}

func TestTiers_Order(t *testing.T) {
	want := []core.ReferenceMode{
		core.ModeTorsoFull, core.ModeTorsoLeft, core.ModeTorsoRight, core.ModeShoulders,
		core.ModeLegLeft, core.ModeLegRight, core.ModeArmLeft, core.ModeArmRight,
	}
	var got []core.ReferenceMode
	for _, tier := range Tiers() {
		got = append(got, tier.Mode)
		assert.Positive(t, tier.Physical)
	}
	assert.Equal(t, want, got)
}
