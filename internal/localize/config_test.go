package localize

import (
	"testing"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/ranging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.RangingConfig{
		MinKeypointConfidence: 0.6,
		HeightMin:             1.5,
		HeightNominal:         1.65,
		HeightMax:             1.75,
		DepressionFloor:       0.04,
		RegionHalfWidth:       5,
		GeodesyModel:          "sphere",
	}, 3, quietLogger)
	require.NoError(t, err)

	assert.Equal(t, ranging.HeightPrior{Min: 1.5, Nominal: 1.65, Max: 1.75}, opts.Ranging.Height)
	assert.Equal(t, 0.04, opts.Ranging.DepressionFloor)
	assert.Equal(t, 0.6, opts.Ranging.MinKeypointConfidence)
	assert.Equal(t, geo.MeanEarth, opts.Ranging.Projector)
	assert.Equal(t, 5.0, opts.RegionHalfWidth)
	assert.Equal(t, 3, opts.Workers)

	s, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, 5.0, s.halfWidth)
}

func TestOptionsFromConfig_UnknownModel(t *testing.T) {
	_, err := OptionsFromConfig(config.RangingConfig{GeodesyModel: "flat-earth"}, 1, nil)
	assert.ErrorContains(t, err, "unknown geodesy model")
}

func TestOptionsFromConfig_InvalidHeightFallsBack(t *testing.T) {
	opts, err := OptionsFromConfig(config.RangingConfig{HeightMin: 2, HeightNominal: 1, HeightMax: 3}, 1, nil)
	require.NoError(t, err)
	s, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, ranging.DefaultHeightPrior(), s.Estimator().Options().Height)
}
