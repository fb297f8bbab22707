package localize

import (
	"log/slog"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/ranging"
)

// OptionsFromConfig builds service options from the ranging config section.
func OptionsFromConfig(rc config.RangingConfig, workers int, logger *slog.Logger) (Options, error) {
	projector, err := geo.ProjectorByName(rc.GeodesyModel)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Ranging: ranging.Options{
			Height: ranging.HeightPrior{
				Min:     rc.HeightMin,
				Nominal: rc.HeightNominal,
				Max:     rc.HeightMax,
			},
			DepressionFloor:       rc.DepressionFloor,
			MinKeypointConfidence: rc.MinKeypointConfidence,
			Projector:             projector,
		},
		RegionHalfWidth: rc.RegionHalfWidth,
		Workers:         workers,
		Logger:          logger,
	}, nil
}
