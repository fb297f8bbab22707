package localize

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/handle999/YOLO-MonoPed-Depth/internal/localize"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
