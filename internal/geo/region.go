package geo

import (
	"fmt"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// DefaultHalfWidth is the angular half-width of the uncertainty wedge in degrees.
const DefaultHalfWidth = 3.0

// Region is a quadrilateral wedge: near-left, near-right, far-right, far-left.
type Region [4]core.GeoPoint

// BuildRegion spans bearing±halfWidthDeg between dMin and dMax metres from origin.
func BuildRegion(p Projector, origin core.GeoPoint, bearingDeg, dMin, dMax, halfWidthDeg float64) Region {
	left := NormalizeBearing(bearingDeg - halfWidthDeg)
	right := NormalizeBearing(bearingDeg + halfWidthDeg)
	return Region{
		p.Project(origin, left, dMin),
		p.Project(origin, right, dMin),
		p.Project(origin, right, dMax),
		p.Project(origin, left, dMax),
	}
}

// Polygon returns the closed ring in lng/lat axis order.
func (r Region) Polygon() (geom.Polygon, error) {
	return r.polygon(func(pt core.GeoPoint) (float64, float64) { return pt.Lng, pt.Lat })
}

// Polygon3857 returns the ring projected to web mercator, the storage SRID.
func (r Region) Polygon3857() (geom.Polygon, error) {
	return r.polygon(ToWebMercator)
}

// WKT renders the lng/lat polygon as well-known text.
func (r Region) WKT() (string, error) {
	poly, err := r.Polygon()
	if err != nil {
		return "", err
	}
	return poly.AsText(), nil
}

func (r Region) polygon(xy func(core.GeoPoint) (float64, float64)) (geom.Polygon, error) {
	flat := make([]float64, 0, (len(r)+1)*2)
	for _, pt := range r {
		x, y := xy(pt)
		flat = append(flat, x, y)
	}
	flat = append(flat, flat[0], flat[1])

	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("invalid uncertainty region: %w", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("invalid uncertainty region: %w", err)
	}
	return poly, nil
}
