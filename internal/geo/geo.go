// Package geo holds geodesy and coordinate helpers.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Stored geometry is always EPSG:3857 so SQLite and Postgres rows hold the
// same WKB regardless of spatial support. API values stay in EPSG:4326.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var to3857 = wgs84.EPSG().Transform(4326, 3857)

// ParseGPS parses "lat,lng" or "lat,lng,alt" into a camera GPS fix.
func ParseGPS(coords string) (core.GPS, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.GPS{}, ErrInvalidCoordinates
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.GPS{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	if vals[0] < -90 || vals[0] > 90 || vals[1] < -180 || vals[1] > 180 {
		return core.GPS{}, ErrInvalidCoordinates
	}
	gps := core.GPS{Lat: vals[0], Lng: vals[1]}
	if len(vals) == 3 {
		gps.Alt = vals[2]
	}
	return gps, nil
}

// ToWebMercator converts a WGS84 point to EPSG:3857 x/y metres.
func ToWebMercator(pt core.GeoPoint) (x, y float64) {
	x, y, _ = to3857(pt.Lng, pt.Lat, 0)
	return x, y
}

// Point3857 creates a storage point from a WGS84 position, carrying altitude as Z.
func Point3857(pt core.GeoPoint, alt float64) (geom.Point, error) {
	x, y := ToWebMercator(pt)
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    alt,
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid storage point: %w", err)
	}
	return point, nil
}
