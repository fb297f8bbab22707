package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Projector solves the direct and inverse geodesic problems.
type Projector interface {
	// Project returns the point reached by travelling distanceM metres from
	// origin along the initial bearing (degrees clockwise from north).
	Project(origin core.GeoPoint, bearingDeg, distanceM float64) core.GeoPoint
	// Inverse returns the distance in metres and initial bearing in [0,360)
	// from a to b.
	Inverse(a, b core.GeoPoint) (distanceM, bearingDeg float64)
}

// Ellipsoid is an oblate reference ellipsoid solved with Vincenty's formulae.
type Ellipsoid struct {
	A float64 // semi-major axis, metres
	F float64 // flattening
}

// WGS84 is the GPS reference ellipsoid and the default projector.
var WGS84 = Ellipsoid{A: 6378137.0, F: 1 / 298.257223563}

// Sphere is a great-circle model of the given radius.
type Sphere struct {
	Radius float64
}

// MeanEarth is the IUGG mean-radius sphere.
var MeanEarth = Sphere{Radius: 6371000}

const (
	vincentyEpsilon    = 1e-12
	vincentyIterations = 100
)

// ProjectorByName maps a configured model name to a Projector.
func ProjectorByName(name string) (Projector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "wgs84", "ellipsoid", "vincenty":
		return WGS84, nil
	case "sphere", "spherical":
		return MeanEarth, nil
	default:
		return nil, fmt.Errorf("unknown geodesy model %q", name)
	}
}

func (e Ellipsoid) b() float64 { return e.A * (1 - e.F) }

// Project implements Projector using Vincenty's direct formula.
func (e Ellipsoid) Project(origin core.GeoPoint, bearingDeg, distanceM float64) core.GeoPoint {
	if distanceM == 0 {
		return origin
	}
	a, f, b := e.A, e.F, e.b()

	alpha1 := toRad(bearingDeg)
	sinAlpha1, cosAlpha1 := math.Sincos(alpha1)

	tanU1 := (1 - f) * math.Tan(toRad(origin.Lat))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA, bigB := vincentyAB(uSq)

	sigma := distanceM / (b * bigA)
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; i < vincentyIterations; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		deltaSigma := vincentyDeltaSigma(bigB, sinSigma, cosSigma, cos2SigmaM)
		prev := sigma
		sigma = distanceM/(b*bigA) + deltaSigma
		if math.Abs(sigma-prev) < vincentyEpsilon {
			break
		}
	}
	sinSigma, cosSigma = math.Sincos(sigma)
	cos2SigmaM = math.Cos(2*sigma1 + sigma)

	x := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat2 := math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1, (1-f)*math.Sqrt(sinAlpha*sinAlpha+x*x))
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
	l := lambda - (1-c)*f*sinAlpha*(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

	return core.GeoPoint{
		Lat: toDeg(lat2),
		Lng: normalizeLng(origin.Lng + toDeg(l)),
	}
}

// Inverse implements Projector using Vincenty's inverse formula. Nearly
// antipodal points may not converge; the last iterate is returned.
func (e Ellipsoid) Inverse(p1, p2 core.GeoPoint) (float64, float64) {
	a, f, b := e.A, e.F, e.b()

	l := toRad(p2.Lng - p1.Lng)
	tanU1 := (1 - f) * math.Tan(toRad(p1.Lat))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1
	tanU2 := (1 - f) * math.Tan(toRad(p2.Lat))
	cosU2 := 1 / math.Sqrt(1+tanU2*tanU2)
	sinU2 := tanU2 * cosU2

	lambda := l
	var sinLambda, cosLambda, sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64
	for i := 0; i < vincentyIterations; i++ {
		sinLambda, cosLambda = math.Sincos(lambda)
		t := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSqSigma := (cosU2*sinLambda)*(cosU2*sinLambda) + t*t
		if sinSqSigma == 0 {
			return 0, 0
		}
		sinSigma = math.Sqrt(sinSqSigma)
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0
		if cosSqAlpha != 0 {
			// equatorial line otherwise
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}
		c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		prev := lambda
		lambda = l + (1-c)*f*sinAlpha*(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-prev) < vincentyEpsilon {
			break
		}
	}
	sinLambda, cosLambda = math.Sincos(lambda)

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA, bigB := vincentyAB(uSq)
	deltaSigma := vincentyDeltaSigma(bigB, sinSigma, cosSigma, cos2SigmaM)
	dist := b * bigA * (sigma - deltaSigma)

	alpha1 := math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
	return dist, NormalizeBearing(toDeg(alpha1))
}

func vincentyAB(uSq float64) (float64, float64) {
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	return bigA, bigB
}

func vincentyDeltaSigma(bigB, sinSigma, cosSigma, cos2SigmaM float64) float64 {
	c2 := cos2SigmaM * cos2SigmaM
	return bigB * sinSigma * (cos2SigmaM + bigB/4*(cosSigma*(-1+2*c2)-
		bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*c2)))
}

// Project implements Projector on a sphere.
func (s Sphere) Project(origin core.GeoPoint, bearingDeg, distanceM float64) core.GeoPoint {
	delta := distanceM / s.Radius
	theta := toRad(bearingDeg)
	phi1, lambda1 := toRad(origin.Lat), toRad(origin.Lng)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	sinDelta, cosDelta := math.Sincos(delta)
	sinTheta, cosTheta := math.Sincos(theta)

	sinPhi2 := sinPhi1*cosDelta + cosPhi1*sinDelta*cosTheta
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda1 + math.Atan2(sinTheta*sinDelta*cosPhi1, cosDelta-sinPhi1*sinPhi2)

	return core.GeoPoint{Lat: toDeg(phi2), Lng: normalizeLng(toDeg(lambda2))}
}

// Inverse implements Projector with the haversine distance.
func (s Sphere) Inverse(a, b core.GeoPoint) (float64, float64) {
	phi1, phi2 := toRad(a.Lat), toRad(b.Lat)
	dPhi := phi2 - phi1
	dLambda := toRad(b.Lng - a.Lng)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	dist := 2 * s.Radius * math.Asin(math.Min(1, math.Sqrt(h)))

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return dist, NormalizeBearing(toDeg(math.Atan2(y, x)))
}

// NormalizeBearing folds any angle in degrees into [0,360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

func normalizeLng(deg float64) float64 {
	return math.Mod(deg+540, 360) - 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
