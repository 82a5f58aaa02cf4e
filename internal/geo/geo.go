package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371e3

// Point is a WGS84 coordinate pair.
type Point struct {
	ll s2.LatLng
}

// NewPoint creates a point from degrees.
func NewPoint(lat, lon float64) Point {
	return Point{ll: s2.LatLngFromDegrees(lat, lon)}
}

// PointFrom returns a point when both coordinates are present.
// Reports without a shared location yield ok=false.
func PointFrom(lat, lon *float64) (Point, bool) {
	if lat == nil || lon == nil {
		return Point{}, false
	}
	p := NewPoint(*lat, *lon)
	if !p.Valid() {
		return Point{}, false
	}
	return p, true
}

// Valid reports whether latitude is within [-90, 90] and longitude within [-180, 180].
func (p Point) Valid() bool {
	return p.ll.IsValid()
}

// Lat returns the latitude in degrees.
func (p Point) Lat() float64 {
	return p.ll.Lat.Degrees()
}

// Lon returns the longitude in degrees.
func (p Point) Lon() float64 {
	return p.ll.Lng.Degrees()
}

// DistanceMeters returns the haversine distance to q in meters.
func (p Point) DistanceMeters(q Point) float64 {
	return haversine(p.ll.Lat.Radians(), p.ll.Lng.Radians(), q.ll.Lat.Radians(), q.ll.Lng.Radians())
}

// HaversineDistance returns the great-circle distance in meters between two
// coordinates given in degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return NewPoint(lat1, lon1).DistanceMeters(NewPoint(lat2, lon2))
}

func haversine(phi1, lambda1, phi2, lambda2 float64) float64 {
	dPhi := phi2 - phi1
	dLambda := lambda2 - lambda1

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}
