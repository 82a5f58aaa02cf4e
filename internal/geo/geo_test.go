package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
)

func TestHaversineDistance_Zero(t *testing.T) {
	d := HaversineDistance(14.5995, 120.9842, 14.5995, 120.9842)
	if d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestHaversineDistance_Symmetric(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"short hop", 14.5995, 120.9842, 14.6000, 120.9850},
		{"across town", 40.7128, -74.0060, 40.7580, -73.9855},
		{"antimeridian", 0, 179.9999, 0, -179.9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			ba := HaversineDistance(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("distance not symmetric: %f vs %f", ab, ba)
			}
		})
	}
}

func TestHaversineDistance_KnownValues(t *testing.T) {
	// One degree of latitude is ~111.195 km on a 6371 km sphere.
	d := HaversineDistance(0, 0, 1, 0)
	if math.Abs(d-111195) > 5 {
		t.Errorf("expected ~111195m, got %f", d)
	}

	// 0.0001 degree of latitude is ~11.1 m.
	d = HaversineDistance(10, 10, 10.0001, 10)
	if math.Abs(d-11.12) > 0.05 {
		t.Errorf("expected ~11.12m, got %f", d)
	}
}

func TestHaversineDistance_AgreesWithS2(t *testing.T) {
	a := s2.LatLngFromDegrees(51.5007, -0.1246)
	b := s2.LatLngFromDegrees(51.5194, -0.1270)
	want := a.Distance(b).Radians() * EarthRadiusMeters

	got := HaversineDistance(51.5007, -0.1246, 51.5194, -0.1270)
	if math.Abs(got-want) > 1 {
		t.Errorf("expected %f (s2), got %f", want, got)
	}
}

func TestPointFrom(t *testing.T) {
	lat, lon := 14.5, 121.0
	bad := 95.0

	if _, ok := PointFrom(nil, &lon); ok {
		t.Error("expected missing latitude to be rejected")
	}
	if _, ok := PointFrom(&lat, nil); ok {
		t.Error("expected missing longitude to be rejected")
	}
	if _, ok := PointFrom(&bad, &lon); ok {
		t.Error("expected out of range latitude to be rejected")
	}

	p, ok := PointFrom(&lat, &lon)
	if !ok {
		t.Fatal("expected valid point")
	}
	if math.Abs(p.Lat()-lat) > 1e-9 || math.Abs(p.Lon()-lon) > 1e-9 {
		t.Errorf("unexpected coordinates %f,%f", p.Lat(), p.Lon())
	}
}
