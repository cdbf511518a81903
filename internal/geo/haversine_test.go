package geo

import (
	"math"
	"testing"

	"delivery-route-service/internal/domain"
)

const epsilon = 1e-6

func TestHaversineKmSamePoint(t *testing.T) {
	a := domain.Location{Lat: 55.75, Lng: 37.61}
	if d := HaversineKm(a, a); math.Abs(d) > epsilon {
		t.Fatalf("expected 0 distance for identical points, got %f", d)
	}
}

func TestHaversineKmKnownDistance(t *testing.T) {
	// Moscow to Saint Petersburg, roughly 635 km great-circle.
	moscow := domain.Location{Lat: 55.7558, Lng: 37.6173}
	spb := domain.Location{Lat: 59.9311, Lng: 30.3609}

	d := HaversineKm(moscow, spb)
	if d < 600 || d > 670 {
		t.Fatalf("expected distance in [600,670]km, got %f", d)
	}
}

func TestMatrixDiagonalIsZero(t *testing.T) {
	locs := []domain.Location{
		{Lat: 55.75, Lng: 37.61},
		{Lat: 59.93, Lng: 30.36},
		{Lat: 56.84, Lng: 60.61},
	}

	m := Matrix(locs)

	for i := range locs {
		if m[i][i] != 0 {
			t.Errorf("M[%d][%d] = %f, want 0", i, i, m[i][i])
		}
	}

	for i := range locs {
		for j := range locs {
			if m[i][j] != m[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]", i, j)
			}
			if m[i][j] < 0 {
				t.Errorf("negative distance at [%d][%d]", i, j)
			}
		}
	}
}
