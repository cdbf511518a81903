package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"delivery-route-service/internal/domain"
)

func TestRemoteMatrixProviderOkResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0,1000],[1000,0]]}`))
	}))
	defer srv.Close()

	fallback := NewHaversineMatrixProvider()
	p := NewRemoteMatrixProvider(srv.URL, "", time.Second, fallback, nil)

	locations := []domain.Location{
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 2},
	}

	m, err := p.Matrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m[0][1] != 1 || m[1][0] != 1 {
		t.Fatalf("expected 1km off-diagonal entries, got %v", m)
	}
	if m[0][0] != 0 || m[1][1] != 0 {
		t.Fatalf("expected 0 diagonal, got %v", m)
	}
}

func TestRemoteMatrixProviderFallsBackOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fallback := NewHaversineMatrixProvider()
	p := NewRemoteMatrixProvider(srv.URL, "", 500*time.Millisecond, fallback, nil)

	locations := []domain.Location{
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 2},
	}

	want, err := fallback.Matrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("fallback matrix: %v", err)
	}

	got, err := p.Matrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("entry [%d][%d] = %v, want %v (haversine fallback)", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestRemoteMatrixProviderFallsBackOnMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","distances":[[0]]}`))
	}))
	defer srv.Close()

	fallback := NewHaversineMatrixProvider()
	p := NewRemoteMatrixProvider(srv.URL, "", time.Second, fallback, nil)

	locations := []domain.Location{
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 2},
	}

	got, err := p.Matrix(context.Background(), locations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, _ := fallback.Matrix(context.Background(), locations)
	if got[0][1] != want[0][1] {
		t.Fatalf("expected haversine fallback value %v, got %v", want[0][1], got[0][1])
	}
}

func TestTileBounds(t *testing.T) {
	bounds := tileBounds(250, 100)
	if len(bounds) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(bounds))
	}
	if bounds[0].lo != 0 || bounds[0].hi != 100 {
		t.Fatalf("unexpected first tile: %+v", bounds[0])
	}
	if bounds[2].lo != 200 || bounds[2].hi != 250 {
		t.Fatalf("unexpected last tile: %+v", bounds[2])
	}
}
