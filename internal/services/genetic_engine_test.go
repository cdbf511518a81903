package services

import (
	"context"
	"testing"
	"time"

	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/domain"
)

func gaTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmGenetic
	cfg.GAPopulationSize = 12
	cfg.GAGenerations = 20
	cfg.GATimeout = 200 * time.Millisecond
	cfg.GASeed = 42
	return cfg
}

func TestBuildGeneticRoutesAssignsWithinCapacity(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 0.02}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 10, MaxWeightKg: 100, MaxRouteKm: 1000},
	}

	matrix := map[int][][]float64{
		3: {
			{0, 1, 2},
			{1, 0, 1},
			{2, 1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	result, err := BuildGeneticRoutes(context.Background(), depot, orders, couriers, provider, gaTestConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assigned := 0
	for _, r := range result.Routes {
		assigned += len(r.Points)
	}
	if assigned+len(result.UnassignedOrderIDs) != len(orders) {
		t.Fatalf("expected every order assigned or unassigned exactly once, got %d assigned + %d unassigned", assigned, len(result.UnassignedOrderIDs))
	}
	if len(result.UnassignedOrderIDs) != 0 {
		t.Fatalf("expected no unassigned orders given ample capacity, got %v", result.UnassignedOrderIDs)
	}

	courierByID := map[string]*domain.Courier{"C1": couriers[0]}
	for _, r := range result.Routes {
		c := courierByID[r.CourierID]
		if r.TotalItems > c.MaxItems {
			t.Fatalf("route %s exceeds items capacity: %d > %d", r.RouteID, r.TotalItems, c.MaxItems)
		}
		if r.TotalWeightKg > c.MaxWeightKg {
			t.Fatalf("route %s exceeds weight capacity: %.2f > %.2f", r.RouteID, r.TotalWeightKg, c.MaxWeightKg)
		}
	}
}

// TestBuildGeneticRoutesNeverExceedsTightCapacity drives the GA with
// capacity so tight that the swap mutation (which performs no capacity
// check by design) is likely to produce infeasible individuals during
// the search; the emitted result must still respect every courier's
// hard items/weight caps, dropping whatever doesn't fit to unassigned.
func TestBuildGeneticRoutesNeverExceedsTightCapacity(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 0.02}, Items: 1, WeightKg: 1},
		{OrderID: "O3", Location: domain.Location{Lat: 0, Lng: 0.03}, Items: 1, WeightKg: 1},
		{OrderID: "O4", Location: domain.Location{Lat: 0, Lng: 0.04}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 1, MaxWeightKg: 1, MaxRouteKm: 1000},
		{CourierID: "C2", DepotID: "D1", MaxItems: 1, MaxWeightKg: 1, MaxRouteKm: 1000},
	}

	matrix := map[int][][]float64{
		5: {
			{0, 1, 2, 3, 4},
			{1, 0, 1, 2, 3},
			{2, 1, 0, 1, 2},
			{3, 2, 1, 0, 1},
			{4, 3, 2, 1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	cfg := gaTestConfig()
	cfg.GAMutationRate = 1.0
	cfg.GACrossoverRate = 1.0

	result, err := BuildGeneticRoutes(context.Background(), depot, orders, couriers, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	courierByID := map[string]*domain.Courier{"C1": couriers[0], "C2": couriers[1]}
	for _, r := range result.Routes {
		c := courierByID[r.CourierID]
		if r.TotalItems > c.MaxItems {
			t.Fatalf("route %s exceeds items capacity: %d > %d", r.RouteID, r.TotalItems, c.MaxItems)
		}
		if r.TotalWeightKg > c.MaxWeightKg {
			t.Fatalf("route %s exceeds weight capacity: %.2f > %.2f", r.RouteID, r.TotalWeightKg, c.MaxWeightKg)
		}
	}
	if assigned := len(orders) - len(result.UnassignedOrderIDs); assigned > 2 {
		t.Fatalf("expected at most 2 orders assigned across two 1-item couriers, got %d", assigned)
	}
}

func TestBuildGeneticRoutesNoCouriersLeavesAllUnassigned(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1"}
	orders := []*domain.Order{{OrderID: "O1"}, {OrderID: "O2"}}

	result, err := BuildGeneticRoutes(context.Background(), depot, orders, nil, distance.NewMockMatrixProvider(nil), gaTestConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.UnassignedOrderIDs) != 2 {
		t.Fatalf("expected 2 unassigned orders, got %d", len(result.UnassignedOrderIDs))
	}
}

func TestBuildGeneticRoutesIsDeterministicForFixedSeed(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 0.02}, Items: 1, WeightKg: 1},
		{OrderID: "O3", Location: domain.Location{Lat: 0, Lng: 0.03}, Items: 1, WeightKg: 1},
		{OrderID: "O4", Location: domain.Location{Lat: 0, Lng: 0.04}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 10, MaxWeightKg: 100, MaxRouteKm: 1000},
		{CourierID: "C2", DepotID: "D1", MaxItems: 10, MaxWeightKg: 100, MaxRouteKm: 1000},
	}

	matrix := map[int][][]float64{
		5: {
			{0, 1, 2, 3, 4},
			{1, 0, 1, 2, 3},
			{2, 1, 0, 1, 2},
			{3, 2, 1, 0, 1},
			{4, 3, 2, 1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	cfg := gaTestConfig()

	first, err := BuildGeneticRoutes(context.Background(), depot, orders, couriers, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildGeneticRoutes(context.Background(), depot, orders, couriers, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if totalDistance(first) != totalDistance(second) {
		t.Fatalf("expected identical fixed-seed runs to reach the same total distance, got %.4f vs %.4f", totalDistance(first), totalDistance(second))
	}
}

func totalDistance(result *NearestNeighborResult) float64 {
	total := 0.0
	for _, r := range result.Routes {
		total += r.TotalDistanceKm
	}
	return total
}
