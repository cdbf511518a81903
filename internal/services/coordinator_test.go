package services

import (
	"context"
	"testing"

	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/domain"
)

func TestCoordinatorRunSingleEngineConcatenatesPerDepot(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}},
		{DepotID: "D2", Location: domain.Location{Lat: 0, Lng: 10}},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
		{CourierID: "C2", DepotID: "D2", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
	}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.5}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 9.5}, Items: 1, WeightKg: 1},
	}

	matrix := map[int][][]float64{
		2: {
			{0, 0.5},
			{0.5, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	cfg := DefaultConfig()
	coordinator := NewCoordinator(provider, cfg)

	result, err := coordinator.Run(context.Background(), depots, couriers, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Routes) != 2 {
		t.Fatalf("expected 1 route per depot, got %d", len(result.Routes))
	}
}

func TestCoordinatorRunEmptyDepotsErrors(t *testing.T) {
	cfg := DefaultConfig()
	coordinator := NewCoordinator(distance.NewMockMatrixProvider(nil), cfg)

	_, err := coordinator.Run(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatalf("expected error for empty depot list")
	}
}

func TestCoordinatorRunJointCPMode(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}},
		{DepotID: "D2", Location: domain.Location{Lat: 0, Lng: 10}},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
		{CourierID: "C2", DepotID: "D2", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
	}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.5}, Items: 1, WeightKg: 1},
	}

	matrix := map[int][][]float64{
		3: {
			{0, 10, 0.5},
			{10, 0, 9.5},
			{0.5, 9.5, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmORTools
	cfg.MultiDepotJointCP = true
	coordinator := NewCoordinator(provider, cfg)

	result, err := coordinator.Run(context.Background(), depots, couriers, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assigned := 0
	for _, r := range result.Routes {
		assigned += len(r.Points)
	}
	if assigned+len(result.UnassignedOrderIDs) != len(orders) {
		t.Fatalf("expected the single order assigned or unassigned, got %d assigned, %d unassigned", assigned, len(result.UnassignedOrderIDs))
	}
}
