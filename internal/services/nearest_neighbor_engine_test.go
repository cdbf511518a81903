package services

import (
	"context"
	"testing"

	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/domain"
)

func TestBuildNearestNeighborRoutesAssignsWithinCapacity(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 0.02}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 10, MaxWeightKg: 100, MaxRouteKm: 1000},
	}

	// 3 locations: depot, O1, O2.
	matrix := map[int][][]float64{
		3: {
			{0, 1, 2},
			{1, 0, 1},
			{2, 1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	result, err := BuildNearestNeighborRoutes(context.Background(), depot, orders, couriers, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
	if len(result.Routes[0].Points) != 2 {
		t.Fatalf("expected both orders on the single route, got %d points", len(result.Routes[0].Points))
	}
	if len(result.UnassignedOrderIDs) != 0 {
		t.Fatalf("expected no unassigned orders, got %v", result.UnassignedOrderIDs)
	}
}

func TestBuildNearestNeighborRoutesDropsOrdersOverCapacity(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 0, MaxWeightKg: 0, MaxRouteKm: 1000},
	}

	matrix := map[int][][]float64{
		2: {
			{0, 1},
			{1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	result, err := BuildNearestNeighborRoutes(context.Background(), depot, orders, couriers, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Routes) != 0 {
		t.Fatalf("expected no routes, got %d", len(result.Routes))
	}
	if len(result.UnassignedOrderIDs) != 1 || result.UnassignedOrderIDs[0] != "O1" {
		t.Fatalf("expected O1 unassigned, got %v", result.UnassignedOrderIDs)
	}
}

func TestBuildNearestNeighborRoutesNoCouriersLeavesAllUnassigned(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1"}
	orders := []*domain.Order{{OrderID: "O1"}, {OrderID: "O2"}}

	result, err := BuildNearestNeighborRoutes(context.Background(), depot, orders, nil, distance.NewMockMatrixProvider(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.UnassignedOrderIDs) != 2 {
		t.Fatalf("expected 2 unassigned orders, got %d", len(result.UnassignedOrderIDs))
	}
}
