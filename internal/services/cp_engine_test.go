package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/domain"
)

func TestBuildCPRoutesNoCouriersIsInfeasible(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1"}
	orders := []*domain.Order{{OrderID: "O1", Items: 1, WeightKg: 1}}

	_, err := BuildCPRoutes(context.Background(), depot, orders, nil, distance.NewMockMatrixProvider(nil), time.Millisecond)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestBuildCPRoutesSingleFeasibleOrder(t *testing.T) {
	depot := &domain.Depot{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.01}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 0.02}, Items: 1, WeightKg: 1},
		{OrderID: "O3", Location: domain.Location{Lat: 0, Lng: 0.03}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 1, MaxWeightKg: 100, MaxRouteKm: 1000},
	}

	matrix := map[int][][]float64{
		4: {
			{0, 1, 2, 3},
			{1, 0, 1, 2},
			{2, 1, 0, 1},
			{3, 2, 1, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	result, err := BuildCPRoutes(context.Background(), depot, orders, couriers, provider, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Routes) != 1 {
		t.Fatalf("expected exactly 1 route, got %d", len(result.Routes))
	}
	if len(result.Routes[0].Points) != 1 {
		t.Fatalf("expected exactly 1 point on the route, got %d", len(result.Routes[0].Points))
	}
	if len(result.UnassignedOrderIDs) != 2 {
		t.Fatalf("expected 2 unassigned orders, got %d", len(result.UnassignedOrderIDs))
	}
}
