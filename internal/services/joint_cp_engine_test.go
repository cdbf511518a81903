package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/domain"
)

func TestBuildJointCPRoutesAssignsAcrossDepots(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Location: domain.Location{Lat: 0, Lng: 0}},
		{DepotID: "D2", Location: domain.Location{Lat: 0, Lng: 10}},
	}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 0, Lng: 0.5}, Items: 1, WeightKg: 1},
		{OrderID: "O2", Location: domain.Location{Lat: 0, Lng: 9.5}, Items: 1, WeightKg: 1},
	}
	couriers := []*domain.Courier{
		{CourierID: "C1", DepotID: "D1", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
		{CourierID: "C2", DepotID: "D2", MaxItems: 5, MaxWeightKg: 50, MaxRouteKm: 1000},
	}

	// 4 locations: D1, D2, O1, O2.
	matrix := map[int][][]float64{
		4: {
			{0, 10, 0.5, 9.5},
			{10, 0, 9.5, 0.5},
			{0.5, 9.5, 0, 9},
			{9.5, 0.5, 9, 0},
		},
	}
	provider := distance.NewMockMatrixProvider(matrix)

	result, err := BuildJointCPRoutes(context.Background(), depots, orders, couriers, provider, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assigned := 0
	for _, r := range result.Routes {
		assigned += len(r.Points)
	}
	if assigned+len(result.UnassignedOrderIDs) != len(orders) {
		t.Fatalf("expected every order assigned or unassigned, got %d assigned, %d unassigned", assigned, len(result.UnassignedOrderIDs))
	}
}

func TestBuildJointCPRoutesNoCouriersIsInfeasible(t *testing.T) {
	depots := []*domain.Depot{{DepotID: "D1"}}
	orders := []*domain.Order{{OrderID: "O1", Items: 1, WeightKg: 1}}

	_, err := BuildJointCPRoutes(context.Background(), depots, orders, nil, distance.NewMockMatrixProvider(nil), time.Millisecond)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestBuildJointCPRoutesEmptyDepotsErrors(t *testing.T) {
	_, err := BuildJointCPRoutes(context.Background(), nil, nil, nil, distance.NewMockMatrixProvider(nil), time.Millisecond)
	if err == nil {
		t.Fatalf("expected error for empty depot list")
	}
}
