package services

import (
	"testing"

	"delivery-route-service/internal/domain"
)

func TestPartitionOrdersNearestDepot(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Name: "North", Location: domain.Location{Lat: 10, Lng: 10}},
		{DepotID: "D2", Name: "South", Location: domain.Location{Lat: -10, Lng: -10}},
	}

	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 9.9, Lng: 9.9}},
		{OrderID: "O2", Location: domain.Location{Lat: -9.8, Lng: -9.8}},
	}

	got, err := PartitionOrders(depots, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got["D1"]) != 1 || got["D1"][0].OrderID != "O1" {
		t.Fatalf("expected O1 assigned to D1, got %+v", got["D1"])
	}
	if len(got["D2"]) != 1 || got["D2"][0].OrderID != "O2" {
		t.Fatalf("expected O2 assigned to D2, got %+v", got["D2"])
	}
}

func TestPartitionOrdersUnusableLocationFallsBackToFirstDepot(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Location: domain.Location{Lat: 10, Lng: 10}},
		{DepotID: "D2", Location: domain.Location{Lat: -10, Lng: -10}},
	}

	orders := []*domain.Order{
		{OrderID: "O-bad", Location: domain.Location{Lat: 0, Lng: 0}},
	}

	got, err := PartitionOrders(depots, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got["D1"]) != 1 || got["D1"][0].OrderID != "O-bad" {
		t.Fatalf("expected unusable-location order on first depot, got %+v", got["D1"])
	}
}

func TestPartitionOrdersIsIdempotent(t *testing.T) {
	depots := []*domain.Depot{
		{DepotID: "D1", Location: domain.Location{Lat: 1, Lng: 1}},
		{DepotID: "D2", Location: domain.Location{Lat: 5, Lng: 5}},
	}
	orders := []*domain.Order{
		{OrderID: "O1", Location: domain.Location{Lat: 1.1, Lng: 1.1}},
		{OrderID: "O2", Location: domain.Location{Lat: 4.9, Lng: 4.9}},
	}

	first, err := PartitionOrders(depots, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rebucketed []*domain.Order
	for _, d := range depots {
		rebucketed = append(rebucketed, first[d.DepotID]...)
	}
	second, err := PartitionOrders(depots, rebucketed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for depotID, wantOrders := range first {
		gotOrders := second[depotID]
		if len(gotOrders) != len(wantOrders) {
			t.Fatalf("depot %s: order count changed across calls: %d vs %d", depotID, len(wantOrders), len(gotOrders))
		}
		for i := range wantOrders {
			if wantOrders[i].OrderID != gotOrders[i].OrderID {
				t.Fatalf("depot %s: order order changed across calls at index %d", depotID, i)
			}
		}
	}
}

func TestPartitionOrdersEmptyDepotsErrors(t *testing.T) {
	if _, err := PartitionOrders(nil, []*domain.Order{{OrderID: "O1"}}); err == nil {
		t.Fatalf("expected error for empty depot list")
	}
}
