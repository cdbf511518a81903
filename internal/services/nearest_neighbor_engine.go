package services

import (
	"context"
	"fmt"
	"slices"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
)

// NearestNeighborResult is one single-depot NN build's output: the
// routes produced and the ids of orders no courier could accept.
type NearestNeighborResult struct {
	Routes             []*domain.Route
	UnassignedOrderIDs []string
}

// BuildNearestNeighborRoutes constructs at most one route per courier (none
// for a courier left empty) using the
// constructive round-robin heuristic in SPEC_FULL.md §4.3: orders are
// offered, nearest-depot-first, to couriers in rotation, and a courier
// accepts only if capacity and the recomputed NN traversal's distance
// bound both hold.
func BuildNearestNeighborRoutes(
	ctx context.Context,
	depot *domain.Depot,
	orders []*domain.Order,
	couriers []*domain.Courier,
	matrixProvider ports.MatrixProvider,
) (*NearestNeighborResult, error) {
	if depot == nil {
		return nil, fmt.Errorf("nearest neighbor: depot must not be nil")
	}
	if len(couriers) == 0 {
		return &NearestNeighborResult{UnassignedOrderIDs: orderIDs(orders)}, nil
	}
	if len(orders) == 0 {
		return &NearestNeighborResult{}, nil
	}

	locations := make([]domain.Location, 0, len(orders)+1)
	locations = append(locations, depot.Location)
	for _, o := range orders {
		locations = append(locations, o.Location)
	}

	matrix, err := matrixProvider.Matrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbor: build distance matrix: %w", err)
	}

	// index 0 is the depot; order i is at matrix index i+1.
	orderIndex := make(map[string]int, len(orders))
	for i, o := range orders {
		orderIndex[o.OrderID] = i + 1
	}

	sorted := make([]*domain.Order, len(orders))
	copy(sorted, orders)
	slices.SortFunc(sorted, func(a, b *domain.Order) int {
		da := matrix[0][orderIndex[a.OrderID]]
		db := matrix[0][orderIndex[b.OrderID]]
		if da < db {
			return -1
		}
		if da > db {
			return 1
		}
		if a.OrderID < b.OrderID {
			return -1
		}
		if a.OrderID > b.OrderID {
			return 1
		}
		return 0
	})

	loads := make([]*domain.Load, len(couriers))
	for i, c := range couriers {
		loads[i] = &domain.Load{Courier: c}
	}

	cursor := 0
	var unassigned []string

	for _, o := range sorted {
		accepted := false

		for attempt := 0; attempt < len(loads); attempt++ {
			idx := (cursor + attempt) % len(loads)
			load := loads[idx]

			if !load.CanAccept(o.Items, o.WeightKg) {
				continue
			}

			tentative := append(append([]string{}, load.OrderIDs...), o.OrderID)
			dist := nnTraversalDistanceKm(matrix, orderIndex, tentative)
			if dist > load.Courier.MaxRouteKm {
				continue
			}

			load.Accept(o.OrderID, o.Items, o.WeightKg)
			cursor = (idx + 1) % len(loads)
			accepted = true
			break
		}

		if !accepted {
			unassigned = append(unassigned, o.OrderID)
		}
	}

	routes := make([]*domain.Route, 0, len(loads))
	for _, load := range loads {
		if len(load.OrderIDs) == 0 {
			continue
		}

		sequence := nnTraversalOrder(matrix, orderIndex, load.OrderIDs)
		route := &domain.Route{
			RouteID:       fmt.Sprintf("route-%s-%s", depot.DepotID, load.Courier.CourierID),
			CourierID:     load.Courier.CourierID,
			DepotID:       depot.DepotID,
			TotalItems:    load.Items,
			TotalWeightKg: load.WeightKg,
		}
		for i, orderID := range sequence {
			route.Points = append(route.Points, domain.RoutePoint{OrderID: orderID, Sequence: i})
		}
		route.TotalDistanceKm = nnTraversalDistanceKm(matrix, orderIndex, sequence)
		routes = append(routes, route)
	}

	return &NearestNeighborResult{Routes: routes, UnassignedOrderIDs: unassigned}, nil
}

// nnTraversalOrder greedily reorders orderIDs starting from the depot
// (matrix index 0), always stepping to the nearest unvisited point.
func nnTraversalOrder(matrix [][]float64, orderIndex map[string]int, orderIDs []string) []string {
	remaining := make([]string, len(orderIDs))
	copy(remaining, orderIDs)

	sequence := make([]string, 0, len(orderIDs))
	current := 0 // depot

	for len(remaining) > 0 {
		bestPos := -1
		bestDist := -1.0
		for i, id := range remaining {
			d := matrix[current][orderIndex[id]]
			if bestPos == -1 || d < bestDist || (d == bestDist && id < remaining[bestPos]) {
				bestPos = i
				bestDist = d
			}
		}

		next := remaining[bestPos]
		sequence = append(sequence, next)
		current = orderIndex[next]
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	return sequence
}

// nnTraversalDistanceKm computes the NN-ordered traversal distance for
// orderIDs starting and ending at the depot (matrix index 0).
func nnTraversalDistanceKm(matrix [][]float64, orderIndex map[string]int, orderIDs []string) float64 {
	sequence := nnTraversalOrder(matrix, orderIndex, orderIDs)

	total := 0.0
	current := 0
	for _, id := range sequence {
		idx := orderIndex[id]
		total += matrix[current][idx]
		current = idx
	}
	total += matrix[current][0]

	return total
}

func orderIDs(orders []*domain.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	return ids
}
