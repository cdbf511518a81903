package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
)

// BuildJointCPRoutes formulates the single global CVRP model described in
// SPEC_FULL.md §4.6: one node set spanning every depot (as an anchor
// node, not a customer) and every pending order, where vehicle i is
// pinned to start[i] = end[i] = the node index of courier[i]'s anchor
// depot. Cheapest insertion considers couriers from every depot for each
// order; the guided-local-search pass then improves each route on its own.
func BuildJointCPRoutes(
	ctx context.Context,
	depots []*domain.Depot,
	orders []*domain.Order,
	couriers []*domain.Courier,
	matrixProvider ports.MatrixProvider,
	timeLimit time.Duration,
) (*NearestNeighborResult, error) {
	if len(depots) == 0 {
		return nil, fmt.Errorf("joint cp engine: depot list must not be empty")
	}
	if len(couriers) == 0 {
		return nil, ErrInfeasible
	}
	if len(orders) == 0 {
		return &NearestNeighborResult{}, nil
	}

	depotNodeIndex := make(map[string]int, len(depots))
	locations := make([]domain.Location, 0, len(depots)+len(orders))
	nodes := make([]cpNode, 0, len(depots)+len(orders))
	for i, d := range depots {
		depotNodeIndex[d.DepotID] = i
		locations = append(locations, d.Location)
		nodes = append(nodes, cpNode{})
	}

	orderIndex := make(map[string]int, len(orders))
	for i, o := range orders {
		idx := len(depots) + i
		orderIndex[o.OrderID] = idx
		locations = append(locations, o.Location)
		nodes = append(nodes, cpNode{orderID: o.OrderID, items: o.Items, weightG: int(math.Round(o.WeightKg * 1000))})
	}

	anchors := make([]int, len(couriers))
	for vi, c := range couriers {
		idx, ok := depotNodeIndex[c.DepotID]
		if !ok {
			return nil, fmt.Errorf("joint cp engine: courier %s anchored to unknown depot %s", c.CourierID, c.DepotID)
		}
		anchors[vi] = idx
	}

	matrixKm, err := matrixProvider.Matrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("joint cp engine: build distance matrix: %w", err)
	}
	meters := make([][]int, len(matrixKm))
	for i, row := range matrixKm {
		meters[i] = make([]int, len(row))
		for j, km := range row {
			meters[i][j] = int(math.Round(km * 1000))
		}
	}

	routes := newCPSolution(couriers, len(nodes))
	unassigned := cpCheapestInsertionAnchored(routes, couriers, nodes, meters, orderIndex, anchors)

	deadline := time.Now().Add(timeLimit)
	cpGuidedLocalSearchAnchored(routes, couriers, meters, anchors, deadline)

	result := &NearestNeighborResult{UnassignedOrderIDs: unassigned}
	for vi, route := range routes {
		if len(route) == 0 {
			continue
		}
		depot := depots[anchorDepotPosition(depots, anchors[vi])]
		r := &domain.Route{
			RouteID:   fmt.Sprintf("route-%s-%s", depot.DepotID, couriers[vi].CourierID),
			CourierID: couriers[vi].CourierID,
			DepotID:   depot.DepotID,
		}
		for i, nodeIdx := range route {
			r.Points = append(r.Points, domain.RoutePoint{OrderID: nodes[nodeIdx].orderID, Sequence: i})
			r.TotalItems += nodes[nodeIdx].items
			r.TotalWeightKg += float64(nodes[nodeIdx].weightG) / 1000.0
		}
		r.TotalDistanceKm = float64(cpRouteMetersAnchored(route, meters, anchors[vi])) / 1000.0
		result.Routes = append(result.Routes, r)
	}

	return result, nil
}

func anchorDepotPosition(depots []*domain.Depot, nodeIdx int) int {
	if nodeIdx < 0 || nodeIdx >= len(depots) {
		return 0
	}
	return nodeIdx
}

func cpCheapestInsertionAnchored(
	routes [][]int,
	couriers []*domain.Courier,
	nodes []cpNode,
	meters [][]int,
	orderIndex map[string]int,
	anchors []int,
) []string {
	pending := make(map[int]bool, len(orderIndex))
	for _, idx := range orderIndex {
		pending[idx] = true
	}

	var unassigned []string

	for len(pending) > 0 {
		bestNode, bestVehicle, bestPos, bestDelta := -1, -1, -1, math.MaxInt64

		for nodeIdx := range pending {
			for vi, courier := range couriers {
				items, weightG := cpRouteLoad(routes[vi], nodes)
				if items+nodes[nodeIdx].items > courier.MaxItems {
					continue
				}
				if weightG+nodes[nodeIdx].weightG > int(math.Round(courier.MaxWeightKg*1000)) {
					continue
				}

				for pos := 0; pos <= len(routes[vi]); pos++ {
					delta := cpInsertionDeltaAnchored(routes[vi], nodeIdx, pos, meters, anchors[vi])
					if delta < bestDelta {
						bestDelta = delta
						bestNode = nodeIdx
						bestVehicle = vi
						bestPos = pos
					}
				}
			}
		}

		if bestNode == -1 {
			for nodeIdx := range pending {
				unassigned = append(unassigned, nodes[nodeIdx].orderID)
			}
			break
		}

		route := routes[bestVehicle]
		route = append(route, 0)
		copy(route[bestPos+1:], route[bestPos:])
		route[bestPos] = bestNode
		routes[bestVehicle] = route

		delete(pending, bestNode)
	}

	return unassigned
}

func cpInsertionDeltaAnchored(route []int, nodeIdx, pos int, meters [][]int, anchor int) int {
	prev := anchor
	if pos > 0 {
		prev = route[pos-1]
	}
	next := anchor
	if pos < len(route) {
		next = route[pos]
	}
	return meters[prev][nodeIdx] + meters[nodeIdx][next] - meters[prev][next]
}

func cpRouteMetersAnchored(route []int, meters [][]int, anchor int) int {
	total := 0
	current := anchor
	for _, idx := range route {
		total += meters[current][idx]
		current = idx
	}
	total += meters[current][anchor]
	return total
}

// cpGuidedLocalSearchAnchored is cpGuidedLocalSearch with per-vehicle
// start/end anchors instead of a single shared depot index 0. It applies
// only the intra-route relocate and 2-opt moves; orders are not moved
// between routes.
func cpGuidedLocalSearchAnchored(routes [][]int, couriers []*domain.Courier, meters [][]int, anchors []int, deadline time.Time) {
	penalty := make(map[[2]int]float64)

	costFor := func(anchor int) func([]int) float64 {
		return func(route []int) float64 {
			base := float64(cpRouteMetersAnchored(route, meters, anchor))
			current := anchor
			for _, idx := range route {
				base += penalty[[2]int{current, idx}] * distancePenaltyPerUnit * 1e-6
				current = idx
			}
			return base
		}
	}

	for time.Now().Before(deadline) {
		improved := false

		for vi := range routes {
			cost := costFor(anchors[vi])
			if cpTryRelocateWithinRoute(routes, vi, meters, cost) {
				improved = true
			}
			if cpTry2OptWithinRoute(routes, vi, meters, cost) {
				improved = true
			}
		}

		if !improved {
			worstRoute, worstFrom, worstTo, worstLen := -1, -1, -1, -1
			for vi, route := range routes {
				if len(route) == 0 {
					continue
				}
				if float64(cpRouteMetersAnchored(route, meters, anchors[vi]))/1000.0 <= couriers[vi].MaxRouteKm {
					continue
				}
				current := anchors[vi]
				for _, idx := range route {
					if meters[current][idx] > worstLen {
						worstLen = meters[current][idx]
						worstFrom, worstTo = current, idx
						worstRoute = vi
					}
					current = idx
				}
			}

			if worstRoute == -1 {
				break
			}
			penalty[[2]int{worstFrom, worstTo}]++
		}

		if time.Now().After(deadline) {
			break
		}
	}
}
