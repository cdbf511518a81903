package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
)

// ErrInfeasible is returned by the CP engine when no feasible base
// solution exists for the given fleet (e.g. zero couriers anchored to
// the depot). The coordinator treats it as a signal to fall back to the
// NN engine rather than surfacing it to the caller.
var ErrInfeasible = errors.New("cp engine: no feasible solution")

// distancePenaltyPerUnit scales the GLS arc-penalty table (each bump adds
// 0.1 m to the penalized cost). A route's overage beyond MaxRouteKm is
// not itself charged per unit in the search cost.
const distancePenaltyPerUnit = 100000.0

// cpNode is one location in the CP engine's working model: the depot
// (index 0) or an order. Items/weight dimensions are integer (grams for
// weight) per §4.4's RoutingDimension-equivalent contract.
type cpNode struct {
	orderID  string // "" for the depot
	items    int
	weightG  int
}

// BuildCPRoutes hand-rolls the solver vocabulary §4.4 attributes to OR-Tools:
// index-mapped nodes, item/weight hard dimensions, a soft per-vehicle
// distance bound enforced via arc-penalty in a guided-local-search
// improvement loop, bounded by timeLimit. Returns ErrInfeasible if no
// vehicle exists to route against.
func BuildCPRoutes(
	ctx context.Context,
	depot *domain.Depot,
	orders []*domain.Order,
	couriers []*domain.Courier,
	matrixProvider ports.MatrixProvider,
	timeLimit time.Duration,
) (*NearestNeighborResult, error) {
	if depot == nil {
		return nil, fmt.Errorf("cp engine: depot must not be nil")
	}
	if len(couriers) == 0 {
		return nil, ErrInfeasible
	}
	if len(orders) == 0 {
		return &NearestNeighborResult{}, nil
	}

	locations := make([]domain.Location, 0, len(orders)+1)
	locations = append(locations, depot.Location)
	nodes := make([]cpNode, 0, len(orders)+1)
	nodes = append(nodes, cpNode{})
	for _, o := range orders {
		locations = append(locations, o.Location)
		nodes = append(nodes, cpNode{orderID: o.OrderID, items: o.Items, weightG: int(math.Round(o.WeightKg * 1000))})
	}

	matrixKm, err := matrixProvider.Matrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("cp engine: build distance matrix: %w", err)
	}

	meters := make([][]int, len(matrixKm))
	for i, row := range matrixKm {
		meters[i] = make([]int, len(row))
		for j, km := range row {
			meters[i][j] = int(math.Round(km * 1000))
		}
	}

	orderIndex := make(map[string]int, len(orders))
	for i, o := range orders {
		orderIndex[o.OrderID] = i + 1
	}

	routes := newCPSolution(couriers, len(nodes))
	unassigned := cpCheapestInsertion(routes, couriers, nodes, meters, orderIndex)

	deadline := time.Now().Add(timeLimit)
	cpGuidedLocalSearch(routes, couriers, nodes, meters, deadline)

	result := &NearestNeighborResult{UnassignedOrderIDs: unassigned}
	for vi, route := range routes {
		if len(route) == 0 {
			continue
		}

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
		r.TotalDistanceKm = float64(cpRouteMeters(route, meters)) / 1000.0
		result.Routes = append(result.Routes, r)
	}

	return result, nil
}

// newCPSolution allocates one empty route (slice of node indices,
// excluding the implicit depot at both ends) per courier.
func newCPSolution(couriers []*domain.Courier, nodeCount int) [][]int {
	routes := make([][]int, len(couriers))
	for i := range routes {
		routes[i] = make([]int, 0, nodeCount)
	}
	return routes
}

// cpCheapestInsertion is the "first solution" constructor: repeatedly
// insert the unrouted node into whichever (vehicle, position) costs the
// least extra distance, subject to the hard items/weight dimensions.
// Items/weight are hard — a node with no feasible (vehicle, position) is
// left unassigned rather than failing the whole build.
func cpCheapestInsertion(
	routes [][]int,
	couriers []*domain.Courier,
	nodes []cpNode,
	meters [][]int,
	orderIndex map[string]int,
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
					delta := cpInsertionDelta(routes[vi], nodeIdx, pos, meters)
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
			// No remaining node fits any vehicle's hard dimensions.
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

func cpRouteLoad(route []int, nodes []cpNode) (items, weightG int) {
	for _, idx := range route {
		items += nodes[idx].items
		weightG += nodes[idx].weightG
	}
	return
}

// cpInsertionDelta is the extra distance (in meters) from inserting
// nodeIdx at pos in route, which implicitly starts/ends at depot (0).
func cpInsertionDelta(route []int, nodeIdx, pos int, meters [][]int) int {
	prev := 0
	if pos > 0 {
		prev = route[pos-1]
	}
	next := 0
	if pos < len(route) {
		next = route[pos]
	}
	return meters[prev][nodeIdx] + meters[nodeIdx][next] - meters[prev][next]
}

func cpRouteMeters(route []int, meters [][]int) int {
	total := 0
	current := 0
	for _, idx := range route {
		total += meters[current][idx]
		current = idx
	}
	total += meters[current][0]
	return total
}

// cpGuidedLocalSearch repeatedly applies intra/inter-route relocate and
// 2-opt moves using a penalized-cost table until deadline: each time a
// local optimum is reached, the longest arc on any route over its
// courier's MaxRouteKm has its penalty weight bumped, nudging subsequent
// moves away from it. The search ends before the deadline once a local
// optimum has every route within its bound. Distance is a soft bound — moves are accepted on penalized
// cost, but the reported TotalDistanceKm always reflects the true
// (unpenalized) arc lengths.
func cpGuidedLocalSearch(routes [][]int, couriers []*domain.Courier, nodes []cpNode, meters [][]int, deadline time.Time) {
	penalty := make(map[[2]int]float64)

	cost := func(route []int) float64 {
		base := float64(cpRouteMeters(route, meters))
		for i := 0; i < len(route); i++ {
			from, to := 0, route[i]
			if i > 0 {
				from = route[i-1]
			}
			base += penalty[[2]int{from, to}] * distancePenaltyPerUnit * 1e-6
		}
		return base
	}

	for time.Now().Before(deadline) {
		improved := false

		for vi := range routes {
			if cpTryRelocateWithinRoute(routes, vi, meters, cost) {
				improved = true
			}
			if cpTry2OptWithinRoute(routes, vi, meters, cost) {
				improved = true
			}
		}
		if cpTryRelocateAcrossRoutes(routes, couriers, nodes, meters, cost) {
			improved = true
		}

		if !improved {
			// Local optimum: penalize the longest arc across all routes
			// that exceeds its courier's soft distance bound, then keep
			// searching until the deadline.
			worstRoute, worstFrom, worstTo, worstLen := -1, -1, -1, -1
			for vi, route := range routes {
				if len(route) == 0 {
					continue
				}
				if float64(cpRouteMeters(route, meters))/1000.0 <= couriers[vi].MaxRouteKm {
					continue
				}
				current := 0
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
				break // every route is within its soft bound; nothing left to improve
			}
			penalty[[2]int{worstFrom, worstTo}]++
		}

		if time.Now().After(deadline) {
			break
		}
	}
}

func cpTryRelocateWithinRoute(routes [][]int, vi int, meters [][]int, cost func([]int) float64) bool {
	route := routes[vi]
	if len(route) < 2 {
		return false
	}

	best := cost(route)
	bestRoute := route
	improved := false

	for from := 0; from < len(route); from++ {
		for to := 0; to <= len(route); to++ {
			if to == from || to == from+1 {
				continue
			}
			candidate := relocate(route, from, to)
			c := cost(candidate)
			if c < best {
				best = c
				bestRoute = candidate
				improved = true
			}
		}
	}

	if improved {
		routes[vi] = bestRoute
	}
	return improved
}

// cpTryRelocateAcrossRoutes tries moving a single node from one vehicle's
// route to a position in another vehicle's route, accepting the move
// only when it both respects the target vehicle's items/weight capacity
// and strictly lowers the combined penalized cost of the two routes.
func cpTryRelocateAcrossRoutes(routes [][]int, couriers []*domain.Courier, nodes []cpNode, meters [][]int, cost func([]int) float64) bool {
	improved := false

	for vi := range routes {
		for vj := range routes {
			if vi == vj || len(routes[vi]) == 0 {
				continue
			}

			source, target := routes[vi], routes[vj]
			targetItems, targetWeightG := cpRouteLoad(target, nodes)

			for from := 0; from < len(source); from++ {
				nodeIdx := source[from]
				if targetItems+nodes[nodeIdx].items > couriers[vj].MaxItems {
					continue
				}
				if targetWeightG+nodes[nodeIdx].weightG > int(math.Round(couriers[vj].MaxWeightKg*1000)) {
					continue
				}

				baseCost := cost(source) + cost(target)
				withoutSource := append(append([]int{}, source[:from]...), source[from+1:]...)

				bestCost := baseCost
				var bestSource, bestTarget []int
				found := false

				for to := 0; to <= len(target); to++ {
					candidateTarget := append(append([]int{}, target[:to]...), append([]int{nodeIdx}, target[to:]...)...)
					c := cost(withoutSource) + cost(candidateTarget)
					if c < bestCost {
						bestCost = c
						bestSource = withoutSource
						bestTarget = candidateTarget
						found = true
					}
				}

				if found {
					routes[vi] = bestSource
					routes[vj] = bestTarget
					improved = true
					source, target = routes[vi], routes[vj]
					targetItems, targetWeightG = cpRouteLoad(target, nodes)
					from = -1
				}
			}
		}
	}

	return improved
}

func relocate(route []int, from, to int) []int {
	node := route[from]
	without := append(append([]int{}, route[:from]...), route[from+1:]...)
	if to > from {
		to--
	}
	out := append(append([]int{}, without[:to]...), node)
	out = append(out, without[to:]...)
	return out
}

func cpTry2OptWithinRoute(routes [][]int, vi int, meters [][]int, cost func([]int) float64) bool {
	route := routes[vi]
	if len(route) < 3 {
		return false
	}

	best := cost(route)
	bestRoute := route
	improved := false

	for i := 0; i < len(route)-1; i++ {
		for j := i + 1; j < len(route); j++ {
			candidate := append([]int{}, route...)
			reverseSegment(candidate, i, j)
			c := cost(candidate)
			if c < best {
				best = c
				bestRoute = candidate
				improved = true
			}
		}
	}

	if improved {
		routes[vi] = bestRoute
	}
	return improved
}

func reverseSegment(route []int, i, j int) {
	for i < j {
		route[i], route[j] = route[j], route[i]
		i++
		j--
	}
}
