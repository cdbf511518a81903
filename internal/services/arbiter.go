package services

import (
	"time"

	"delivery-route-service/internal/domain"
)

// Summary is the arbiter's reporting contract (§4.7): everything a
// caller needs to persist results and show a user the outcome of one
// optimization session, without re-deriving it from the route list.
type Summary struct {
	Algorithm          Algorithm
	Routes             []*domain.Route
	TotalDistanceKm    float64
	AssignedOrders     int
	TotalOrders        int
	ExecutionTimeS     float64
	UnassignedOrderIDs []string
}

// Arbitrate enforces "at most one route per courier per call" across a
// single optimization session's proposed routes, in encounter order:
// the first route seen for a courier wins, every later route for that
// same courier is silently dropped, and any route with no points is
// discarded outright. totalOrders is the count of orders presented to
// the coordinator, used to compute the reporting contract's derived
// fields independent of what actually got assigned.
func Arbitrate(algorithm Algorithm, result *NearestNeighborResult, totalOrders int, started time.Time) *Summary {
	summary := &Summary{
		Algorithm:   algorithm,
		TotalOrders: totalOrders,
	}

	seenCouriers := make(map[string]bool)
	assignedIDs := make(map[string]bool)

	for _, route := range result.Routes {
		if len(route.Points) == 0 {
			continue
		}
		if seenCouriers[route.CourierID] {
			continue
		}
		seenCouriers[route.CourierID] = true

		summary.Routes = append(summary.Routes, route)
		summary.TotalDistanceKm += route.TotalDistanceKm
		summary.AssignedOrders += len(route.Points)
		for _, p := range route.Points {
			assignedIDs[p.OrderID] = true
		}
	}

	// Anything not on a surviving route is unassigned, whether the
	// engine reported it as such or it was dropped here by dedup.
	seenUnassigned := make(map[string]bool)
	for _, id := range result.UnassignedOrderIDs {
		if !assignedIDs[id] && !seenUnassigned[id] {
			seenUnassigned[id] = true
			summary.UnassignedOrderIDs = append(summary.UnassignedOrderIDs, id)
		}
	}
	for _, route := range result.Routes {
		for _, p := range route.Points {
			if !assignedIDs[p.OrderID] && !seenUnassigned[p.OrderID] {
				seenUnassigned[p.OrderID] = true
				summary.UnassignedOrderIDs = append(summary.UnassignedOrderIDs, p.OrderID)
			}
		}
	}

	summary.ExecutionTimeS = time.Since(started).Seconds()
	return summary
}
