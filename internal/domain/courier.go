package domain

import "fmt"

// Courier is a vehicle anchored to a depot, carrying per-vehicle item,
// weight, and route-distance limits.
type Courier struct {
	CourierID   string
	Name        string
	Phone       string
	DepotID     string
	MaxItems    int
	MaxWeightKg float64
	MaxRouteKm  float64
}

// Load is the mutable running tally an engine keeps while filling a
// courier's route: picked orders plus cumulative items/weight.
type Load struct {
	Courier *Courier
	OrderIDs []string
	Items    int
	WeightKg float64
}

// CanAccept reports whether adding an order of the given items/weight
// still respects the courier's hard capacity limits. Distance is not
// checked here; it requires a tentative route recomputation and is the
// caller's responsibility (see services.BuildNearestNeighborRoutes).
func (l *Load) CanAccept(items int, weightKg float64) bool {
	return l.Items+items <= l.Courier.MaxItems && l.WeightKg+weightKg <= l.Courier.MaxWeightKg
}

// Accept records an order on the load accumulator.
func (l *Load) Accept(orderID string, items int, weightKg float64) {
	l.OrderIDs = append(l.OrderIDs, orderID)
	l.Items += items
	l.WeightKg += weightKg
}

func (l *Load) String() string {
	return fmt.Sprintf("courier=%s items=%d/%d weight=%.2f/%.2f orders=%d",
		l.Courier.CourierID, l.Items, l.Courier.MaxItems, l.WeightKg, l.Courier.MaxWeightKg, len(l.OrderIDs))
}
