package services

import (
	"fmt"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/geo"
)

// PartitionOrders assigns each order to its nearest depot by haversine
// distance. Orders whose location is unusable (see domain.Location.Usable)
// fall back to the first depot in depots, matching the source system's
// convention for orders that cannot be geographically placed. The
// assignment is stateless and deterministic: identical inputs always
// produce the identical partition.
func PartitionOrders(depots []*domain.Depot, orders []*domain.Order) (map[string][]*domain.Order, error) {
	if len(depots) == 0 {
		return nil, fmt.Errorf("partition orders: depot list must not be empty")
	}

	partitioned := make(map[string][]*domain.Order, len(depots))
	for _, d := range depots {
		partitioned[d.DepotID] = nil
	}

	for _, o := range orders {
		depotID := nearestDepotID(depots, o.Location)
		partitioned[depotID] = append(partitioned[depotID], o)
	}

	return partitioned, nil
}

// nearestDepotID returns the id of the depot closest to loc by
// haversine distance. Ties keep whichever depot was encountered first
// in depots, matching the source system's first-encountered convention.
// Unusable locations fall back to the first depot.
func nearestDepotID(depots []*domain.Depot, loc domain.Location) string {
	if !loc.Usable() {
		return depots[0].DepotID
	}

	best := depots[0]
	bestDist := geo.HaversineKm(loc, best.Location)
	for _, d := range depots[1:] {
		dist := geo.HaversineKm(loc, d.Location)
		if dist < bestDist {
			best = d
			bestDist = dist
		}
	}

	return best.DepotID
}
