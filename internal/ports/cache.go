package ports

import (
	"context"

	"delivery-route-service/internal/domain"
)

// DistanceCache persists origin/destination coordinate-key pairs to
// kilometer distances, keyed the way internal/adapters/distance.locationKey
// formats them. Implementations back the remote matrix provider's tile
// fetches so a tile whose pairs are all cached does not hit the network.
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]float64, error)
	PutMany(ctx context.Context, origin string, results map[string]float64) error
}

// GeocodeCache persists address -> Location lookups for the optional
// pre-partition geocoding step.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Location, error)
	PutMany(ctx context.Context, results map[string]domain.Location) error
}
