package ports

import (
	"context"

	"delivery-route-service/internal/domain"
)

// GeocodeProvider resolves a free-text address into coordinates. It backs
// the optional pre-partition resolution step for depots/orders whose
// Location carries an Address but no usable Lat/Lng.
type GeocodeProvider interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
}
