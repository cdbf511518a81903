package ports

import (
	"context"

	"delivery-route-service/internal/domain"
)

// MatrixProvider returns an N×N kilometer distance matrix for a list of
// locations. M[i][i] must be 0 and M[i][j] must be >= 0. Implementations
// may be backed by a closed-form formula or a remote road-network table
// service; callers must not assume either and must not observe remote
// failures — a MatrixProvider degrades to haversine internally rather
// than surfacing transport errors.
type MatrixProvider interface {
	Matrix(ctx context.Context, locations []domain.Location) ([][]float64, error)
}
