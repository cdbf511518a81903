package distance

import (
	"context"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/geo"
	"delivery-route-service/internal/ports"
)

// HaversineMatrixProvider computes distances with the closed-form
// great-circle formula. It is deterministic, total, and never fails.
type HaversineMatrixProvider struct{}

// NewHaversineMatrixProvider returns a MatrixProvider backed by
// geo.Matrix.
func NewHaversineMatrixProvider() *HaversineMatrixProvider {
	return &HaversineMatrixProvider{}
}

func (h *HaversineMatrixProvider) Matrix(ctx context.Context, locations []domain.Location) ([][]float64, error) {
	return geo.Matrix(locations), nil
}

var _ ports.MatrixProvider = (*HaversineMatrixProvider)(nil)
