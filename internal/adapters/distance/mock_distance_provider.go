package distance

import (
	"context"
	"errors"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
)

// MockMatrixProvider is a deterministic, test-only MatrixProvider. It
// either returns a fixed matrix (keyed by location count) or, if Err is
// set, always fails — used to exercise callers' fallback paths.
type MockMatrixProvider struct {
	Matrices map[int][][]float64
	Err      error
}

func NewMockMatrixProvider(matrices map[int][][]float64) *MockMatrixProvider {
	return &MockMatrixProvider{Matrices: matrices}
}

func (p *MockMatrixProvider) Matrix(_ context.Context, locations []domain.Location) ([][]float64, error) {
	if p.Err != nil {
		return nil, p.Err
	}

	m, ok := p.Matrices[len(locations)]
	if !ok {
		return nil, errors.New("mock matrix provider: no fixture for this location count")
	}

	return m, nil
}

var _ ports.MatrixProvider = (*MockMatrixProvider)(nil)
