package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/platform/obs"
	"delivery-route-service/internal/ports"
)

// Coordinator runs the optimization engine selected by cfg.Algorithm
// against every depot's share of the pending orders, per SPEC_FULL.md
// §4.6. Single-engine mode partitions orders with PartitionOrders, groups
// couriers by their anchor depot, and invokes the engine once per depot,
// fanning the independent per-depot builds out across goroutines since
// each owns its own matrix and model (§5's re-entrancy contract).
type Coordinator struct {
	Matrix ports.MatrixProvider
	Config Config
}

func NewCoordinator(matrix ports.MatrixProvider, cfg Config) *Coordinator {
	return &Coordinator{Matrix: matrix, Config: cfg}
}

// depotEngineResult pairs one depot's build output with its depot id so
// results can be concatenated deterministically after the fan-out.
type depotEngineResult struct {
	depotID string
	result  *NearestNeighborResult
}

// Run executes single-engine mode across every depot and returns the
// concatenation of their routes and unassigned orders. Depot order in
// the output follows the order depots were given, not goroutine
// completion order, preserving the determinism §5 requires.
func (c *Coordinator) Run(ctx context.Context, depots []*domain.Depot, couriers []*domain.Courier, orders []*domain.Order) (*NearestNeighborResult, error) {
	if len(depots) == 0 {
		return nil, fmt.Errorf("coordinator: depot list must not be empty")
	}

	if c.Config.MultiDepotJointCP && c.Config.Algorithm == AlgorithmORTools && len(depots) > 1 {
		return c.runJointCP(ctx, depots, couriers, orders)
	}

	partitioned, err := PartitionOrders(depots, orders)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	couriersByDepot := make(map[string][]*domain.Courier, len(depots))
	for _, courier := range couriers {
		couriersByDepot[courier.DepotID] = append(couriersByDepot[courier.DepotID], courier)
	}

	results := make([]depotEngineResult, len(depots))

	group, gctx := errgroup.WithContext(ctx)
	for i, depot := range depots {
		i, depot := i, depot
		group.Go(func() error {
			r, err := c.runEngine(gctx, depot, partitioned[depot.DepotID], couriersByDepot[depot.DepotID])
			if err != nil {
				return fmt.Errorf("coordinator: depot %s: %w", depot.DepotID, err)
			}
			results[i] = depotEngineResult{depotID: depot.DepotID, result: r}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := &NearestNeighborResult{}
	for _, dr := range results {
		merged.Routes = append(merged.Routes, dr.result.Routes...)
		merged.UnassignedOrderIDs = append(merged.UnassignedOrderIDs, dr.result.UnassignedOrderIDs...)
	}
	return merged, nil
}

// runEngine dispatches to the configured algorithm for a single depot,
// applying the CP engine's infeasible→NN fallback contract (§4.4).
func (c *Coordinator) runEngine(ctx context.Context, depot *domain.Depot, orders []*domain.Order, couriers []*domain.Courier) (_ *NearestNeighborResult, err error) {
	defer obs.Time(ctx, "coordinator.engine")(&err)

	switch c.Config.Algorithm {
	case AlgorithmORTools:
		r, err := BuildCPRoutes(ctx, depot, orders, couriers, c.Matrix, c.cpTimeLimit(false))
		if errors.Is(err, ErrInfeasible) {
			return BuildNearestNeighborRoutes(ctx, depot, orders, couriers, c.Matrix)
		}
		return r, err
	case AlgorithmGenetic:
		return BuildGeneticRoutes(ctx, depot, orders, couriers, c.Matrix, c.Config)
	default:
		return BuildNearestNeighborRoutes(ctx, depot, orders, couriers, c.Matrix)
	}
}

func (c *Coordinator) cpTimeLimit(multiDepot bool) time.Duration {
	if c.Config.CPTimeLimit > 0 {
		return c.Config.CPTimeLimit
	}
	if multiDepot {
		return 60 * time.Second
	}
	return 30 * time.Second
}

// runJointCP formulates the single global CVRP model described in §4.6:
// one node set spanning every depot and every pending order, with each
// courier's vehicle anchored start=end=its depot's node index.
func (c *Coordinator) runJointCP(ctx context.Context, depots []*domain.Depot, couriers []*domain.Courier, orders []*domain.Order) (_ *NearestNeighborResult, err error) {
	defer obs.Time(ctx, "coordinator.joint_cp")(&err)

	if len(couriers) == 0 {
		return &NearestNeighborResult{UnassignedOrderIDs: orderIDs(orders)}, nil
	}

	r, err := BuildJointCPRoutes(ctx, depots, orders, couriers, c.Matrix, c.cpTimeLimit(true))
	if errors.Is(err, ErrInfeasible) {
		// Fall back to per-depot NN, the same contract single-depot CP uses.
		partitioned, perr := PartitionOrders(depots, orders)
		if perr != nil {
			return nil, fmt.Errorf("coordinator: joint cp infeasible, partition fallback: %w", perr)
		}
		couriersByDepot := make(map[string][]*domain.Courier, len(depots))
		for _, courier := range couriers {
			couriersByDepot[courier.DepotID] = append(couriersByDepot[courier.DepotID], courier)
		}
		merged := &NearestNeighborResult{}
		for _, depot := range depots {
			nr, nerr := BuildNearestNeighborRoutes(ctx, depot, partitioned[depot.DepotID], couriersByDepot[depot.DepotID], c.Matrix)
			if nerr != nil {
				return nil, fmt.Errorf("coordinator: joint cp infeasible, nn fallback: %w", nerr)
			}
			merged.Routes = append(merged.Routes, nr.Routes...)
			merged.UnassignedOrderIDs = append(merged.UnassignedOrderIDs, nr.UnassignedOrderIDs...)
		}
		return merged, nil
	}
	return r, err
}
