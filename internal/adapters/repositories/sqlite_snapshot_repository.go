package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
)

// SqliteSnapshotRepository is the local, file-backed implementation of
// ports.SnapshotRepository, used by single-node/offline deployments.
type SqliteSnapshotRepository struct{ DB *sql.DB }

func NewSqliteSnapshotRepository(db *sql.DB) *SqliteSnapshotRepository {
	return &SqliteSnapshotRepository{DB: db}
}

func (s *SqliteSnapshotRepository) ListDepots(ctx context.Context) ([]*domain.Depot, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite snapshot repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT depot_id, name, lat, lng, address
	FROM depots
	ORDER BY depot_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list depots: query depots table: %w", err)
	}
	defer rows.Close()

	depots := make([]*domain.Depot, 0, 16)
	for rows.Next() {
		var d domain.Depot
		if err := rows.Scan(&d.DepotID, &d.Name, &d.Location.Lat, &d.Location.Lng, &d.Location.Address); err != nil {
			return nil, fmt.Errorf("list depots: scan row: %w", err)
		}
		depots = append(depots, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list depots: row iteration: %w", err)
	}

	return depots, nil
}

func (s *SqliteSnapshotRepository) ListCouriers(ctx context.Context) ([]*domain.Courier, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite snapshot repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT courier_id, name, phone, depot_id, max_items, max_weight_kg, max_route_km
	FROM couriers
	ORDER BY courier_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list couriers: query couriers table: %w", err)
	}
	defer rows.Close()

	couriers := make([]*domain.Courier, 0, 64)
	for rows.Next() {
		var c domain.Courier
		if err := rows.Scan(&c.CourierID, &c.Name, &c.Phone, &c.DepotID, &c.MaxItems, &c.MaxWeightKg, &c.MaxRouteKm); err != nil {
			return nil, fmt.Errorf("list couriers: scan row: %w", err)
		}
		couriers = append(couriers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list couriers: row iteration: %w", err)
	}

	return couriers, nil
}

func (s *SqliteSnapshotRepository) ListPendingOrders(ctx context.Context) ([]*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite snapshot repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT order_id, customer_name, customer_phone, lat, lng, address, items, weight_kg,
	       status, assigned_depot_id, assigned_courier_id
	FROM orders
	WHERE status = ?
	ORDER BY order_id;
	`, string(domain.OrderPending))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 256)
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(
			&o.OrderID, &o.CustomerName, &o.CustomerPhone,
			&o.Location.Lat, &o.Location.Lng, &o.Location.Address,
			&o.Items, &o.WeightKg,
			&status, &o.AssignedDepotID, &o.AssignedCourierID,
		); err != nil {
			return nil, fmt.Errorf("list pending orders: scan row: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending orders: row iteration: %w", err)
	}

	return orders, nil
}

var _ ports.SnapshotRepository = (*SqliteSnapshotRepository)(nil)
