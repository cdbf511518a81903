package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Initialize the SQLite database schema backing the local snapshot store:
// depots, couriers, pending orders, and the distance/geocode caches.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDepotsQuery := `
	CREATE TABLE IF NOT EXISTS depots (
		depot_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		address TEXT NOT NULL DEFAULT ''
	);
	`

	createCouriersQuery := `
	CREATE TABLE IF NOT EXISTS couriers (
		courier_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		depot_id TEXT NOT NULL,
		max_items INTEGER NOT NULL,
		max_weight_kg REAL NOT NULL,
		max_route_km REAL NOT NULL,
		FOREIGN KEY (depot_id) REFERENCES depots(depot_id)
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		items INTEGER NOT NULL,
		weight_kg REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		assigned_depot_id TEXT NOT NULL DEFAULT '',
		assigned_courier_id TEXT NOT NULL DEFAULT ''
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id TEXT PRIMARY KEY,
		courier_id TEXT NOT NULL,
		depot_id TEXT NOT NULL,
		total_distance_km REAL NOT NULL,
		total_items INTEGER NOT NULL,
		total_weight_kg REAL NOT NULL,
		points_json TEXT NOT NULL
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_km REAL NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lng REAL NOT NULL,
        lat REAL NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	createOrdersStatusIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`

	statements := []string{
		createDepotsQuery,
		createCouriersQuery,
		createOrdersQuery,
		createRoutesQuery,
		createDistanceCacheQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
		createOrdersStatusIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type DepotSeed struct {
	DepotID string  `json:"depot_id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type CourierSeed struct {
	CourierID   string  `json:"courier_id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	DepotID     string  `json:"depot_id"`
	MaxItems    int     `json:"max_items"`
	MaxWeightKg float64 `json:"max_weight_kg"`
	MaxRouteKm  float64 `json:"max_route_km"`
}

type OrderSeed struct {
	OrderID       string  `json:"order_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Address       string  `json:"address"`
	Items         int     `json:"items"`
	WeightKg      float64 `json:"weight_kg"`
}

// SeedFromJSON populates depots, couriers, and pending orders from a JSON
// fixture of the shape {"depots": [...], "couriers": [...], "orders": [...]}.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed snapshot: read %q: %w", jsonPath, err)
	}

	var data struct {
		Depots   []DepotSeed   `json:"depots"`
		Couriers []CourierSeed `json:"couriers"`
		Orders   []OrderSeed   `json:"orders"`
	}
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed snapshot: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed snapshot: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	depotStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO depots (depot_id, name, lat, lng, address)
	VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed snapshot: prepare depot insert: %w", err)
	}
	defer depotStmt.Close()

	for _, d := range data.Depots {
		if d.DepotID == "" {
			return fmt.Errorf("seed snapshot: depot missing depot_id")
		}
		if _, err := depotStmt.Exec(d.DepotID, d.Name, d.Lat, d.Lng, d.Address); err != nil {
			return fmt.Errorf("seed snapshot: insert depot %q: %w", d.DepotID, err)
		}
	}

	courierStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO couriers (courier_id, name, phone, depot_id, max_items, max_weight_kg, max_route_km)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed snapshot: prepare courier insert: %w", err)
	}
	defer courierStmt.Close()

	for _, c := range data.Couriers {
		if c.CourierID == "" {
			return fmt.Errorf("seed snapshot: courier missing courier_id")
		}
		if _, err := courierStmt.Exec(c.CourierID, c.Name, c.Phone, c.DepotID, c.MaxItems, c.MaxWeightKg, c.MaxRouteKm); err != nil {
			return fmt.Errorf("seed snapshot: insert courier %q: %w", c.CourierID, err)
		}
	}

	orderStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO orders (order_id, customer_name, customer_phone, lat, lng, address, items, weight_kg, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'PENDING');
	`)
	if err != nil {
		return fmt.Errorf("seed snapshot: prepare order insert: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range data.Orders {
		if o.OrderID == "" {
			return fmt.Errorf("seed snapshot: order missing order_id")
		}
		if _, err := orderStmt.Exec(o.OrderID, o.CustomerName, o.CustomerPhone, o.Lat, o.Lng, o.Address, o.Items, o.WeightKg); err != nil {
			return fmt.Errorf("seed snapshot: insert order %q: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed snapshot: commit tx: %w", err)
	}

	return nil
}
