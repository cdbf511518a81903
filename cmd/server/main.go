package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"delivery-route-service/internal/adapters/cache"
	"delivery-route-service/internal/adapters/distance"
	"delivery-route-service/internal/adapters/repositories"
	"delivery-route-service/internal/api"
	"delivery-route-service/internal/api/handlers"
	"delivery-route-service/internal/config"
	"delivery-route-service/internal/platform/db"
	"delivery-route-service/internal/ports"
	"delivery-route-service/internal/services"

	_ "modernc.org/sqlite"
)

// main is the application composition root. It wires concrete adapters
// (SQLite snapshot store, haversine/road-network matrix providers,
// optional Redis matrix cache) behind ports and starts the HTTP server.
func main() {
	dbPath := config.Get("DB_PATH", "data/app.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/snapshot.json")
	port := config.Get("PORT", "8080")

	conn, err := db.OpenSQLite(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(conn, seedPath); err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewSqliteSnapshotRepository(conn)

	matrixFactory := buildMatrixFactory(conn)
	defaults := buildDefaultConfig()

	router := api.NewRouter(repo, matrixFactory, defaults)

	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildMatrixFactory resolves the haversine provider (always available)
// and, when ROAD_NETWORK_BASE_URL is set, a road-network provider
// falling back to haversine on any error, optionally wrapped in a Redis
// matrix cache when REDIS_ADDR is configured.
func buildMatrixFactory(conn *sql.DB) handlers.MatrixProviderFactory {
	haversine := distance.NewHaversineMatrixProvider()

	roadNetworkBase := config.Get("ROAD_NETWORK_BASE_URL", "")
	roadNetworkKey := config.Get("ROAD_NETWORK_API_KEY", "")
	timeout := time.Duration(config.GetInt("ROAD_NETWORK_TIMEOUT_SECONDS", 30)) * time.Second

	var roadNetwork ports.MatrixProvider
	if roadNetworkBase != "" {
		distanceCache := cache.NewSqliteDistanceCache(conn)
		roadNetwork = distance.NewRemoteMatrixProvider(roadNetworkBase, roadNetworkKey, timeout, haversine, distanceCache)
	}

	if addr := config.Get("REDIS_ADDR", ""); addr != "" && roadNetwork != nil {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ttl := time.Duration(config.GetInt("REDIS_MATRIX_CACHE_TTL_SECONDS", 3600)) * time.Second
		roadNetwork = cache.NewRedisDistanceMatrixCache(client, roadNetwork, ttl)
	}

	return func(backend services.MatrixBackend) ports.MatrixProvider {
		if backend == services.MatrixBackendRoadNetwork && roadNetwork != nil {
			return roadNetwork
		}
		return haversine
	}
}

func buildDefaultConfig() services.Config {
	cfg := services.DefaultConfig()

	if backend := config.Get("MATRIX_BACKEND", ""); backend != "" {
		cfg.MatrixBackend = services.MatrixBackend(backend)
	}
	if algorithm := config.Get("ALGORITHM", ""); algorithm != "" {
		cfg.Algorithm = services.Algorithm(algorithm)
	}
	cfg.MultiDepotJointCP = config.GetBool("MULTI_DEPOT_JOINT_CP", cfg.MultiDepotJointCP)
	cfg.CPTimeLimit = time.Duration(config.GetInt("CP_TIME_LIMIT_SECONDS", int(cfg.CPTimeLimit.Seconds()))) * time.Second
	cfg.GAPopulationSize = config.GetInt("GA_POPULATION_SIZE", cfg.GAPopulationSize)
	cfg.GAGenerations = config.GetInt("GA_GENERATIONS", cfg.GAGenerations)
	cfg.GAMutationRate = config.GetFloat("GA_MUTATION_RATE", cfg.GAMutationRate)
	cfg.GACrossoverRate = config.GetFloat("GA_CROSSOVER_RATE", cfg.GACrossoverRate)
	cfg.GAEliteSize = config.GetFloat("GA_ELITE_SIZE", cfg.GAEliteSize)
	cfg.GATimeout = time.Duration(config.GetInt("GA_TIMEOUT_SECONDS", int(cfg.GATimeout.Seconds()))) * time.Second

	return cfg
}

func initAndSeed(conn *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}
