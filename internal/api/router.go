package api

import (
	"net/http"

	"delivery-route-service/internal/api/handlers"
	"delivery-route-service/internal/ports"
	"delivery-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(repo ports.SnapshotRepository, matrixFactory handlers.MatrixProviderFactory, defaults services.Config) http.Handler {
	mux := http.NewServeMux()

	snapshotHandler := &handlers.SnapshotHandler{Repo: repo}
	optimizeHandler := &handlers.OptimizeHandler{
		Repo:          repo,
		MatrixFactory: matrixFactory,
		Defaults:      defaults,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/depots", snapshotHandler.ListDepots)
	mux.HandleFunc("/couriers", snapshotHandler.ListCouriers)
	mux.HandleFunc("/orders", snapshotHandler.ListPendingOrders)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)

	return loggingMiddleware(mux)
}
