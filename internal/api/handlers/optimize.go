package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"delivery-route-service/internal/api/dto"
	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/ports"
	"delivery-route-service/internal/services"
)

// MatrixProviderFactory resolves a ports.MatrixProvider for the backend
// named in an OptimizeRequest. The composition root owns which concrete
// adapters exist (haversine is always available; the road-network
// backend requires a configured base URL).
type MatrixProviderFactory func(backend services.MatrixBackend) ports.MatrixProvider

// OptimizeHandler runs one partition→engine→arbiter optimization call
// over the collaborator's current snapshot.
type OptimizeHandler struct {
	Repo          ports.SnapshotRepository
	MatrixFactory MatrixProviderFactory
	Defaults      services.Config
}

func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	cfg := h.resolveConfig(req)

	depots, err := h.Repo.ListDepots(r.Context())
	if err != nil {
		log.Printf("list depots failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(depots) == 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "no depots configured")
		return
	}
	if cfg.DepotID != "" {
		depots = filterDepots(depots, cfg.DepotID)
		if len(depots) == 0 {
			writeError(w, r, http.StatusNotFound, "depot_id not found")
			return
		}
	}

	couriers, err := h.Repo.ListCouriers(r.Context())
	if err != nil {
		log.Printf("list couriers failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	orders, err := h.Repo.ListPendingOrders(r.Context())
	if err != nil {
		log.Printf("list pending orders failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	matrix := h.MatrixFactory(cfg.MatrixBackend)
	coordinator := services.NewCoordinator(matrix, cfg)

	started := time.Now()
	result, err := coordinator.Run(r.Context(), depots, couriers, orders)
	if err != nil {
		log.Printf("optimize failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	summary := services.Arbitrate(cfg.Algorithm, result, len(orders), started)
	writeJSON(w, r, http.StatusOK, toOptimizeResponse(summary))
}

func (h *OptimizeHandler) resolveConfig(req dto.OptimizeRequest) services.Config {
	cfg := h.Defaults

	if req.Algorithm != "" {
		cfg.Algorithm = services.Algorithm(req.Algorithm)
	}
	if req.MatrixBackend != "" {
		cfg.MatrixBackend = services.MatrixBackend(req.MatrixBackend)
	}
	if req.DepotID != "" {
		cfg.DepotID = req.DepotID
	}
	if req.MultiDepotJointCP {
		cfg.MultiDepotJointCP = true
	}

	if req.CPTimeLimitS > 0 {
		cfg.CPTimeLimit = time.Duration(req.CPTimeLimitS * float64(time.Second))
	}
	if req.GAPopulationSize > 0 {
		cfg.GAPopulationSize = req.GAPopulationSize
	}
	if req.GAGenerations > 0 {
		cfg.GAGenerations = req.GAGenerations
	}
	if req.GAMutationRate > 0 {
		cfg.GAMutationRate = req.GAMutationRate
	}
	if req.GACrossoverRate > 0 {
		cfg.GACrossoverRate = req.GACrossoverRate
	}
	if req.GAEliteSize > 0 {
		cfg.GAEliteSize = req.GAEliteSize
	}
	if req.GATimeoutS > 0 {
		cfg.GATimeout = time.Duration(req.GATimeoutS * float64(time.Second))
	}
	if req.GASeed != 0 {
		cfg.GASeed = req.GASeed
	}

	return cfg
}

func filterDepots(depots []*domain.Depot, id string) []*domain.Depot {
	var out []*domain.Depot
	for _, d := range depots {
		if d.DepotID == id {
			out = append(out, d)
		}
	}
	return out
}

func toOptimizeResponse(summary *services.Summary) dto.OptimizeResponse {
	res := dto.OptimizeResponse{
		Algorithm:          string(summary.Algorithm),
		TotalDistanceKm:    summary.TotalDistanceKm,
		AssignedOrders:     summary.AssignedOrders,
		TotalOrders:        summary.TotalOrders,
		ExecutionTimeS:     summary.ExecutionTimeS,
		UnassignedOrderIDs: summary.UnassignedOrderIDs,
	}
	if res.UnassignedOrderIDs == nil {
		res.UnassignedOrderIDs = []string{}
	}

	res.Routes = make([]dto.RouteResponse, 0, len(summary.Routes))
	for _, route := range summary.Routes {
		points := make([]dto.RoutePointResponse, 0, len(route.Points))
		for _, p := range route.Points {
			points = append(points, dto.RoutePointResponse{OrderID: p.OrderID, Sequence: p.Sequence})
		}
		res.Routes = append(res.Routes, dto.RouteResponse{
			RouteID:         route.RouteID,
			CourierID:       route.CourierID,
			DepotID:         route.DepotID,
			TotalDistanceKm: route.TotalDistanceKm,
			TotalItems:      route.TotalItems,
			TotalWeightKg:   route.TotalWeightKg,
			Points:          points,
		})
	}

	return res
}
