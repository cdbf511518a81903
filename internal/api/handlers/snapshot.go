package handlers

import (
	"log"
	"net/http"

	"delivery-route-service/internal/api/dto"
	"delivery-route-service/internal/ports"
)

// SnapshotHandler exposes read-only listings of the entities the
// optimization core consumes, repurposing the teacher's package-listing
// endpoint shape for depots, couriers, and pending orders.
type SnapshotHandler struct {
	Repo ports.SnapshotRepository
}

func (h *SnapshotHandler) ListDepots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	depots, err := h.Repo.ListDepots(r.Context())
	if err != nil {
		log.Printf("list depots failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListDepotsResponse{Depots: make([]dto.DepotResponse, 0, len(depots))}
	for _, d := range depots {
		res.Depots = append(res.Depots, dto.DepotResponse{
			DepotID: d.DepotID,
			Name:    d.Name,
			Location: dto.LocationResponse{
				Lat: d.Location.Lat, Lng: d.Location.Lng, Address: d.Location.Address,
			},
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *SnapshotHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	couriers, err := h.Repo.ListCouriers(r.Context())
	if err != nil {
		log.Printf("list couriers failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListCouriersResponse{Couriers: make([]dto.CourierResponse, 0, len(couriers))}
	for _, c := range couriers {
		res.Couriers = append(res.Couriers, dto.CourierResponse{
			CourierID:   c.CourierID,
			Name:        c.Name,
			DepotID:     c.DepotID,
			MaxItems:    c.MaxItems,
			MaxWeightKg: c.MaxWeightKg,
			MaxRouteKm:  c.MaxRouteKm,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *SnapshotHandler) ListPendingOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	orders, err := h.Repo.ListPendingOrders(r.Context())
	if err != nil {
		log.Printf("list pending orders failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListOrdersResponse{Orders: make([]dto.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID: o.OrderID,
			Location: dto.LocationResponse{
				Lat: o.Location.Lat, Lng: o.Location.Lng, Address: o.Location.Address,
			},
			Items:    o.Items,
			WeightKg: o.WeightKg,
			Status:   string(o.Status),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
