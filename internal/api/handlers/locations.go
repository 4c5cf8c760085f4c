package handlers

import (
	"collection-route-service/internal/adapters/origin"
	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/domain"
	"net/http"
	"strings"
)

type LocationHandler struct {
	Tracker *origin.Tracker
}

// Record stores a collector's current position so later route requests can
// fall back to it when the device cannot produce a fresh reading.
func (h *LocationHandler) Record(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if h.Tracker == nil {
		writeError(w, r, http.StatusNotImplemented, "location tracking is disabled")
		return
	}

	collectorID := strings.TrimSpace(r.PathValue("id"))
	if collectorID == "" {
		writeError(w, r, http.StatusBadRequest, "collector id is required")
		return
	}

	var req dto.LocationRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	p, err := domain.NewGeoPoint(*req.Lat, *req.Lng)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Tracker.Record(collectorID, p); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
