package handlers

import (
	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type ReportHandler struct {
	Repo ports.ReportRepository
}

// List returns the approved reports awaiting collection.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	reports, err := h.Repo.ListApproved(r.Context())
	if err != nil {
		slog.Error("list approved reports failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListReportResponse{Reports: make([]dto.ReportResponse, 0, len(reports))}
	for _, rep := range reports {
		item := dto.ReportResponse{
			ID:        rep.ID,
			Location:  rep.LocationName,
			WasteType: rep.WasteType,
			FillLevel: rep.FillLevel,
			Urgency:   rep.Urgency(),
			Status:    string(rep.Status),
			CreatedAt: rep.CreatedAt,
		}
		if rep.Coordinates != nil {
			lat, lng := rep.Coordinates.Lat, rep.Coordinates.Lng
			item.Lat, item.Lng = &lat, &lng
		}
		res.Reports = append(res.Reports, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Collect marks an approved report as collected once the collector has emptied the bin.
func (h *ReportHandler) Collect(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPatch) {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "report id is required")
		return
	}

	err := h.Repo.MarkCollected(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, dto.CollectReportResponse{ID: id, Status: string(domain.StatusCollected)})
	case errors.Is(err, domain.ErrReportNotFound):
		writeError(w, r, http.StatusNotFound, "report not found")
	case errors.Is(err, domain.ErrReportNotApproved):
		writeError(w, r, http.StatusConflict, "report is not approved for collection")
	default:
		slog.Error("mark report collected failed", "report_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
