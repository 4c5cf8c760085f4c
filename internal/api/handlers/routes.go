package handlers

import (
	"collection-route-service/internal/adapters/origin"
	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

type RouteHandler struct {
	Repo    ports.ReportRepository
	Planner *services.RoutePlanner
	Tracker *origin.Tracker
	// Collector base used when no live or recent reading exists; may be nil.
	Base *domain.GeoPoint
}

// Plan builds a collection route over all approved reports.
//
// The origin is taken from the collector's stored base in the request, then
// the device reading, then the collector's recent recorded location, then the
// service-wide base.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RouteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	chain, err := h.originChain(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := h.Repo.ListApproved(r.Context())
	if err != nil {
		slog.Error("list approved reports failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	result, err := h.Planner.NewSession(chain).Run(r.Context(), reports)
	if err != nil {
		var oe *domain.OriginUnavailableError
		switch {
		case errors.As(err, &oe):
			writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
				Error:  oe.Reason.Message(),
				Reason: string(oe.Reason),
			})
		case errors.Is(err, domain.ErrInsufficientDestinations):
			writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
				Error:  "No approved reports with a known location.",
				Reason: "insufficient_destinations",
			})
		default:
			slog.Error("plan route failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, toRouteResponse(result))
}

func (h *RouteHandler) originChain(req dto.RouteRequest) (origin.Chain, error) {
	var chain origin.Chain

	if req.Base != nil {
		p, err := domain.NewGeoPoint(req.Base.Lat, req.Base.Lng)
		if err != nil {
			return nil, fmt.Errorf("base: %w", err)
		}
		chain = append(chain, origin.Fixed{Point: p})
	}

	switch {
	case req.OriginError != "":
		reason, err := domain.ParseOriginFailureReason(strings.TrimSpace(req.OriginError))
		if err != nil {
			return nil, err
		}
		chain = append(chain, origin.Sensor{Failure: reason})
	case req.Origin != nil:
		p, err := domain.NewGeoPoint(req.Origin.Lat, req.Origin.Lng)
		if err != nil {
			return nil, err
		}
		chain = append(chain, origin.Sensor{Reading: &p})
	}

	if id := strings.TrimSpace(req.CollectorID); id != "" && h.Tracker != nil {
		chain = append(chain, h.Tracker.LastKnown(id))
	}
	if h.Base != nil {
		chain = append(chain, origin.Fixed{Point: *h.Base})
	}

	return chain, nil
}

func toRouteResponse(res *domain.RouteResult) dto.RouteResponse {
	out := dto.RouteResponse{
		Origin:           latLng(res.Origin),
		Stops:            make([]dto.RouteStopResponse, 0, len(res.OrderedStops)),
		Legs:             make([]dto.RouteLegResponse, 0, len(res.Legs)),
		TotalDistanceKm:  res.TotalDistanceKm,
		DroppedReportIDs: res.DroppedReportIDs,
		NavigationURL:    res.NavigationURL(),
	}

	for _, s := range res.OrderedStops {
		out.Stops = append(out.Stops, dto.RouteStopResponse{
			ReportID:  s.Report.ID,
			Location:  s.Report.LocationName,
			WasteType: s.Report.WasteType,
			FillLevel: s.Report.FillLevel,
			Urgency:   s.Report.Urgency(),
			Lat:       s.Coordinates.Lat,
			Lng:       s.Coordinates.Lng,
			Geocoded:  s.Geocoded,
		})
	}
	for _, l := range res.Legs {
		out.Legs = append(out.Legs, dto.RouteLegResponse{
			From:       latLng(l.From),
			To:         latLng(l.To),
			DistanceKm: l.DistanceKm,
		})
	}

	if res.Partial() {
		out.Warning = fmt.Sprintf("%d report(s) could not be located and were left out of the route.", len(res.DroppedReportIDs))
	}
	if out.DroppedReportIDs == nil {
		out.DroppedReportIDs = []string{}
	}

	return out
}

func latLng(p domain.GeoPoint) dto.LatLng {
	return dto.LatLng{Lat: p.Lat, Lng: p.Lng}
}
