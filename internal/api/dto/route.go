package dto

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RouteRequest struct {
	CollectorID string `json:"collector_id"`
	// The collector's stored base; used ahead of any live reading.
	Base   *LatLng `json:"base"`
	Origin *LatLng `json:"origin"`
	// Reported by the device when it could not produce a reading:
	// "denied", "timeout" or "unsupported".
	OriginError string `json:"origin_error"`
}

type RouteStopResponse struct {
	ReportID  string  `json:"report_id"`
	Location  string  `json:"location"`
	WasteType string  `json:"waste_type,omitempty"`
	FillLevel *int    `json:"fill_level,omitempty"`
	Urgency   string  `json:"urgency"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Geocoded  bool    `json:"geocoded"`
}

type RouteLegResponse struct {
	From       LatLng  `json:"from"`
	To         LatLng  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

type RouteResponse struct {
	Origin           LatLng              `json:"origin"`
	Stops            []RouteStopResponse `json:"stops"`
	Legs             []RouteLegResponse  `json:"legs"`
	TotalDistanceKm  float64             `json:"total_distance_km"`
	DroppedReportIDs []string            `json:"dropped_report_ids"`
	Warning          string              `json:"warning,omitempty"`
	NavigationURL    string              `json:"navigation_url"`
}

type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
