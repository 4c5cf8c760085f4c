package domain

import "time"

// Lifecycle status of a waste report as stored by the persistence service.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusApproved  ReportStatus = "approved"
	StatusCollected ReportStatus = "collected"
)

// Fill level thresholds (percent) used to flag reports.
const (
	UrgentFillLevel  = 80
	WarningFillLevel = 50
)

// Represents a citizen-submitted waste report.
// Reports are owned by the persistence service; the route planner only reads them.
// Coordinates and FillLevel are nil when the reporter did not provide them.
type WasteReport struct {
	ID           string
	LocationName string
	Coordinates  *GeoPoint
	FillLevel    *int
	WasteType    string
	CreatedAt    time.Time
	Status       ReportStatus
}

// HasValidCoordinates reports whether the report can be routed without geocoding.
func (r WasteReport) HasValidCoordinates() bool {
	return r.Coordinates != nil && r.Coordinates.Validate() == nil
}

// Urgency classifies the report by fill level: "urgent", "warning" or "normal".
func (r WasteReport) Urgency() string {
	if r.FillLevel == nil {
		return "normal"
	}
	switch lvl := *r.FillLevel; {
	case lvl >= UrgentFillLevel:
		return "urgent"
	case lvl >= WarningFillLevel:
		return "warning"
	default:
		return "normal"
	}
}

// A report paired with definite coordinates, either original or geocoded.
type ResolvedReport struct {
	Report      WasteReport
	Coordinates GeoPoint
	Geocoded    bool
}
