package dto

import "time"

type ReportResponse struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	WasteType string    `json:"waste_type,omitempty"`
	FillLevel *int      `json:"fill_level,omitempty"`
	Urgency   string    `json:"urgency"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ListReportResponse struct {
	Reports []ReportResponse `json:"reports"`
}

type CollectReportResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
