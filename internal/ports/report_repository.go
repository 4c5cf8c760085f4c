package ports

import (
	"collection-route-service/internal/domain"
	"context"
)

// Port: a boundary for retrieving WasteReport entities from a data source.
type ReportRepository interface {
	// Retrieve all reports approved for collection.
	ListApproved(ctx context.Context) ([]domain.WasteReport, error)

	// Mark an approved report as collected. Returns domain.ErrReportNotFound
	// or domain.ErrReportNotApproved when the transition is not allowed.
	MarkCollected(ctx context.Context, id string) error
}
