package repositories

import (
	"collection-route-service/internal/domain"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PostgreSQL-backed implementation of the ReportRepository port.
type PostgresReportRepository struct{ DB *sql.DB }

func NewPostgresReportRepository(db *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{DB: db}
}

// Return all approved reports, oldest first.
func (p *PostgresReportRepository) ListApproved(ctx context.Context) ([]domain.WasteReport, error) {
	if p.DB == nil {
		return nil, errors.New("postgres report repository: DB is nil")
	}

	query := `
	SELECT
		id,
		location,
		waste_type,
		fill_level,
		lat,
		lng,
		status,
		created_at
	FROM reports
	WHERE status = $1
	ORDER BY created_at, id;
	`
	rows, err := p.DB.QueryContext(ctx, query, string(domain.StatusApproved))
	if err != nil {
		return nil, fmt.Errorf("list approved reports: query reports table: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.WasteReport, 0, 64)
	for rows.Next() {
		var (
			r         domain.WasteReport
			status    string
			wasteType sql.NullString
			fillLevel sql.NullString
			lat, lng  sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.LocationName, &wasteType, &fillLevel, &lat, &lng, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list approved reports: scan row: %w", err)
		}

		r.Status = domain.ReportStatus(status)
		r.WasteType = wasteType.String
		if fillLevel.Valid {
			r.FillLevel = ParseFillLevel(fillLevel.String)
		}
		if lat.Valid && lng.Valid {
			r.Coordinates = &domain.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list approved reports: row iteration: %w", err)
	}

	return reports, nil
}

// Move an approved report to collected and stamp collected_at.
// Only approved reports can be collected.
func (p *PostgresReportRepository) MarkCollected(ctx context.Context, id string) error {
	if p.DB == nil {
		return errors.New("postgres report repository: DB is nil")
	}

	res, err := p.DB.ExecContext(ctx, `
	UPDATE reports
	SET status = $1, collected_at = now()
	WHERE id = $2 AND status = $3;
	`, string(domain.StatusCollected), id, string(domain.StatusApproved))
	if err != nil {
		return fmt.Errorf("mark report %q collected: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark report %q collected: rows affected: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var status string
	err = p.DB.QueryRowContext(ctx, `SELECT status FROM reports WHERE id = $1;`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mark report %q collected: %w", id, domain.ErrReportNotFound)
	}
	if err != nil {
		return fmt.Errorf("mark report %q collected: read status: %w", id, err)
	}
	return fmt.Errorf("mark report %q collected: status %s: %w", id, status, domain.ErrReportNotApproved)
}

// ParseFillLevel reads a stored fill level such as "80" or "80%".
// Anything that is not a whole percentage in [0,100] is treated as absent.
func ParseFillLevel(s string) *int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return nil
	}
	return &n
}
