package repositories

import (
	"collection-route-service/internal/domain"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the PostgreSQL database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createReportsQuery := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		name TEXT,
		location TEXT NOT NULL,
		waste_type TEXT,
		fill_level TEXT,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		approved_at TIMESTAMPTZ,
		collected_at TIMESTAMPTZ
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_reports_status_created_at
	ON reports(status, created_at);
	`

	statements := []string{
		createReportsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ReportSeed struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Location  string    `json:"location"`
	WasteType string    `json:"waste_type,omitempty"`
	FillLevel string    `json:"fill_level,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// LoadSeeds reads and validates report seeds from a JSON file.
func LoadSeeds(jsonPath string) ([]ReportSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed reports: read %q: %w", jsonPath, err)
	}

	var data []ReportSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed reports: parse json: %w", err)
	}

	rows := make([]ReportSeed, 0, len(data))
	for i, item := range data {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("seed reports: item at index %d: id cannot be empty", i+1)
		}

		item.Location = strings.TrimSpace(item.Location)
		if item.Location == "" {
			return nil, fmt.Errorf("seed reports: item %q: location cannot be empty", item.ID)
		}

		if (item.Lat == nil) != (item.Lng == nil) {
			return nil, fmt.Errorf("seed reports: item %q: lat and lng must be set together", item.ID)
		}
		if item.Lat != nil {
			if _, err := domain.NewGeoPoint(*item.Lat, *item.Lng); err != nil {
				return nil, fmt.Errorf("seed reports: item %q: %w", item.ID, err)
			}
		}

		switch domain.ReportStatus(item.Status) {
		case "":
			item.Status = string(domain.StatusApproved)
		case domain.StatusPending, domain.StatusApproved, domain.StatusCollected:
		default:
			return nil, fmt.Errorf("seed reports: item %q: unknown status %q", item.ID, item.Status)
		}

		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		rows = append(rows, item)
	}

	return rows, nil
}

// Populate the database with report data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	rows, err := LoadSeeds(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed reports: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO reports (
		id,
		name,
		location,
		waste_type,
		fill_level,
		lat,
		lng,
		status,
		created_at
	)
	VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		location = EXCLUDED.location,
		waste_type = EXCLUDED.waste_type,
		fill_level = EXCLUDED.fill_level,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		status = EXCLUDED.status;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed reports: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.ID, r.Name, r.Location, r.WasteType, r.FillLevel, r.Lat, r.Lng, r.Status, r.CreatedAt); err != nil {
			return fmt.Errorf("seed reports: insert id=%q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed reports: commit tx: %w", err)
	}

	return nil
}
