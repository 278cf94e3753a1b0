package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/ports"
	"strings"
)

// Timestamps are stored as unix milliseconds so both dialects share one schema.
const createSitesQuery = `
	CREATE TABLE IF NOT EXISTS sites (
		project_id TEXT PRIMARY KEY,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		station_id TEXT,
		station_name TEXT,
		solar_last_fetched_at BIGINT,
		solar_daily_record_count INTEGER,
		updated_at BIGINT NOT NULL
	);
	`

const createIrradianceQuery = `
	CREATE TABLE IF NOT EXISTS irradiance_daily (
		project_id TEXT NOT NULL,
		day TEXT NOT NULL,
		radiation_mj DOUBLE PRECISION,
		PRIMARY KEY (project_id, day)
	);
	`

const createIrradianceIndexQuery = `
	CREATE INDEX IF NOT EXISTS idx_irradiance_daily_day
	ON irradiance_daily(day);
	`

// Initialize the database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		createSitesQuery,
		createIrradianceQuery,
		createIrradianceIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type SiteSeed struct {
	ProjectID   string   `json:"project_id"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	StationID   string   `json:"station_id"`
	StationName string   `json:"station_name"`
}

// Populate the database with sites from a JSON file. Sites that already
// exist are left untouched so edits survive a restart.
func SeedFromJSON(ctx context.Context, repo ports.SiteRepository, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed sites: read %q: %w", jsonPath, err)
	}

	var data []SiteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed sites: parse json: %w", err)
	}

	sites := make([]*domain.Site, 0, len(data))
	for i, item := range data {
		projectID := strings.TrimSpace(item.ProjectID)
		if projectID == "" {
			return fmt.Errorf("seed sites: item at index %d: project_id cannot be empty", i+1)
		}

		site := domain.NewSite(projectID)
		site.Location = domain.Coordinate{Lat: item.Latitude, Lon: item.Longitude}
		if err := site.Location.Validate(); err != nil {
			return fmt.Errorf("seed sites: item at index %d: %w", i+1, err)
		}
		if id := strings.TrimSpace(item.StationID); id != "" {
			site.Station = &domain.WeatherStation{ID: id, Name: strings.TrimSpace(item.StationName)}
		}
		sites = append(sites, site)
	}

	for _, s := range sites {
		_, err := repo.LoadSite(ctx, s.ProjectID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrSiteNotFound) {
			return fmt.Errorf("seed sites: project_id=%s: %w", s.ProjectID, err)
		}
		if err := repo.SaveSite(ctx, s); err != nil {
			return fmt.Errorf("seed sites: project_id=%s: %w", s.ProjectID, err)
		}
	}

	return nil
}
