package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLSiteRepository is the Postgres (pgx) implementation of the SiteRepository port.
type SQLSiteRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLSiteRepository(db *sql.DB) *SQLSiteRepository {
	return &SQLSiteRepository{DB: db, Now: time.Now}
}

func (s *SQLSiteRepository) LoadSite(ctx context.Context, projectID string) (_ *domain.Site, err error) {
	defer obs.Time(ctx, "sites.sql.LoadSite")(&err)

	if s.DB == nil {
		return nil, errors.New("site repository: db is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("load site: project id must not be empty")
	}

	q := `
	SELECT project_id, latitude, longitude, station_id, station_name,
		solar_last_fetched_at, solar_daily_record_count, updated_at
	FROM sites
	WHERE project_id = $1;
	`

	var row siteRow
	if err := s.DB.QueryRowContext(ctx, q, projectID).Scan(row.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load site project_id=%s: %w", projectID, domain.ErrSiteNotFound)
		}
		return nil, fmt.Errorf("load site: query sites table: %w", err)
	}

	return row.toSite(), nil
}

func (s *SQLSiteRepository) SaveSite(ctx context.Context, site *domain.Site) (err error) {
	defer obs.Time(ctx, "sites.sql.SaveSite")(&err)

	if s.DB == nil {
		return errors.New("site repository: db is nil")
	}
	if site == nil || strings.TrimSpace(site.ProjectID) == "" {
		return errors.New("save site: site must have a project id")
	}

	site.UpdatedAt = s.Now().UTC()

	q := `
	INSERT INTO sites (project_id, latitude, longitude, station_id, station_name,
		solar_last_fetched_at, solar_daily_record_count, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (project_id) DO UPDATE
	SET latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		station_id = EXCLUDED.station_id,
		station_name = EXCLUDED.station_name,
		solar_last_fetched_at = EXCLUDED.solar_last_fetched_at,
		solar_daily_record_count = EXCLUDED.solar_daily_record_count,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, siteArgs(site)...); err != nil {
		return fmt.Errorf("save site project_id=%s: %w", site.ProjectID, err)
	}

	return nil
}
