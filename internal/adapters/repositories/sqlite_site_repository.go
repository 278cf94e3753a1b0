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

// SQLite-backed implementation of the SiteRepository port.
type SqliteSiteRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSqliteSiteRepository(db *sql.DB) *SqliteSiteRepository {
	return &SqliteSiteRepository{DB: db, Now: time.Now}
}

func (s *SqliteSiteRepository) LoadSite(ctx context.Context, projectID string) (_ *domain.Site, err error) {
	defer obs.Time(ctx, "sites.sqlite.LoadSite")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite site repository: DB is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("load site: project id must not be empty")
	}

	query := `
	SELECT
		project_id,
		latitude,
		longitude,
		station_id,
		station_name,
		solar_last_fetched_at,
		solar_daily_record_count,
		updated_at
	FROM sites
	WHERE project_id = ?;
	`

	var row siteRow
	if err := s.DB.QueryRowContext(ctx, query, projectID).Scan(row.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load site project_id=%s: %w", projectID, domain.ErrSiteNotFound)
		}
		return nil, fmt.Errorf("load site: query sites table: %w", err)
	}

	return row.toSite(), nil
}

func (s *SqliteSiteRepository) SaveSite(ctx context.Context, site *domain.Site) (err error) {
	defer obs.Time(ctx, "sites.sqlite.SaveSite")(&err)

	if s.DB == nil {
		return errors.New("sqlite site repository: DB is nil")
	}
	if site == nil || strings.TrimSpace(site.ProjectID) == "" {
		return errors.New("save site: site must have a project id")
	}

	site.UpdatedAt = s.Now().UTC()

	query := `
	INSERT OR REPLACE INTO sites (
		project_id,
		latitude,
		longitude,
		station_id,
		station_name,
		solar_last_fetched_at,
		solar_daily_record_count,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, query, siteArgs(site)...); err != nil {
		return fmt.Errorf("save site project_id=%s: %w", site.ProjectID, err)
	}

	return nil
}
