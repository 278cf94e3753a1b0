package cache

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

// SQLite backed store of downloaded daily irradiance. Days are stored as
// YYYY-MM-DD strings so range queries compare lexically.
type SqliteIrradianceCache struct {
	DB *sql.DB
}

func NewSqliteIrradianceCache(db *sql.DB) *SqliteIrradianceCache {
	return &SqliteIrradianceCache{DB: db}
}

// Fetch cached days for a project within [from, to].
func (s *SqliteIrradianceCache) GetMany(
	ctx context.Context,
	projectID string,
	from, to time.Time,
) (_ []domain.DailyIrradiance, err error) {
	defer obs.Time(ctx, "irradiance.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("irradiance cache: db is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("get irradiance cache: project id must not be empty")
	}

	q := `
	SELECT
        day,
        radiation_mj
    FROM irradiance_daily
    WHERE project_id = ?
        AND day BETWEEN ? AND ?
    ORDER BY day;
	`

	rows, err := s.DB.QueryContext(ctx, q, projectID, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("get irradiance cache: query irradiance_daily table: %w", err)
	}
	defer rows.Close()

	return scanDays(rows)
}

// Store many days for a single project, replacing existing values.
func (s *SqliteIrradianceCache) PutMany(
	ctx context.Context,
	projectID string,
	days []domain.DailyIrradiance,
) (err error) {
	defer obs.Time(ctx, "irradiance.sqlite.PutMany")(&err)

	if s.DB == nil {
		return errors.New("irradiance cache: db is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return errors.New("insert irradiance cache: project id must not be empty")
	}
	if len(days) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert irradiance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO irradiance_daily (
        project_id,
        day,
        radiation_mj
    )
    VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert irradiance cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, projectID, d.Date.Format(time.DateOnly), nullable(d.RadiationMJ)); err != nil {
			return fmt.Errorf("insert irradiance cache day=%s: %w", d.Date.Format(time.DateOnly), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert irradiance cache commit: %w", err)
	}

	return nil
}
