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

// SQLIrradianceCache is a Postgres-backed store of downloaded daily
// irradiance, keyed by project and day.
type SQLIrradianceCache struct {
	DB *sql.DB
}

func NewSQLIrradianceCache(db *sql.DB) *SQLIrradianceCache {
	return &SQLIrradianceCache{DB: db}
}

// Fetch cached days for a project within [from, to].
func (s *SQLIrradianceCache) GetMany(
	ctx context.Context,
	projectID string,
	from, to time.Time,
) (_ []domain.DailyIrradiance, err error) {
	defer obs.Time(ctx, "irradiance.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("irradiance cache: db is nil")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("get irradiance cache: project id must not be empty")
	}

	q := `
	SELECT day, radiation_mj
    FROM irradiance_daily
    WHERE project_id = $1
        AND day BETWEEN $2 AND $3
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
func (s *SQLIrradianceCache) PutMany(
	ctx context.Context,
	projectID string,
	days []domain.DailyIrradiance,
) (err error) {
	defer obs.Time(ctx, "irradiance.cache.PutMany")(&err)

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
	INSERT INTO irradiance_daily (project_id, day, radiation_mj)
    VALUES ($1, $2, $3)
	ON CONFLICT (project_id, day) DO UPDATE
	SET radiation_mj = EXCLUDED.radiation_mj;
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

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func scanDays(rows *sql.Rows) ([]domain.DailyIrradiance, error) {
	out := make([]domain.DailyIrradiance, 0, 366)
	for rows.Next() {
		var day string
		var mj sql.NullFloat64
		if err := rows.Scan(&day, &mj); err != nil {
			return nil, fmt.Errorf("get irradiance cache: scan rows: %w", err)
		}

		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("get irradiance cache: parse day %q: %w", day, err)
		}

		d := domain.DailyIrradiance{Date: date}
		if mj.Valid {
			v := mj.Float64
			d.RadiationMJ = &v
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get irradiance cache: row iteration: %w", err)
	}

	return out, nil
}
