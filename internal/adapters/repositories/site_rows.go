package repositories

import (
	"database/sql"
	"pool-site-service/internal/domain"
	"time"
)

// Nullable column values of one sites row.
type siteRow struct {
	projectID     string
	lat, lon      sql.NullFloat64
	stationID     sql.NullString
	stationName   sql.NullString
	lastFetchedAt sql.NullInt64
	recordCount   sql.NullInt64
	updatedAt     int64
}

func (r *siteRow) scanTargets() []any {
	return []any{
		&r.projectID, &r.lat, &r.lon, &r.stationID, &r.stationName,
		&r.lastFetchedAt, &r.recordCount, &r.updatedAt,
	}
}

func (r *siteRow) toSite() *domain.Site {
	site := domain.NewSite(r.projectID)
	if r.lat.Valid {
		v := r.lat.Float64
		site.Location.Lat = &v
	}
	if r.lon.Valid {
		v := r.lon.Float64
		site.Location.Lon = &v
	}
	if r.stationID.Valid {
		site.Station = &domain.WeatherStation{ID: r.stationID.String, Name: r.stationName.String}
	}
	// The pair is written together; a half-populated row is treated as never fetched.
	if r.lastFetchedAt.Valid && r.recordCount.Valid {
		site.RecordSolarFetch(time.UnixMilli(r.lastFetchedAt.Int64).UTC(), int(r.recordCount.Int64))
	}
	site.UpdatedAt = time.UnixMilli(r.updatedAt).UTC()
	return site
}

// Column values for an upsert, in sites column order.
func siteArgs(s *domain.Site) []any {
	var lat, lon sql.NullFloat64
	if s.Location.Lat != nil {
		lat = sql.NullFloat64{Float64: *s.Location.Lat, Valid: true}
	}
	if s.Location.Lon != nil {
		lon = sql.NullFloat64{Float64: *s.Location.Lon, Valid: true}
	}

	var stationID, stationName sql.NullString
	if s.Station != nil {
		stationID = sql.NullString{String: s.Station.ID, Valid: true}
		stationName = sql.NullString{String: s.Station.Name, Valid: true}
	}

	var fetchedAt, count sql.NullInt64
	if s.Solar.LastFetchedAt != nil && s.Solar.DailyRecordCount != nil {
		fetchedAt = sql.NullInt64{Int64: s.Solar.LastFetchedAt.UnixMilli(), Valid: true}
		count = sql.NullInt64{Int64: int64(*s.Solar.DailyRecordCount), Valid: true}
	}

	return []any{
		s.ProjectID, lat, lon, stationID, stationName,
		fetchedAt, count, s.UpdatedAt.UnixMilli(),
	}
}
