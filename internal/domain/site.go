package domain

import (
	"errors"
	"time"
)

var ErrSiteNotFound = errors.New("site not found")

// Weather station linked to a site for historical observations.
type WeatherStation struct {
	ID   string
	Name string
}

// Metadata about the last successful irradiance download.
// Both fields are nil until the first fetch and are always set together.
type SolarMetadata struct {
	LastFetchedAt    *time.Time
	DailyRecordCount *int
}

// Located installation belonging to a project. A project owns at most one
// site, so the project ID doubles as the site key.
type Site struct {
	ProjectID string
	Location  Coordinate
	Station   *WeatherStation
	Solar     SolarMetadata
	UpdatedAt time.Time
}

// Create the empty site used the first time a project is loaded.
func NewSite(projectID string) *Site {
	return &Site{ProjectID: projectID}
}

// Record a completed irradiance fetch. The timestamp and count are
// replaced as a pair.
func (s *Site) RecordSolarFetch(at time.Time, dailyRecordCount int) {
	count := dailyRecordCount
	s.Solar = SolarMetadata{
		LastFetchedAt:    &at,
		DailyRecordCount: &count,
	}
}
