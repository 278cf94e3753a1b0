package domain

import (
	"time"

	"github.com/google/uuid"
)

// Number of calendar years covered by one irradiance download.
const SolarHistoryYears = 10

// Multi-year irradiance lookup for one coordinate. Constructed per fetch,
// never persisted.
type SolarFetchRequest struct {
	Coordinate Coordinate
	StartYear  int
	EndYear    int
}

// Build a request spanning the 10 years ending with the previous calendar year.
func NewSolarFetchRequest(c Coordinate, now time.Time) SolarFetchRequest {
	end := now.Year() - 1
	return SolarFetchRequest{
		Coordinate: c,
		StartYear:  end - SolarHistoryYears + 1,
		EndYear:    end,
	}
}

type SolarFetchResult struct {
	DailyRecordCount int
}

// One day of historical irradiance. Radiation is nil when the provider
// has no value for that day.
type DailyIrradiance struct {
	Date        time.Time
	RadiationMJ *float64
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Transient user-facing message. Sinks are expected to dismiss it on their own.
type Notification struct {
	ID        uuid.UUID
	ProjectID string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

func NewNotification(projectID, message string, severity Severity, now time.Time) Notification {
	return Notification{
		ID:        uuid.New(),
		ProjectID: projectID,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
	}
}
