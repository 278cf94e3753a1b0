package dto

import "time"

type StationDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SaveSiteRequest struct {
	Latitude  *float64    `json:"latitude"`
	Longitude *float64    `json:"longitude"`
	Station   *StationDTO `json:"station"`
}

type SolarMetadataResponse struct {
	LastFetchedAt    *time.Time `json:"last_fetched_at"`
	DailyRecordCount *int       `json:"daily_record_count"`
}

type SyncStatusResponse struct {
	State            string     `json:"state"`
	LastOutcome      string     `json:"last_outcome,omitempty"`
	Message          string     `json:"message,omitempty"`
	DailyRecordCount int        `json:"daily_record_count,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

type SiteResponse struct {
	ProjectID     string                 `json:"project_id"`
	Latitude      *float64               `json:"latitude"`
	Longitude     *float64               `json:"longitude"`
	Station       *StationDTO            `json:"station"`
	Solar         SolarMetadataResponse  `json:"solar"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Summary       SummaryResponse        `json:"summary"`
	Sync          SyncStatusResponse     `json:"sync"`
	Notifications []NotificationResponse `json:"notifications,omitempty"`
}

type SaveSiteResponse struct {
	Site                SiteResponse `json:"site"`
	SolarFetchScheduled bool         `json:"solar_fetch_scheduled"`
}

type RefreshResponse struct {
	ProjectID        string `json:"project_id"`
	DailyRecordCount int    `json:"daily_record_count"`
	Message          string `json:"message"`
}

type DailyIrradianceResponse struct {
	Date        string   `json:"date"`
	RadiationMJ *float64 `json:"radiation_mj"`
}

type IrradianceResponse struct {
	ProjectID string                    `json:"project_id"`
	From      string                    `json:"from"`
	To        string                    `json:"to"`
	Days      []DailyIrradianceResponse `json:"days"`
}
