package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"pool-site-service/internal/api/dto"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

func toSummaryResponse(s services.SiteSummary, zoom int) dto.SummaryResponse {
	res := dto.SummaryResponse{
		Region:      s.Region,
		SolarYield:  s.SolarYield,
		HasLocation: s.HasLocation,
		Zoom:        zoom,
	}
	if s.BoundingBox != nil {
		res.BoundingBox = s.BoundingBox.BBox()
	}
	return res
}

func toSyncResponse(st services.SyncStatus) dto.SyncStatusResponse {
	res := dto.SyncStatusResponse{
		State:            string(st.State),
		LastOutcome:      string(st.LastOutcome),
		Message:          st.Message,
		DailyRecordCount: st.DailyRecordCount,
	}
	if !st.UpdatedAt.IsZero() {
		at := st.UpdatedAt
		res.UpdatedAt = &at
	}
	return res
}

func toSiteResponse(site *domain.Site, st services.SyncStatus) dto.SiteResponse {
	res := dto.SiteResponse{
		ProjectID: site.ProjectID,
		Latitude:  site.Location.Lat,
		Longitude: site.Location.Lon,
		Solar: dto.SolarMetadataResponse{
			LastFetchedAt:    site.Solar.LastFetchedAt,
			DailyRecordCount: site.Solar.DailyRecordCount,
		},
		UpdatedAt: site.UpdatedAt,
		Summary:   toSummaryResponse(services.Summarize(site.Location, services.DefaultZoom), services.DefaultZoom),
		Sync:      toSyncResponse(st),
	}
	if site.Station != nil {
		res.Station = &dto.StationDTO{ID: site.Station.ID, Name: site.Station.Name}
	}
	return res
}

func toNotificationResponses(notes []domain.Notification) []dto.NotificationResponse {
	out := make([]dto.NotificationResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNotificationResponse(n))
	}
	return out
}

func toNotificationResponse(n domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID.String(),
		Message:   n.Message,
		Severity:  string(n.Severity),
		CreatedAt: n.CreatedAt,
	}
}
