package handlers

import (
	"errors"
	"log"
	"net/http"
	"pool-site-service/internal/api/dto"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/ports"
	"pool-site-service/internal/services"
	"strings"
	"time"
)

// SiteHandler exposes the site record of a project and its solar sync.
type SiteHandler struct {
	Sites *services.SiteService
	Sync  *services.SolarDataSync
	// Optional; nil disables the irradiance endpoint.
	Store ports.IrradianceStore
	// Optional; nil omits notifications from site responses.
	Feed ports.NotificationFeed
}

func projectID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("projectID"))
}

func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "project id is required")
		return
	}

	site, err := h.Sites.LoadSite(r.Context(), id)
	if err != nil {
		log.Printf("load site failed: project_id=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := toSiteResponse(site, h.Sync.Status(id))
	if h.Feed != nil {
		notes, err := h.Feed.Active(r.Context(), id)
		if err != nil {
			log.Printf("list notifications failed: project_id=%s err=%v", id, err)
		} else {
			res.Notifications = toNotificationResponses(notes)
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Put saves the coordinate and station. A moved coordinate schedules a
// background solar fetch; the response does not wait for it.
func (h *SiteHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "project id is required")
		return
	}

	var req dto.SaveSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	upd := services.SiteUpdate{
		Location: domain.Coordinate{Lat: req.Latitude, Lon: req.Longitude},
	}
	if req.Station != nil {
		stationID := strings.TrimSpace(req.Station.ID)
		if stationID == "" {
			writeError(w, r, http.StatusBadRequest, "station.id is required when station is set")
			return
		}
		upd.Station = &domain.WeatherStation{ID: stationID, Name: strings.TrimSpace(req.Station.Name)}
	}

	site, task, err := h.Sites.SaveSite(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCoordinate) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("save site failed: project_id=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SaveSiteResponse{
		Site:                toSiteResponse(site, h.Sync.Status(id)),
		SolarFetchScheduled: task != nil,
	})
}

// Refresh runs a foreground fetch. Concurrent refreshes of the same site
// join the call already in flight.
func (h *SiteHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "project id is required")
		return
	}

	res, err := h.Sync.Refresh(r.Context(), id)
	if err != nil {
		var fe *services.FetchError
		switch {
		case errors.Is(err, domain.ErrSiteNotFound):
			writeError(w, r, http.StatusNotFound, "site not found")
		case errors.Is(err, services.ErrNoLocation):
			writeError(w, r, http.StatusUnprocessableEntity, "site has no coordinates")
		case errors.As(err, &fe):
			log.Printf("solar refresh failed: project_id=%s err=%v", id, err)
			writeError(w, r, http.StatusBadGateway, fe.Message)
		default:
			log.Printf("solar refresh failed: project_id=%s err=%v", id, err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RefreshResponse{
		ProjectID:        id,
		DailyRecordCount: res.DailyRecordCount,
		Message:          services.SuccessMessage(res),
	})
}

// Irradiance lists stored daily values. from and to default to the window
// a fetch started today would cover.
func (h *SiteHandler) Irradiance(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, r, http.StatusNotImplemented, "irradiance storage is disabled")
		return
	}

	id := projectID(r)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "project id is required")
		return
	}

	window := domain.NewSolarFetchRequest(domain.Coordinate{}, time.Now())
	from := time.Date(window.StartYear, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(window.EndYear, 12, 31, 0, 0, 0, 0, time.UTC)

	q := r.URL.Query()
	var err error
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		if from, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, r, http.StatusBadRequest, "from must be formatted as YYYY-MM-DD")
			return
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		if to, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, r, http.StatusBadRequest, "to must be formatted as YYYY-MM-DD")
			return
		}
	}
	if to.Before(from) {
		writeError(w, r, http.StatusBadRequest, "to must not be before from")
		return
	}

	days, err := h.Store.GetMany(r.Context(), id, from, to)
	if err != nil {
		log.Printf("list irradiance failed: project_id=%s err=%v", id, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.IrradianceResponse{
		ProjectID: id,
		From:      from.Format(time.DateOnly),
		To:        to.Format(time.DateOnly),
		Days:      make([]dto.DailyIrradianceResponse, 0, len(days)),
	}
	for _, d := range days {
		res.Days = append(res.Days, dto.DailyIrradianceResponse{
			Date:        d.Date.Format(time.DateOnly),
			RadiationMJ: d.RadiationMJ,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
