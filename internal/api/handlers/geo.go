package handlers

import (
	"math"
	"net/http"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/services"
	"strconv"
	"strings"
)

// GeoSummary derives the display values for an arbitrary point without
// touching any stored site.
func GeoSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	if err != nil || !finite(lat) {
		writeError(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	if err != nil || !finite(lng) {
		writeError(w, r, http.StatusBadRequest, "lng must be a number")
		return
	}

	zoom := services.DefaultZoom
	if v := strings.TrimSpace(q.Get("zoom")); v != "" {
		zoom, err = strconv.Atoi(v)
		if err != nil || zoom < 0 || zoom > 22 {
			writeError(w, r, http.StatusBadRequest, "zoom must be an integer between 0 and 22")
			return
		}
	}

	sum := services.Summarize(domain.NewCoordinate(lat, lng), zoom)
	writeJSON(w, r, http.StatusOK, toSummaryResponse(sum, zoom))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
