package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Outcomes of solar data fetches (mode: foreground|background, outcome: succeeded|failed).
	SolarFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solar_fetch_total", Help: "Solar data fetches by mode and outcome"},
		[]string{"mode", "outcome"},
	)
	SolarFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solar_fetch_duration_seconds",
			Help:    "Latency of irradiance provider calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "site_notifications_total", Help: "Notifications emitted by severity"},
		[]string{"severity"},
	)
)

// RegisterMetrics adds the service collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{SolarFetchTotal, SolarFetchDuration, NotificationsTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MetricsHandler serves the collectors registered on g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func ObserveFetch(mode, outcome string, start time.Time) {
	SolarFetchTotal.WithLabelValues(mode, outcome).Inc()
	SolarFetchDuration.Observe(time.Since(start).Seconds())
}
