package api

import (
	"net/http"
	"pool-site-service/internal/api/handlers"
	"pool-site-service/internal/platform/obs"
	"pool-site-service/internal/ports"
	"pool-site-service/internal/services"

	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies of the HTTP surface. Store, Feed, Stream and Metrics are optional.
type RouterDeps struct {
	Sites   *services.SiteService
	Sync    *services.SolarDataSync
	Store   ports.IrradianceStore
	Feed    ports.NotificationFeed
	Stream  ports.NotificationStream
	Metrics prometheus.Gatherer
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	siteHandler := &handlers.SiteHandler{
		Sites: deps.Sites,
		Sync:  deps.Sync,
		Store: deps.Store,
		Feed:  deps.Feed,
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /geo/summary", handlers.GeoSummary)
	mux.HandleFunc("GET /sites/{projectID}", siteHandler.Get)
	mux.HandleFunc("PUT /sites/{projectID}", siteHandler.Put)
	mux.HandleFunc("POST /sites/{projectID}/solar/refresh", siteHandler.Refresh)
	mux.HandleFunc("GET /sites/{projectID}/irradiance", siteHandler.Irradiance)

	if deps.Stream != nil {
		streamHandler := &handlers.NotificationStreamHandler{Stream: deps.Stream}
		mux.HandleFunc("GET /sites/{projectID}/notifications/stream", streamHandler.Serve)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", obs.MetricsHandler(deps.Metrics))
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
