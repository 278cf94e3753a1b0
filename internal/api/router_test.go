package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"pool-site-service/internal/adapters/cache"
	"pool-site-service/internal/adapters/irradiance"
	"pool-site-service/internal/adapters/notify"
	"pool-site-service/internal/adapters/repositories"
	"pool-site-service/internal/api/dto"
	"pool-site-service/internal/platform/db"
	"pool-site-service/internal/platform/obs"
	"pool-site-service/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	provider *irradiance.MockProvider
	sync     *services.SolarDataSync
}

func newTestServer(t *testing.T, provider *irradiance.MockProvider) *testServer {
	t.Helper()

	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(context.Background(), conn))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	notifier, err := notify.NewRedisNotifier(rdb, "site-notifications", 4*time.Second)
	require.NoError(t, err)

	repo := repositories.NewSqliteSiteRepository(conn)
	store := cache.NewSqliteIrradianceCache(conn)
	sync := services.NewSolarDataSync(repo, provider, store, notifier, services.SolarSyncOptions{
		BackgroundDelay: -1,
		Now:             func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sync.Shutdown(ctx)
	})

	reg := prometheus.NewRegistry()
	require.NoError(t, obs.RegisterMetrics(reg))

	return &testServer{
		handler: NewRouter(RouterDeps{
			Sites:   services.NewSiteService(repo, sync),
			Sync:    sync,
			Store:   store,
			Feed:    notifier,
			Metrics: reg,
		}),
		provider: provider,
		sync:     sync,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, nil))

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestGeoSummary(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, nil))

	rec := s.do(t, http.MethodGet, "/geo/summary?lat=59.91&lng=10.75", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.SummaryResponse](t, rec)
	assert.Equal(t, "Southern region", res.Region)
	assert.Equal(t, "1050", res.SolarYield)
	assert.True(t, res.HasLocation)
	assert.Equal(t, 14, res.Zoom)
	require.Len(t, res.BoundingBox, 4)
	assert.InDelta(t, 10.735, res.BoundingBox[0], 1e-9)
	assert.InDelta(t, 59.92, res.BoundingBox[3], 1e-9)

	rec = s.do(t, http.MethodGet, "/geo/summary?lat=40&lng=-3.7&zoom=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[dto.SummaryResponse](t, rec)
	assert.Equal(t, "40.00°N, -3.70°E", res.Region)
	assert.Equal(t, "-", res.SolarYield)
	assert.Equal(t, 12, res.Zoom)

	for _, q := range []string{"lng=10", "lat=abc&lng=10", "lat=60&lng=10&zoom=x"} {
		rec = s.do(t, http.MethodGet, "/geo/summary?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetSiteCreatesEmptySite(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, nil))

	rec := s.do(t, http.MethodGet, "/sites/p-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.SiteResponse](t, rec)
	assert.Equal(t, "p-1", res.ProjectID)
	assert.Nil(t, res.Latitude)
	assert.Nil(t, res.Longitude)
	assert.Nil(t, res.Station)
	assert.Nil(t, res.Solar.LastFetchedAt)
	assert.Nil(t, res.Solar.DailyRecordCount)
	assert.False(t, res.Summary.HasLocation)
	assert.Equal(t, "-", res.Summary.SolarYield)
	assert.Empty(t, res.Summary.BoundingBox)
	assert.Equal(t, "idle", res.Sync.State)
}

func TestPutSiteRejectsInvalidCoordinate(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(3650, nil))

	lat, lon := 95.0, 10.0
	rec := s.do(t, http.MethodPut, "/sites/p-1", dto.SaveSiteRequest{Latitude: &lat, Longitude: &lon})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/sites/p-1", strings.NewReader(`{"latitude": 60, "extra": 1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, s.provider.Requests())
}

func TestPutSiteSchedulesBackgroundFetch(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(3650, nil))

	lat, lon := 59.91, 10.75
	rec := s.do(t, http.MethodPut, "/sites/p-1", dto.SaveSiteRequest{
		Latitude:  &lat,
		Longitude: &lon,
		Station:   &dto.StationDTO{ID: "SN18700", Name: "Oslo - Blindern"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	saved := decode[dto.SaveSiteResponse](t, rec)
	assert.True(t, saved.SolarFetchScheduled)
	assert.Equal(t, "Southern region", saved.Site.Summary.Region)
	require.NotNil(t, saved.Site.Station)
	assert.Equal(t, "SN18700", saved.Site.Station.ID)

	var site dto.SiteResponse
	require.Eventually(t, func() bool {
		site = decode[dto.SiteResponse](t, s.do(t, http.MethodGet, "/sites/p-1", nil))
		return site.Solar.DailyRecordCount != nil && len(site.Notifications) == 1
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 3650, *site.Solar.DailyRecordCount)
	assert.NotNil(t, site.Solar.LastFetchedAt)
	assert.Equal(t, "success", site.Notifications[0].Severity)

	reqs := s.provider.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 2016, reqs[0].StartYear)
	assert.Equal(t, 2025, reqs[0].EndYear)

	// Saving the same coordinate again does not fetch.
	rec = s.do(t, http.MethodPut, "/sites/p-1", dto.SaveSiteRequest{Latitude: &lat, Longitude: &lon})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.SaveSiteResponse](t, rec).SolarFetchScheduled)

	rec = s.do(t, http.MethodGet, "/sites/p-1/irradiance?from=2016-01-01&to=2016-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[dto.IrradianceResponse](t, rec)
	require.Len(t, days.Days, 10)
	assert.Equal(t, "2016-01-01", days.Days[0].Date)
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(365, nil))

	rec := s.do(t, http.MethodPost, "/sites/missing/solar/refresh", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Creates the empty site.
	s.do(t, http.MethodGet, "/sites/p-1", nil)
	rec = s.do(t, http.MethodPost, "/sites/p-1/solar/refresh", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	lat, lon := 63.43, 10.39
	rec = s.do(t, http.MethodPut, "/sites/p-2", dto.SaveSiteRequest{Latitude: &lat, Longitude: &lon})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/sites/p-2/solar/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.RefreshResponse](t, rec)
	assert.Equal(t, 365, res.DailyRecordCount)
	assert.Equal(t, "Solar data updated: 365 daily records", res.Message)

	site := decode[dto.SiteResponse](t, s.do(t, http.MethodGet, "/sites/p-2", nil))
	assert.Equal(t, "idle", site.Sync.State)
	assert.Equal(t, "succeeded", site.Sync.LastOutcome)
}

func TestRefreshProviderFailure(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, errors.New("dial tcp: connection refused")))

	lat, lon := 60.39, 5.32
	rec := s.do(t, http.MethodPut, "/sites/p-1", dto.SaveSiteRequest{Latitude: &lat, Longitude: &lon})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/sites/p-1/solar/refresh", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Could not fetch solar data", body["error"])

	site := decode[dto.SiteResponse](t, s.do(t, http.MethodGet, "/sites/p-1", nil))
	assert.Equal(t, "idle", site.Sync.State)
	assert.Equal(t, "failed", site.Sync.LastOutcome)
	assert.Nil(t, site.Solar.DailyRecordCount)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, irradiance.NewMockProvider(0, nil))

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solar_fetch_duration_seconds")
}
