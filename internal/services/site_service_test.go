package services

import (
	"context"
	"errors"
	"pool-site-service/internal/adapters/irradiance"
	"pool-site-service/internal/domain"
	"testing"
	"time"
)

func waitTask(t *testing.T, task *BackgroundTask) (domain.SolarFetchResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("background task did not finish")
	}
	return res, err
}

func TestLoadSiteCreatesEmptySite(t *testing.T) {
	repo := newMemorySiteRepo()
	s := newTestSync(repo, irradiance.NewMockProvider(0, nil), &recordingNotifier{}, -1)
	svc := NewSiteService(repo, s)

	site, err := svc.LoadSite(context.Background(), "p-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if site.ProjectID != "p-new" || site.Location.Complete() || site.Station != nil || site.Solar.LastFetchedAt != nil {
		t.Fatalf("expected empty site, got %+v", site)
	}

	if _, err := repo.LoadSite(context.Background(), "p-new"); err != nil {
		t.Fatalf("empty site should be persisted, got %v", err)
	}

	if _, err := svc.LoadSite(context.Background(), "p-new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("expected one save, got %d", repo.saves)
	}
}

func TestSaveSiteMovedCoordinateFetchesOnce(t *testing.T) {
	repo := newMemorySiteRepo(locatedSite("p-1", 60, 10))
	provider := irradiance.NewMockProvider(3650, nil)
	notifier := &recordingNotifier{}
	s := newTestSync(repo, provider, notifier, -1)
	svc := NewSiteService(repo, s)

	station := &domain.WeatherStation{ID: "SN18700", Name: "Oslo - Blindern"}
	site, task, err := svc.SaveSite(context.Background(), "p-1", SiteUpdate{
		Location: domain.NewCoordinate(59.91, 10.75),
		Station:  station,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if site.Station == nil || site.Station.ID != "SN18700" {
		t.Fatalf("station not applied: %+v", site.Station)
	}
	if task == nil {
		t.Fatalf("expected a background fetch to be scheduled")
	}

	res, err := waitTask(t, task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DailyRecordCount != 3650 {
		t.Fatalf("expected 3650 records, got %d", res.DailyRecordCount)
	}

	reqs := provider.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", len(reqs))
	}
	if reqs[0].StartYear != 2016 || reqs[0].EndYear != 2025 {
		t.Fatalf("window = [%d, %d], want [2016, 2025]", reqs[0].StartYear, reqs[0].EndYear)
	}
	if lat, lon, _ := reqs[0].Coordinate.LatLon(); lat != 59.91 || lon != 10.75 {
		t.Fatalf("fetch used (%v, %v), want (59.91, 10.75)", lat, lon)
	}

	stored, _ := repo.LoadSite(context.Background(), "p-1")
	if stored.Solar.DailyRecordCount == nil || *stored.Solar.DailyRecordCount != 3650 {
		t.Fatalf("DailyRecordCount = %v, want 3650", stored.Solar.DailyRecordCount)
	}
	if stored.Solar.LastFetchedAt == nil || !stored.Solar.LastFetchedAt.Equal(fixedNow) {
		t.Fatalf("LastFetchedAt = %v, want %v", stored.Solar.LastFetchedAt, fixedNow)
	}

	notes := notifier.all()
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].Severity != domain.SeveritySuccess || notes[0].ProjectID != "p-1" {
		t.Fatalf("unexpected notification: %+v", notes[0])
	}
}

func TestSaveSiteBackgroundFailureLeavesSiteUnchanged(t *testing.T) {
	repo := newMemorySiteRepo(locatedSite("p-1", 60, 10))
	provider := irradiance.NewMockProvider(0, errors.New("connection refused"))
	notifier := &recordingNotifier{}
	s := newTestSync(repo, provider, notifier, -1)
	svc := NewSiteService(repo, s)

	_, task, err := svc.SaveSite(context.Background(), "p-1", SiteUpdate{Location: domain.NewCoordinate(59.91, 10.75)})
	if err != nil {
		t.Fatalf("save should succeed even when the fetch fails, got %v", err)
	}

	if _, err := waitTask(t, task); err == nil {
		t.Fatalf("expected background fetch to fail")
	}

	stored, _ := repo.LoadSite(context.Background(), "p-1")
	if stored.Solar.LastFetchedAt != nil || stored.Solar.DailyRecordCount != nil {
		t.Fatalf("metadata must stay unset, got %+v", stored.Solar)
	}
	if lat, _, _ := stored.Location.LatLon(); lat != 59.91 {
		t.Fatalf("saved coordinate lost, lat=%v", lat)
	}
	if got := len(notifier.all()); got != 0 {
		t.Fatalf("failure must not notify, got %d", got)
	}
	if st := s.Status("p-1"); st.State != SyncIdle {
		t.Fatalf("background fetch must not touch foreground status, got %+v", st)
	}
}

func TestSaveSiteUnchangedCoordinateSkipsFetch(t *testing.T) {
	repo := newMemorySiteRepo(locatedSite("p-1", 60, 10))
	provider := irradiance.NewMockProvider(3650, nil)
	s := newTestSync(repo, provider, &recordingNotifier{}, -1)
	svc := NewSiteService(repo, s)

	_, task, err := svc.SaveSite(context.Background(), "p-1", SiteUpdate{
		Location: domain.NewCoordinate(60, 10),
		Station:  &domain.WeatherStation{ID: "SN4780", Name: "Gardermoen"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task != nil {
		t.Fatalf("unchanged coordinate should not schedule a fetch")
	}
	if got := len(provider.Requests()); got != 0 {
		t.Fatalf("expected no fetch, got %d", got)
	}
}

func TestSaveSiteRejectsInvalidCoordinate(t *testing.T) {
	repo := newMemorySiteRepo(locatedSite("p-1", 60, 10))
	s := newTestSync(repo, irradiance.NewMockProvider(3650, nil), &recordingNotifier{}, -1)
	svc := NewSiteService(repo, s)

	_, task, err := svc.SaveSite(context.Background(), "p-1", SiteUpdate{Location: domain.NewCoordinate(95, 10)})
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if task != nil {
		t.Fatalf("invalid save must not schedule a fetch")
	}
	if repo.saves != 0 {
		t.Fatalf("invalid save must not be persisted, got %d saves", repo.saves)
	}
}

func TestSaveSitePartialCoordinateSkipsFetch(t *testing.T) {
	repo := newMemorySiteRepo(domain.NewSite("p-1"))
	provider := irradiance.NewMockProvider(3650, nil)
	s := newTestSync(repo, provider, &recordingNotifier{}, -1)
	svc := NewSiteService(repo, s)

	lat := 59.91
	_, task, err := svc.SaveSite(context.Background(), "p-1", SiteUpdate{Location: domain.Coordinate{Lat: &lat}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task != nil {
		t.Fatalf("partial coordinate should not schedule a fetch")
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(domain.NewCoordinate(59.91, 10.75), DefaultZoom)
	if !sum.HasLocation || sum.Region != "Southern region" || sum.SolarYield != "1050" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.BoundingBox == nil || sum.BoundingBox.North <= 59.91 {
		t.Fatalf("expected bounding box around location, got %+v", sum.BoundingBox)
	}

	empty := Summarize(domain.Coordinate{}, DefaultZoom)
	if empty.HasLocation || empty.BoundingBox != nil || empty.SolarYield != "-" {
		t.Fatalf("unexpected summary for empty location: %+v", empty)
	}
}
