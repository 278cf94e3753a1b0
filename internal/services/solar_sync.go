package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/platform/obs"
	"pool-site-service/internal/ports"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNoLocation         = errors.New("site has no coordinates")
	ErrCoordinatesChanged = errors.New("site coordinates changed during fetch")
	ErrSyncClosed         = errors.New("solar sync is shut down")
)

const DefaultBackgroundDelay = 500 * time.Millisecond

// FetchError is a failed irradiance download. Message is suitable for
// showing to the user; Err carries the cause for logs.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("solar fetch: %s: %v", e.Message, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(err error) *FetchError {
	msg := "Could not fetch solar data"

	var re ports.ReasonError
	switch {
	case errors.Is(err, ErrNoLocation):
		msg = "Site has no coordinates"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "Solar data provider timed out"
	case errors.As(err, &re) && re.Reason() != "":
		msg = msg + ": " + re.Reason()
	}

	return &FetchError{Message: msg, Err: err}
}

type SolarSyncOptions struct {
	// Delay before a background fetch starts. Zero means DefaultBackgroundDelay;
	// use a negative value to start immediately.
	BackgroundDelay time.Duration
	Now             func() time.Time
}

// SolarDataSync downloads historical irradiance for a site and records the
// fetch metadata on it.
//
// Fetches for the same project and coordinate share one in-flight call, and
// all writes to a site go through a per-project lock, so overlapping
// refreshes never interleave metadata updates.
type SolarDataSync struct {
	repo     ports.SiteRepository
	provider ports.IrradianceProvider
	store    ports.IrradianceStore
	notifier ports.Notifier

	delay time.Duration
	now   func() time.Time

	flights singleflight.Group
	locks   siteLocks
	board   *statusBoard

	baseCtx context.Context
	stop    context.CancelFunc
	// Guards closed and tasks.Add against a concurrent Shutdown.
	mu     sync.Mutex
	closed bool
	tasks  sync.WaitGroup
}

// NewSolarDataSync wires the workflow. store may be nil when downloaded
// series do not need to be kept.
func NewSolarDataSync(
	repo ports.SiteRepository,
	provider ports.IrradianceProvider,
	store ports.IrradianceStore,
	notifier ports.Notifier,
	opts SolarSyncOptions,
) *SolarDataSync {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	delay := opts.BackgroundDelay
	switch {
	case delay == 0:
		delay = DefaultBackgroundDelay
	case delay < 0:
		delay = 0
	}

	ctx, stop := context.WithCancel(context.Background())

	return &SolarDataSync{
		repo:     repo,
		provider: provider,
		store:    store,
		notifier: notifier,
		delay:    delay,
		now:      now,
		locks:    siteLocks{locks: make(map[string]*sync.Mutex)},
		board:    newStatusBoard(now),
		baseCtx:  ctx,
		stop:     stop,
	}
}

// ShouldTriggerFetch reports whether a save moving a site from old to new
// needs fresh irradiance data. Values are compared exactly; a re-typed
// coordinate that differs only in float representation still triggers.
func ShouldTriggerFetch(old, new domain.Coordinate) bool {
	if !new.Complete() {
		return false
	}
	if !old.Complete() {
		return true
	}
	return *new.Lat != *old.Lat || *new.Lon != *old.Lon
}

// FetchSolarData performs a single provider call for the request window.
// Failures are returned as *FetchError.
func (s *SolarDataSync) FetchSolarData(ctx context.Context, req domain.SolarFetchRequest) (domain.SolarFetchResult, error) {
	series, err := s.fetchSeries(ctx, req)
	if err != nil {
		return domain.SolarFetchResult{}, err
	}
	return domain.SolarFetchResult{DailyRecordCount: series.DailyRecordCount()}, nil
}

func (s *SolarDataSync) fetchSeries(ctx context.Context, req domain.SolarFetchRequest) (ports.IrradianceResult, error) {
	if !req.Coordinate.Complete() {
		return ports.IrradianceResult{}, newFetchError(ErrNoLocation)
	}

	series, err := s.provider.FetchIrradiance(ctx, req)
	if err != nil {
		return ports.IrradianceResult{}, newFetchError(err)
	}
	return series, nil
}

// Status returns the foreground sync state of a project.
func (s *SolarDataSync) Status(projectID string) SyncStatus {
	return s.board.get(projectID)
}

// Refresh runs a foreground fetch: the project is marked busy for the whole
// call and released on every exit path, including panics.
func (s *SolarDataSync) Refresh(ctx context.Context, projectID string) (res domain.SolarFetchResult, err error) {
	release := s.board.acquire(projectID)
	outcome, msg := SyncFailed, "Could not update solar data"
	defer func() {
		release(outcome, msg, res.DailyRecordCount)
	}()

	start := time.Now()
	res, err = s.sync(ctx, projectID)
	if err != nil {
		obs.ObserveFetch("foreground", "failed", start)
		var fe *FetchError
		if errors.As(err, &fe) {
			msg = fe.Message
		}
		return domain.SolarFetchResult{}, err
	}

	obs.ObserveFetch("foreground", "succeeded", start)
	outcome, msg = SyncSucceeded, SuccessMessage(res)
	return res, nil
}

// BackgroundTask is the handle of a scheduled background fetch. Callers may
// ignore it, wait for it, or cancel it before the fetch starts.
type BackgroundTask struct {
	ProjectID string

	done   chan struct{}
	cancel context.CancelFunc
	result domain.SolarFetchResult
	err    error
}

// Wait blocks until the task finished or ctx is done.
func (t *BackgroundTask) Wait(ctx context.Context) (domain.SolarFetchResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return domain.SolarFetchResult{}, ctx.Err()
	}
}

func (t *BackgroundTask) Done() <-chan struct{} { return t.done }

// Cancel stops a task that is still waiting for its delay. A fetch that has
// already started runs to completion.
func (t *BackgroundTask) Cancel() { t.cancel() }

// ScheduleBackground starts a fetch after the configured delay without
// holding the caller. Success updates the site and emits one notification;
// failure is logged only.
func (s *SolarDataSync) ScheduleBackground(projectID string) *BackgroundTask {
	ctx, cancel := context.WithCancel(s.baseCtx)
	t := &BackgroundTask{
		ProjectID: projectID,
		done:      make(chan struct{}),
		cancel:    cancel,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		t.err = ErrSyncClosed
		close(t.done)
		return t
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.tasks.Done()
		defer close(t.done)
		defer cancel()

		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			t.err = ctx.Err()
			return
		case <-timer.C:
		}

		t.result, t.err = s.runBackground(ctx, projectID)
	}()

	return t
}

func (s *SolarDataSync) runBackground(ctx context.Context, projectID string) (domain.SolarFetchResult, error) {
	start := time.Now()
	res, err := s.sync(ctx, projectID)
	if err != nil {
		obs.ObserveFetch("background", "failed", start)
		log.Printf("solar sync: background fetch failed project_id=%s err=%v", projectID, err)
		return domain.SolarFetchResult{}, err
	}
	obs.ObserveFetch("background", "succeeded", start)

	// The site is already updated; deliver the notification even during shutdown.
	n := domain.NewNotification(projectID, SuccessMessage(res), domain.SeveritySuccess, s.now())
	if err := s.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		log.Printf("solar sync: notify failed project_id=%s err=%v", projectID, err)
	} else {
		obs.NotificationsTotal.WithLabelValues(string(n.Severity)).Inc()
	}

	return res, nil
}

// Shutdown cancels pending background tasks and waits for running ones.
// Tasks scheduled afterwards finish immediately with ErrSyncClosed.
func (s *SolarDataSync) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sync fetches irradiance for the site's stored coordinate and records the
// result. Callers with the same project and coordinate share the call.
func (s *SolarDataSync) sync(ctx context.Context, projectID string) (domain.SolarFetchResult, error) {
	site, err := s.repo.LoadSite(ctx, projectID)
	if err != nil {
		return domain.SolarFetchResult{}, fmt.Errorf("solar sync: load site: %w", err)
	}

	lat, lon, ok := site.Location.LatLon()
	if !ok {
		return domain.SolarFetchResult{}, newFetchError(ErrNoLocation)
	}

	key := projectID + "|" + strconv.FormatFloat(lat, 'g', -1, 64) + "|" + strconv.FormatFloat(lon, 'g', -1, 64)
	// The shared call outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)

	v, err, _ := s.flights.Do(key, func() (any, error) {
		return s.fetchAndRecord(shared, projectID, site.Location)
	})
	if err != nil {
		return domain.SolarFetchResult{}, err
	}
	return v.(domain.SolarFetchResult), nil
}

func (s *SolarDataSync) fetchAndRecord(ctx context.Context, projectID string, loc domain.Coordinate) (domain.SolarFetchResult, error) {
	req := domain.NewSolarFetchRequest(loc, s.now())

	series, err := s.fetchSeries(ctx, req)
	if err != nil {
		return domain.SolarFetchResult{}, err
	}

	if s.store != nil {
		if err := s.store.PutMany(ctx, projectID, series.Days); err != nil {
			log.Printf("solar sync: store series failed project_id=%s err=%v", projectID, err)
		}
	}

	res := domain.SolarFetchResult{DailyRecordCount: series.DailyRecordCount()}

	unlock := s.locks.lock(projectID)
	defer unlock()

	// Reload so a save that happened during the fetch is not overwritten.
	site, err := s.repo.LoadSite(ctx, projectID)
	if err != nil {
		return domain.SolarFetchResult{}, fmt.Errorf("solar sync: reload site: %w", err)
	}
	if !site.Location.Equal(loc) {
		return domain.SolarFetchResult{}, &FetchError{
			Message: "Site coordinates changed during fetch",
			Err:     ErrCoordinatesChanged,
		}
	}

	site.RecordSolarFetch(s.now(), res.DailyRecordCount)
	if err := s.repo.SaveSite(ctx, site); err != nil {
		return domain.SolarFetchResult{}, fmt.Errorf("solar sync: save site: %w", err)
	}

	return res, nil
}

// SuccessMessage is the user-facing text for a completed fetch.
func SuccessMessage(res domain.SolarFetchResult) string {
	return fmt.Sprintf("Solar data updated: %d daily records", res.DailyRecordCount)
}

// siteLocks hands out one mutex per project.
type siteLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *siteLocks) lock(projectID string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[projectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
