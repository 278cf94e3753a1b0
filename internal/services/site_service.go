package services

import (
	"context"
	"errors"
	"fmt"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/ports"
	"time"
)

// Fields a user may change when saving a site. Solar metadata is owned by
// the sync workflow and cannot be set here.
type SiteUpdate struct {
	Location domain.Coordinate
	Station  *domain.WeatherStation
}

type SiteService struct {
	repo ports.SiteRepository
	sync *SolarDataSync
	now  func() time.Time
}

func NewSiteService(repo ports.SiteRepository, sync *SolarDataSync) *SiteService {
	return &SiteService{repo: repo, sync: sync, now: time.Now}
}

// LoadSite returns the site of a project, creating an empty one on first use.
func (s *SiteService) LoadSite(ctx context.Context, projectID string) (*domain.Site, error) {
	site, err := s.repo.LoadSite(ctx, projectID)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, domain.ErrSiteNotFound) {
		return nil, fmt.Errorf("load site: project_id=%s: %w", projectID, err)
	}

	unlock := s.sync.locks.lock(projectID)
	defer unlock()

	// Another caller may have created it while we waited.
	site, err = s.repo.LoadSite(ctx, projectID)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, domain.ErrSiteNotFound) {
		return nil, fmt.Errorf("load site: project_id=%s: %w", projectID, err)
	}

	site = domain.NewSite(projectID)
	site.UpdatedAt = s.now()
	if err := s.repo.SaveSite(ctx, site); err != nil {
		return nil, fmt.Errorf("load site: create project_id=%s: %w", projectID, err)
	}
	return site, nil
}

// SaveSite persists the update and, when the coordinate moved, schedules one
// background solar fetch. The returned task is nil when nothing was scheduled.
func (s *SiteService) SaveSite(ctx context.Context, projectID string, upd SiteUpdate) (*domain.Site, *BackgroundTask, error) {
	if err := upd.Location.Validate(); err != nil {
		return nil, nil, fmt.Errorf("save site: %w", err)
	}

	site, trigger, err := s.apply(ctx, projectID, upd)
	if err != nil {
		return nil, nil, err
	}

	if !trigger {
		return site, nil, nil
	}
	return site, s.sync.ScheduleBackground(projectID), nil
}

func (s *SiteService) apply(ctx context.Context, projectID string, upd SiteUpdate) (*domain.Site, bool, error) {
	unlock := s.sync.locks.lock(projectID)
	defer unlock()

	site, err := s.repo.LoadSite(ctx, projectID)
	if errors.Is(err, domain.ErrSiteNotFound) {
		site, err = domain.NewSite(projectID), nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("save site: load project_id=%s: %w", projectID, err)
	}

	old := site.Location
	site.Location = upd.Location
	site.Station = upd.Station
	site.UpdatedAt = s.now()

	if err := s.repo.SaveSite(ctx, site); err != nil {
		return nil, false, fmt.Errorf("save site: project_id=%s: %w", projectID, err)
	}

	return site, ShouldTriggerFetch(old, upd.Location), nil
}
