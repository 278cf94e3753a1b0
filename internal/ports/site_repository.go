package ports

import (
	"context"
	"pool-site-service/internal/domain"
)

// Port: durable storage for project sites.
type SiteRepository interface {
	// Return the site of a project, or domain.ErrSiteNotFound.
	LoadSite(ctx context.Context, projectID string) (*domain.Site, error)
	// Insert or overwrite the site of a project.
	SaveSite(ctx context.Context, site *domain.Site) error
}
