package ports

import (
	"context"
	"pool-site-service/internal/domain"
	"time"
)

// Local store of downloaded irradiance series, keyed by project and day.
type IrradianceStore interface {
	// Insert or replace the given days.
	PutMany(ctx context.Context, projectID string, days []domain.DailyIrradiance) error
	// Return stored days within [from, to], oldest first.
	GetMany(ctx context.Context, projectID string, from, to time.Time) ([]domain.DailyIrradiance, error)
}
