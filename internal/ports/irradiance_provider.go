package ports

import (
	"context"
	"pool-site-service/internal/domain"
)

// Daily irradiance series returned by a provider for one request window.
type IrradianceResult struct {
	Days []domain.DailyIrradiance
}

func (r IrradianceResult) DailyRecordCount() int { return len(r.Days) }

// Contract for retrieving historical daily irradiance for a coordinate.
type IrradianceProvider interface {
	// Return the daily series for the request window. Implementations make
	// a single attempt and leave timeouts to the transport.
	FetchIrradiance(ctx context.Context, req domain.SolarFetchRequest) (IrradianceResult, error)

	Name() string
}

// Provider errors may implement ReasonError to expose a message that is
// safe to show to users.
type ReasonError interface {
	error
	Reason() string
}
