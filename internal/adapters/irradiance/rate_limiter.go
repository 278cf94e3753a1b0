package irradiance

import (
	"context"
	"fmt"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/ports"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps an IrradianceProvider with a token bucket so
// bursts of saves do not exceed the provider's fair-use limits.
type RateLimitedProvider struct {
	provider ports.IrradianceProvider
	limiter  *rate.Limiter
	name     string
}

// rps may be fractional; burst is the number of calls allowed at once.
func NewRateLimitedProvider(provider ports.IrradianceProvider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		name:     fmt.Sprintf("%s [Rate Limited]", provider.Name()),
	}
}

func (r *RateLimitedProvider) FetchIrradiance(ctx context.Context, req domain.SolarFetchRequest) (ports.IrradianceResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ports.IrradianceResult{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.provider.FetchIrradiance(ctx, req)
}

func (r *RateLimitedProvider) Name() string {
	return r.name
}

var _ ports.IrradianceProvider = (*RateLimitedProvider)(nil)
