package irradiance

import (
	"context"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/ports"
	"sync"
	"time"
)

// MockProvider returns a synthetic series of a fixed length, or a fixed
// error, and records every request it receives.
type MockProvider struct {
	mu       sync.Mutex
	days     int
	err      error
	requests []domain.SolarFetchRequest
	// Closed by the test to let blocked calls return.
	gate chan struct{}
}

func NewMockProvider(days int, err error) *MockProvider {
	return &MockProvider{days: days, err: err}
}

// Hold makes every call block until Release is called.
func (p *MockProvider) Hold() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gate = make(chan struct{})
}

func (p *MockProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gate != nil {
		close(p.gate)
		p.gate = nil
	}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) FetchIrradiance(ctx context.Context, req domain.SolarFetchRequest) (ports.IrradianceResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ports.IrradianceResult{}, ctx.Err()
		}
	}

	if p.err != nil {
		return ports.IrradianceResult{}, p.err
	}

	start := time.Date(req.StartYear, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.DailyIrradiance, 0, p.days)
	for i := 0; i < p.days; i++ {
		v := 5.0
		days = append(days, domain.DailyIrradiance{Date: start.AddDate(0, 0, i), RadiationMJ: &v})
	}
	return ports.IrradianceResult{Days: days}, nil
}

func (p *MockProvider) Requests() []domain.SolarFetchRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SolarFetchRequest(nil), p.requests...)
}
