package irradiance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"pool-site-service/internal/domain"
	"pool-site-service/internal/platform/obs"
	"pool-site-service/internal/ports"
	"strconv"
	"strings"
	"time"
)

const dailyVariable = "shortwave_radiation_sum"

type archiveResponse struct {
	Daily struct {
		Time      []string   `json:"time"`
		Radiation []*float64 `json:"shortwave_radiation_sum"`
	} `json:"daily"`
}

// OpenMeteoProvider implements IrradianceProvider using the Open-Meteo
// historical weather archive (daily shortwave radiation sums, MJ/m²).
//
// Each call is a single attempt; timeouts come from the HTTP client.
// The provider is safe for concurrent use.
type OpenMeteoProvider struct {
	session   *http.Client
	baseURL   string
	userAgent string
}

func NewOpenMeteoProvider(baseURL string, timeout time.Duration) (*OpenMeteoProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("open-meteo base url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("open-meteo base url %q: %w", baseURL, err)
	}

	return &OpenMeteoProvider{
		session:   &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: "pool-site-service",
	}, nil
}

func (p *OpenMeteoProvider) Name() string {
	return "open-meteo"
}

// Fetch the daily series for the request window.
func (p *OpenMeteoProvider) FetchIrradiance(
	ctx context.Context,
	req domain.SolarFetchRequest,
) (_ ports.IrradianceResult, err error) {
	defer obs.Time(ctx, "openmeteo.FetchIrradiance")(&err)

	lat, lon, ok := req.Coordinate.LatLon()
	if !ok {
		return ports.IrradianceResult{}, errors.New("fetch irradiance: coordinate must have latitude and longitude")
	}
	if req.StartYear > req.EndYear {
		return ports.IrradianceResult{}, fmt.Errorf("fetch irradiance: start year %d after end year %d", req.StartYear, req.EndYear)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("start_date", fmt.Sprintf("%04d-01-01", req.StartYear))
	q.Set("end_date", fmt.Sprintf("%04d-12-31", req.EndYear))
	q.Set("daily", dailyVariable)
	q.Set("timezone", "UTC")

	httpReq, err := p.newRequest(ctx, p.baseURL+"/v1/archive?"+q.Encode())
	if err != nil {
		return ports.IrradianceResult{}, fmt.Errorf("fetch irradiance: %w", err)
	}

	resp, err := p.do(httpReq)
	if err != nil {
		return ports.IrradianceResult{}, fmt.Errorf("fetch irradiance: execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.IrradianceResult{}, fmt.Errorf("fetch irradiance: decode archive response: %w", err)
	}

	days, err := toDailySeries(decoded)
	if err != nil {
		return ports.IrradianceResult{}, fmt.Errorf("fetch irradiance: %w", err)
	}

	return ports.IrradianceResult{Days: days}, nil
}

func toDailySeries(r archiveResponse) ([]domain.DailyIrradiance, error) {
	times := r.Daily.Time
	values := r.Daily.Radiation

	if len(values) != 0 && len(values) != len(times) {
		return nil, fmt.Errorf(
			"series lengths do not match: time=%d %s=%d",
			len(times), dailyVariable, len(values),
		)
	}

	out := make([]domain.DailyIrradiance, 0, len(times))
	for i, ts := range times {
		day, err := time.Parse(time.DateOnly, ts)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", ts, err)
		}

		var v *float64
		if len(values) > 0 {
			v = values[i]
		}
		out = append(out, domain.DailyIrradiance{Date: day, RadiationMJ: v})
	}

	return out, nil
}
