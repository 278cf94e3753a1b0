package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type httpStatusError struct {
	Code   int
	Detail string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Detail)
}

// Reason implements ports.ReasonError.
func (e *httpStatusError) Reason() string {
	return e.Detail
}

// Open-Meteo reports failures as {"error": true, "reason": "..."}.
type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func (p *OpenMeteoProvider) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	return req, nil
}

// do executes a single attempt. Non-2xx responses are turned into
// *httpStatusError carrying the provider's reason when it sent one.
func (p *OpenMeteoProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		detail := strings.TrimSpace(string(b))
		var ae apiError
		if json.Unmarshal(b, &ae) == nil && ae.Reason != "" {
			detail = ae.Reason
		}
		return nil, &httpStatusError{Code: resp.StatusCode, Detail: detail}
	}
	return resp, nil
}
