package supervisor

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// HTTPProber implements bounded-timeout liveness checks against local status
// endpoints. Any transport failure counts as not-alive.
type HTTPProber struct {
	client *http.Client
	obs    ports.Observability
}

func NewHTTPProber(timeout time.Duration, obs ports.Observability) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{Timeout: timeout},
		obs:    obs.Component("probe"),
	}
}

func (p *HTTPProber) Probe(ctx context.Context, url string, logFailure bool) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		if logFailure {
			p.obs.LogError("building probe request failed", err,
				ports.Field{Key: "url", Value: url})
		}
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if logFailure {
			p.obs.LogError("status probe failed", err,
				ports.Field{Key: "url", Value: url})
		}
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

var _ ports.Prober = (*HTTPProber)(nil)
