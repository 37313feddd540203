package analytics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ChiliPulse/internal/domain/models"
	domrepo "ChiliPulse/internal/domain/repository"
	"ChiliPulse/pkg/config"
	xhttp "ChiliPulse/pkg/http"
)

// HTTPServiceBase provides a DRY foundation for inference service clients.
// It centralizes client construction, URL building and latency metrics.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	metrics domrepo.Metrics
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config, m domrepo.Metrics) *HTTPServiceBase {
	timeout := cfg.Upstream.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if m == nil {
		m = domrepo.NoopMetrics{}
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(cfg.Upstream.BaseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("chilipulse/1.0")),
		metrics: m,
	}
}

// URL joins endpoint and path-escaped segments under baseURL.
func (b *HTTPServiceBase) URL(endpoint string, segments ...string) string {
	var sb strings.Builder
	sb.WriteString(b.baseURL)
	sb.WriteByte('/')
	sb.WriteString(endpoint)
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

// GetRaw issues a GET and returns the raw body. Transport failures, timeouts
// and non-2xx answers are all reported as models.ErrUpstreamUnavailable.
func (b *HTTPServiceBase) GetRaw(ctx context.Context, endpoint string, segments ...string) ([]byte, error) {
	if b.client == nil || b.baseURL == "" {
		return nil, fmt.Errorf("%w: inference client not initialized", models.ErrUpstreamUnavailable)
	}
	start := time.Now()
	var body []byte
	err := b.client.GetJSON(ctx, b.URL(endpoint, segments...), &body)
	b.metrics.RecordUpstream(endpoint, err == nil, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", models.ErrUpstreamUnavailable, endpoint, err)
	}
	return body, nil
}
