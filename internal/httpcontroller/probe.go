package httpcontroller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/stressnet-go/internal/errors"
	"github.com/tphakala/stressnet-go/internal/httpclient"
	"github.com/tphakala/stressnet-go/internal/logger"
)

// probeUserAgent identifies image probes to third-party hosts.
const probeUserAgent = "StressNet-Go image probe"

// probeCacheTTL bounds how often the same image host is contacted.
const probeCacheTTL = 5 * time.Minute

// ProbeResult reports whether an externally hosted image answered.
type ProbeResult struct {
	URL       string    `json:"url"`
	Reachable bool      `json:"reachable"`
	Status    int       `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// ImageProber checks hot-linked image URLs with HEAD requests, falling back
// to a one-byte ranged GET for hosts that refuse HEAD. Results are cached.
type ImageProber struct {
	client  *httpclient.Client
	results *cache.Cache
}

// NewImageProber returns a prober whose requests time out after timeout.
// transport may be nil for the default network transport.
func NewImageProber(transport http.RoundTripper, timeout time.Duration) *ImageProber {
	return &ImageProber{
		client: httpclient.New(&httpclient.Config{
			DefaultTimeout: timeout,
			UserAgent:      probeUserAgent,
			Transport:      transport,
		}),
		results: cache.New(probeCacheTTL, 2*probeCacheTTL),
	}
}

// ProbeAll probes urls concurrently and returns results in the same order.
func (p *ImageProber) ProbeAll(ctx context.Context, urls []string) []ProbeResult {
	results := make([]ProbeResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			results[i] = p.Probe(ctx, u)
		})
	}
	wg.Wait()
	return results
}

// Probe checks a single URL.
func (p *ImageProber) Probe(ctx context.Context, url string) ProbeResult {
	if v, ok := p.results.Get(url); ok {
		if r, ok := v.(ProbeResult); ok {
			return r
		}
	}

	result := ProbeResult{URL: url, CheckedAt: time.Now()}
	status, err := p.do(ctx, http.MethodHead, url)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = p.do(ctx, http.MethodGet, url)
	}

	switch {
	case err != nil:
		result.Error = err.Error()
		GetLogger().WithContext(ctx).Warn("image probe failed",
			logger.String("url", url),
			logger.Error(err))
	default:
		result.Status = status
		result.Reachable = status >= 200 && status < 400
	}

	// context cancellation says nothing about the host
	if ctx.Err() == nil {
		p.results.Set(url, result, cache.DefaultExpiration)
	}
	return result
}

func (p *ImageProber) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return 0, errors.New(err).
			Component("http-controller").
			Category(errors.CategoryValidation).
			Build()
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return 0, errors.New(fmt.Errorf("%s %s: %w", method, url, err)).
			Component("http-controller").
			Category(errors.CategoryHTTP).
			Priority(errors.PriorityLow).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode, nil
}
