package proxy

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ZaguanLabs/webproxy"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBodySize  = 10 << 20 // 10MB
)

// hopByHopHeaders are connection-scoped and never forwarded in either
// direction.
var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// FetchResult is one origin response, body fully read.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the origin's Content-Type header.
func (r *FetchResult) ContentType() string {
	return r.Header.Get("Content-Type")
}

// IsHTML reports whether the response body is an HTML document.
func (r *FetchResult) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "text/html")
}

// IsRedirect reports whether the response is a redirect with a Location.
func (r *FetchResult) IsRedirect() bool {
	switch r.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return r.Header.Get("Location") != ""
	}
	return false
}

// FetcherConfig tunes the origin HTTP client.
type FetcherConfig struct {
	// Timeout bounds one origin round trip. Defaults to 30s.
	Timeout time.Duration
	// MaxBodySize caps how much of an origin body is read. Defaults to 10MB.
	MaxBodySize int64
	// RequestsPerSecond rate-limits origin fetches across all inbound
	// requests. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Fetcher performs origin fetches over a pooled transport. Redirects are
// returned to the caller rather than followed: the pipeline rewrites the
// Location header itself.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxBodySize int64
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	f := &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxBodySize: maxBody,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return f
}

// Fetch requests targetURL with the inbound request's method, body, and
// forwardable headers, and reads the full response body.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, inbound *http.Request) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &webproxy.UpstreamError{Message: "rate limit wait aborted", URL: targetURL, Cause: err}
		}
	}

	var body io.Reader
	if inbound != nil && inbound.Body != nil {
		body = inbound.Body
	}
	method := http.MethodGet
	if inbound != nil {
		method = inbound.Method
	}
	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, &webproxy.UpstreamError{Message: "invalid origin URL", URL: targetURL, Cause: err}
	}
	if inbound != nil {
		copyForwardableHeaders(req.Header, inbound.Header)
	}
	// Let the transport negotiate and transparently decode compression.
	req.Header.Del("Accept-Encoding")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &webproxy.UpstreamError{Message: "origin fetch failed", URL: targetURL, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &webproxy.UpstreamError{Message: "reading origin body failed", URL: targetURL, Cause: err}
	}

	header := resp.Header.Clone()
	stripHopByHop(header)
	return &FetchResult{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       data,
	}, nil
}

func copyForwardableHeaders(dst, src http.Header) {
	for name, values := range src {
		if isHopByHop(name) || strings.EqualFold(name, "Host") {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func stripHopByHop(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

func isHopByHop(name string) bool {
	for _, h := range hopByHopHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
