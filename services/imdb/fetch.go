package imdb

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"showscore/config"
)

// TransportError describes a failed origin fetch: a network error, a timeout
// or a non-200 status. Label names the page that was being fetched.
type TransportError struct {
	Label  string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Label, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RawPage is one fetched markup document. It is owned by the request that
// fetched it and never mutated.
type RawPage struct {
	URL    string
	Status int
	Body   string
}

// fetcher issues outbound GETs with browser-like headers and split
// connect/read timeouts. Retrying is the orchestrator's decision, not ours.
type fetcher struct {
	baseURL        string
	userAgent      string
	acceptLanguage string
	httpc          *http.Client
}

func newFetcher(cfg config.ScraperSettings, httpc *http.Client) *fetcher {
	if httpc == nil {
		dialer := &net.Dialer{Timeout: time.Duration(cfg.ConnectTimeoutSec) * time.Second}
		httpc = &http.Client{
			Timeout: time.Duration(cfg.ReadTimeoutSec) * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: time.Duration(cfg.ConnectTimeoutSec) * time.Second,
			},
		}
	}
	return &fetcher{
		baseURL:        cfg.BaseURL,
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		httpc:          httpc,
	}
}

// get fetches baseURL+path and returns the markup, or a *TransportError.
// The body of a non-200 response is discarded.
func (f *fetcher) get(ctx context.Context, path string, params url.Values, extra http.Header, label string) (*RawPage, error) {
	u := f.baseURL + path
	if len(params) > 0 {
		u = u + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Label: label, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, values := range extra {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Label: label, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, &TransportError{Label: label, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Label: label, Err: err}
	}
	return &RawPage{URL: u, Status: resp.StatusCode, Body: string(body)}, nil
}
