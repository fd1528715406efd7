package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dyluth/regent/internal/extract"
	"golang.org/x/time/rate"
)

// maxPageBytes caps the size of a fetched page.
const maxPageBytes = 8 << 20

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64 // <= 0 disables pacing
}

// HTTPFetcher reads the catalog and puzzle pages over plain HTTP and locates
// the grid container in the returned markup. It never produces snapshots.
type HTTPFetcher struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewHTTPFetcher creates a fetcher for the site at opts.BaseURL.
func NewHTTPFetcher(opts HTTPOptions) (*HTTPFetcher, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &HTTPFetcher{
		baseURL:   base,
		userAgent: opts.UserAgent,
		client:    &http.Client{Timeout: timeout, Transport: tr},
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// ListIdentifiers reads the home page and collects level links.
func (f *HTTPFetcher) ListIdentifiers(ctx context.Context) ([]int, error) {
	page, err := f.get(ctx, FetchError{Catalog: true}, f.baseURL+"/")
	if err != nil {
		return nil, err
	}
	ids, err := extract.Levels(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return ids, nil
}

// FetchGrid reads /level/{id} and returns the grid container markup.
func (f *HTTPFetcher) FetchGrid(ctx context.Context, id int) (*Content, error) {
	page, err := f.get(ctx, FetchError{ID: id}, fmt.Sprintf("%s/level/%d", f.baseURL, id))
	if err != nil {
		return nil, err
	}
	inner, found, err := extract.Container(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse puzzle %d page: %w", id, err)
	}
	if !found {
		return nil, ErrContainerNotFound
	}
	return &Content{Markup: inner}, nil
}

// get reads url. Failures are reported as copies of target with the status
// and cause filled in.
func (f *HTTPFetcher) get(ctx context.Context, target FetchError, url string) (string, error) {
	fail := func(status int, err error) error {
		e := target
		e.StatusCode = status
		e.Err = err
		return &e
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fail(0, err)
	}
	req.Header.Set("Accept", "text/html")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fail(resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fail(resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}
	return string(body), nil
}
