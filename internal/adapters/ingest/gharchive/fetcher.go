package gharchive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	perr "pkgpulse/internal/platform/errors"
)

// BaseURL is the public GH Archive host
const BaseURL = "https://data.gharchive.org"

// Fetcher retrieves raw gzip bodies for archive hours
type Fetcher interface {
	// Fetch returns the compressed body for the hour. The caller must Close it
	Fetch(ctx context.Context, hr HourRef) (io.ReadCloser, error)
}

// HTTPFetcher fetches hours from the archive host with retry on
// transient failures. 404 means the hour is not published and is
// returned immediately without retrying
type HTTPFetcher struct {
	Base    string
	Client  *http.Client
	Retries uint64
	Backoff time.Duration
}

// NewHTTPFetcher builds a fetcher with sane defaults applied for zero fields
func NewHTTPFetcher(base string, client *http.Client, retries int, backoff time.Duration) *HTTPFetcher {
	if base == "" {
		base = BaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &HTTPFetcher{Base: base, Client: client, Retries: uint64(retries), Backoff: backoff}
}

// URL returns the archive URL for the hour
func (f *HTTPFetcher) URL(hr HourRef) string {
	return fmt.Sprintf("%s/%s.json.gz", f.Base, hr.String())
}

// Fetch performs the GET with fibonacci backoff on retryable errors
func (f *HTTPFetcher) Fetch(ctx context.Context, hr HourRef) (io.ReadCloser, error) {
	body, _, err := f.FetchMeta(ctx, hr)
	return body, err
}

// FetchMeta is Fetch but also surfaces the response headers, which the
// caching layer needs for ETag and Last-Modified
func (f *HTTPFetcher) FetchMeta(ctx context.Context, hr HourRef) (io.ReadCloser, http.Header, error) {
	url := f.URL(hr)

	var body io.ReadCloser
	var hdr http.Header
	b := retry.NewFibonacci(f.Backoff)
	b = retry.WithMaxRetries(f.Retries, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "build request")
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			werr := perr.Wrapf(err, perr.ErrorCodeUnavailable, "fetch %s", url)
			if perr.Retryable(werr) {
				return retry.RetryableError(werr)
			}
			return werr
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			serr := perr.FromHTTPStatus(resp.StatusCode, url)
			if perr.Retryable(serr) {
				return retry.RetryableError(serr)
			}
			return serr
		}
		body = resp.Body
		hdr = resp.Header
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return body, hdr, nil
}
