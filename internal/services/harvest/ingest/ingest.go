// Package ingest holds adapter shims for harvest ingest ports
package ingest

import (
	"context"
	"io"
	"net/http"
	"time"

	"pkgpulse/internal/adapters/ingest/gharchive"
	"pkgpulse/internal/modkit"
	"pkgpulse/internal/services/harvest/domain"
)

// fetcher implements domain.Fetcher using the cached archive fetcher
type fetcher struct {
	f gharchive.Fetcher
}

// NewFetcher constructs a domain.Fetcher from config under CORE_INGEST_*.
// Keeps config reading outside the service and the repos
func NewFetcher(deps modkit.Deps) domain.Fetcher {
	ing := deps.Cfg.Prefix("CORE_INGEST_")

	cacheDir := ing.MustString("CACHE_DIR")
	refreshH := time.Duration(ing.MayInt("REFRESH_RECENT_HOURS", 0)) * time.Hour
	retainDays := ing.MayInt("RETAIN_MAX_DAYS", 0)
	retainBytes := int64(ing.MayInt("RETAIN_MAX_BYTES", 0))

	httpTO := time.Duration(ing.MayInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second // 0 means no client timeout
	retries := ing.MayInt("RETRY_ATTEMPTS", 3)
	retryBase := time.Duration(ing.MayInt("RETRY_BASE_MS", 500)) * time.Millisecond

	base := gharchive.NewHTTPFetcher("", &http.Client{Timeout: httpTO}, retries, retryBase)

	return &fetcher{
		f: gharchive.NewCachedFetcher(
			cacheDir,
			base,
			gharchive.WithRefreshRecent(refreshH),
			gharchive.WithRetention(time.Duration(retainDays)*24*time.Hour, retainBytes),
		),
	}
}

func (f *fetcher) Fetch(ctx context.Context, hr domain.HourRef) (io.ReadCloser, error) {
	return f.f.Fetch(ctx, hr)
}

// readerFactory adapts gharchive.NewReader to domain.ReaderFactory
type readerFactory struct{}

// NewReaderFactory returns a factory that wraps gharchive.NewReader
func NewReaderFactory() domain.ReaderFactory { return readerFactory{} }

func (readerFactory) New(rc io.ReadCloser) (domain.ReaderPort, error) {
	return gharchive.NewReader(rc)
}
