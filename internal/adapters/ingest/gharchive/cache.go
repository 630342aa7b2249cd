package gharchive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	perr "pkgpulse/internal/platform/errors"
)

// CachedFetcher fetches archive hours with on disk caching.
// The cache dir holds one .json.gz per hour plus a .meta sidecar.
// Recent hours may be revalidated with conditional GET using ETag
// and Last-Modified. Optional retention by max age and total bytes
type CachedFetcher struct {
	dir             string
	base            *HTTPFetcher
	refreshRecent   time.Duration
	retainMaxAge    time.Duration
	retainMaxBytes  int64
	lastCleanupUnix atomic.Int64
}

// cacheMeta is a tiny sidecar json with the fields we actually use
type cacheMeta struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Size         int64     `json:"size,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	LastChecked  time.Time `json:"last_checked"`
}

// CachedOption configures the fetcher
type CachedOption func(*CachedFetcher)

// WithRefreshRecent enables conditional GET for hours within d of now
func WithRefreshRecent(d time.Duration) CachedOption {
	return func(c *CachedFetcher) { c.refreshRecent = d }
}

// WithRetention sets optional age and size retention.
// Pass zero to disable either dimension
func WithRetention(maxAge time.Duration, maxBytes int64) CachedOption {
	return func(c *CachedFetcher) {
		c.retainMaxAge = maxAge
		c.retainMaxBytes = maxBytes
	}
}

// NewCachedFetcher builds a caching fetcher over base. dir is required
func NewCachedFetcher(dir string, base *HTTPFetcher, opts ...CachedOption) *CachedFetcher {
	_ = os.MkdirAll(dir, 0o755)
	if base == nil {
		base = NewHTTPFetcher("", nil, 0, 0)
	}
	c := &CachedFetcher{dir: dir, base: base}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns a reader for the gzip file for the given hour.
// Serves from disk when present and may revalidate recent hours
func (c *CachedFetcher) Fetch(ctx context.Context, hour HourRef) (io.ReadCloser, error) {
	filename := hour.String() + ".json.gz"
	path := filepath.Join(c.dir, filename)
	metaPath := path + ".meta"

	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		if c.shouldRevalidate(hour) {
			rc, err := c.tryConditionalFetch(ctx, hour, path, metaPath)
			if err == nil && rc != nil {
				c.maybeCleanup()
				return rc, nil
			}
			// best effort fallback to local file
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		c.maybeCleanup()
		return f, nil
	}

	return c.downloadAndStore(ctx, hour, path, metaPath)
}

func (c *CachedFetcher) shouldRevalidate(hour HourRef) bool {
	if c.refreshRecent <= 0 {
		return false
	}
	return time.Since(hour.UTC()) <= c.refreshRecent
}

// tryConditionalFetch issues a GET with If-None-Match and If-Modified-Since
// when available. Returns a reader from cache on 304 or a fresh reader after
// rewriting the cache on 200
func (c *CachedFetcher) tryConditionalFetch(
	ctx context.Context,
	hour HourRef,
	path string,
	metaPath string,
) (io.ReadCloser, error) {
	url := c.base.URL(hour)

	meta, _ := loadMeta(metaPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.base.Client.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		_ = resp.Body.Close()
		if meta == nil {
			meta = &cacheMeta{}
		}
		meta.LastChecked = time.Now().UTC()
		_ = saveMeta(metaPath, meta)
		return os.Open(path)

	case http.StatusOK:
		return c.writeResponseToCache(resp.Body, resp.Header, path, metaPath)

	default:
		_ = resp.Body.Close()
		// unexpected status, fall back to local file when present
		if _, serr := os.Stat(path); serr == nil {
			return os.Open(path)
		}
		return nil, perr.FromHTTPStatus(resp.StatusCode, url)
	}
}

// downloadAndStore fetches the hour through the retrying base fetcher
// and persists it before handing back a reader
func (c *CachedFetcher) downloadAndStore(
	ctx context.Context,
	hour HourRef,
	path string,
	metaPath string,
) (io.ReadCloser, error) {
	body, hdr, err := c.base.FetchMeta(ctx, hour)
	if err != nil {
		return nil, err
	}
	rc, err := c.writeResponseToCache(body, hdr, path, metaPath)
	if err != nil {
		return nil, err
	}
	c.maybeCleanup()
	return rc, nil
}

// freshBody wraps a cached file handle for a body that was just
// downloaded, hiding the os.File Name method callers use to tell
// disk hits from fresh downloads
type freshBody struct{ io.ReadCloser }

// writeResponseToCache saves body atomically, writes meta, then returns a reader
func (c *CachedFetcher) writeResponseToCache(
	body io.ReadCloser,
	hdr http.Header,
	path string,
	metaPath string,
) (io.ReadCloser, error) {
	tmp := path + ".part"
	defer func() { _ = os.Remove(tmp) }()

	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	out, err := os.Create(tmp)
	if err != nil {
		_ = body.Close()
		return nil, err
	}
	n, werr := io.Copy(out, body)
	cerr := out.Close()
	_ = body.Close()
	if werr != nil {
		return nil, werr
	}
	if cerr != nil {
		return nil, cerr
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}

	meta := &cacheMeta{
		Size:        n,
		FetchedAt:   time.Now().UTC(),
		LastChecked: time.Now().UTC(),
	}
	if hdr != nil {
		meta.ETag = strings.TrimSpace(hdr.Get("ETag"))
		meta.LastModified = strings.TrimSpace(hdr.Get("Last-Modified"))
	}
	_ = saveMeta(metaPath, meta)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return freshBody{f}, nil
}

// loadMeta reads a sidecar json file
func loadMeta(path string) (*cacheMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var m cacheMeta
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveMeta writes the sidecar json atomically
func saveMeta(path string, m *cacheMeta) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// maybeCleanup throttles retention cleanup to once per ten minutes
func (c *CachedFetcher) maybeCleanup() {
	now := time.Now().Unix()
	last := c.lastCleanupUnix.Load()
	if last != 0 && now-last < 600 {
		return
	}
	if c.retainMaxAge <= 0 && c.retainMaxBytes <= 0 {
		return
	}
	if !c.lastCleanupUnix.CompareAndSwap(last, now) {
		return
	}
	_ = c.cleanupOnce()
}

// cleanupOnce applies age and size retention
func (c *CachedFetcher) cleanupOnce() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	type item struct {
		Path   string
		Size   int64
		HourTS time.Time
	}
	var items []item
	var total int64
	cutoff := time.Now().Add(-c.retainMaxAge)

	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json.gz") {
			continue
		}
		full := filepath.Join(c.dir, name)
		fi, err := os.Stat(full)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		hr, ok := parseHourFromName(name)
		if !ok {
			continue
		}
		if c.retainMaxAge > 0 && hr.Before(cutoff) {
			_ = os.Remove(full)
			_ = os.Remove(full + ".meta")
			continue
		}
		items = append(items, item{Path: full, Size: fi.Size(), HourTS: hr})
		total += fi.Size()
	}

	if c.retainMaxBytes > 0 && total > c.retainMaxBytes {
		sort.Slice(items, func(i, j int) bool { return items[i].HourTS.Before(items[j].HourTS) })
		for _, it := range items {
			if total <= c.retainMaxBytes {
				break
			}
			_ = os.Remove(it.Path)
			_ = os.Remove(it.Path + ".meta")
			total -= it.Size
		}
	}
	return nil
}

// parseHourFromName parses the archive naming, hour is not zero padded
func parseHourFromName(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".json.gz")
	var y, mo, d, h int
	if _, err := fmt.Sscanf(base, "%d-%d-%d-%d", &y, &mo, &d, &h); err != nil {
		return time.Time{}, false
	}
	if h < 0 || h > 23 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, h, 0, 0, 0, time.UTC), true
}
