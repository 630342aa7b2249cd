package errors

// Network helpers used by the archive fetcher and the ClickHouse seam

import (
	"context"
	stderrs "errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// IsRetryableNet reports whether a network error looks transient:
// timeouts, refused/reset connections, truncated bodies. Local context
// cancellation is never retryable
func IsRetryableNet(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ne net.Error
	if stderrs.As(err, &ne) && ne.Timeout() {
		return true
	}
	if stderrs.Is(err, syscall.ECONNREFUSED) || stderrs.Is(err, syscall.ECONNRESET) {
		return true
	}
	if stderrs.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "connection reset by peer"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "tls handshake timeout"):
		return true
	default:
		return false
	}
}

// FromHTTPStatus classifies a non-200 status from the archive host.
// 429 and 5xx are transient; 404 means the hour does not exist (yet)
func FromHTTPStatus(status int, url string) error {
	switch {
	case status == 404:
		return NotFoundf("archive hour not published: %s", url)
	case status == 429:
		return Newf(ErrorCodeTooManyRequests, "archive host rate limited: %s", url)
	case status >= 500:
		return Unavailablef("archive host returned %d: %s", status, url)
	default:
		return Newf(ErrorCodeUnknown, "unexpected status %d for %s", status, url)
	}
}
