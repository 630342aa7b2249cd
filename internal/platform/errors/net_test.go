package errors

import (
	"context"
	stderrs "errors"
	"io"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableNet(t *testing.T) {
	retryable := []error{
		timeoutErr{},
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		io.ErrUnexpectedEOF,
		stderrs.New("read tcp: connection reset by peer"),
		stderrs.New("dial tcp: lookup data.gharchive.org: no such host"),
	}
	for _, err := range retryable {
		if !IsRetryableNet(err) {
			t.Fatalf("IsRetryableNet(%v) = false, want true", err)
		}
	}

	notRetryable := []error{
		nil,
		context.Canceled,
		context.DeadlineExceeded,
		stderrs.New("parse error"),
	}
	for _, err := range notRetryable {
		if IsRetryableNet(err) {
			t.Fatalf("IsRetryableNet(%v) = true, want false", err)
		}
	}
}

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{404, ErrorCodeNotFound, false},
		{429, ErrorCodeTooManyRequests, true},
		{500, ErrorCodeUnavailable, true},
		{503, ErrorCodeUnavailable, true},
		{418, ErrorCodeUnknown, false},
	}
	for _, c := range cases {
		err := FromHTTPStatus(c.status, "https://data.gharchive.org/2024-03-01-5.json.gz")
		if CodeOf(err) != c.code {
			t.Fatalf("status %d: code = %v, want %v", c.status, CodeOf(err), c.code)
		}
		if Retryable(err) != c.retryable {
			t.Fatalf("status %d: retryable = %v, want %v", c.status, Retryable(err), c.retryable)
		}
	}
}
