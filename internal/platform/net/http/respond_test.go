package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "pkgpulse/internal/platform/errors"
	pnet "pkgpulse/internal/platform/net"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRespondOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/x", nil)
	req = req.WithContext(pnet.WithRequestID(req.Context(), "req-123"))

	RespondOK(rec, req, map[string]any{"n": 7})

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	env := decodeEnvelope(t, rec)
	if env.StatusCode != stdhttp.StatusOK || env.Status != "OK" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.RequestID != "req-123" {
		t.Fatalf("request id = %q", env.RequestID)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["n"] != float64(7) {
		t.Fatalf("data = %#v", env.Data)
	}
}

func TestRespondErrorMapsCode(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   perr.ErrorCode
	}{
		{"not found", perr.NotFoundf("hour missing"), stdhttp.StatusNotFound, perr.ErrorCodeNotFound},
		{"invalid arg", perr.InvalidArgf("bad window"), stdhttp.StatusUnprocessableEntity, perr.ErrorCodeInvalidArgument},
		{"unavailable", perr.Unavailablef("ch down"), stdhttp.StatusServiceUnavailable, perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(stdhttp.MethodGet, "/x", nil)

			RespondError(rec, req, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			env := decodeEnvelope(t, rec)
			if env.StatusCode != tc.status || env.Code != tc.code {
				t.Fatalf("envelope = %+v", env)
			}
			if env.Error == "" {
				t.Fatal("empty error message")
			}
		})
	}
}

func TestRespondErrorPlainErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodGet, "/x", nil)

	RespondError(rec, req, stdhttp.ErrBodyNotAllowed)

	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
