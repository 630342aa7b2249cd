package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "pkgpulse/internal/platform/errors"
	pnet "pkgpulse/internal/platform/net"
)

// Envelope is the standard response body for all endpoints
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	reqID := pnet.RequestID(r.Context())
	JSON(w, stdhttp.StatusOK, Envelope{
		StatusCode: stdhttp.StatusOK,
		Status:     stdhttp.StatusText(stdhttp.StatusOK),
		RequestID:  reqID,
		Data:       data,
	})
}

// RespondError maps err to a status via the errors package and writes the envelope
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, wire := perr.HTTP(err)
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		RequestID:  pnet.RequestID(r.Context()),
	})
}
