package middleware

import (
	stdjson "encoding/json"
	stdhttp "net/http"
	"runtime/debug"

	perr "pkgpulse/internal/platform/errors"
	"pkgpulse/internal/platform/logger"
	pnet "pkgpulse/internal/platform/net"
)

type panicWire struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// RecoverJSON converts panics into a JSON 500 and logs the stack with request id
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			if v := recover(); v != nil {
				reqID := pnet.RequestID(r.Context())

				logger.C(r.Context()).Error().
					Str("request_id", reqID).
					Interface("panic", v).
					Msgf("panic recovered\n%s", debug.Stack())

				if reqID != "" {
					w.Header().Set("X-Request-ID", reqID)
				}

				body := panicWire{
					StatusCode: stdhttp.StatusInternalServerError,
					Status:     stdhttp.StatusText(stdhttp.StatusInternalServerError),
					Error:      perr.Root(perr.PanicErrf("panic recovered")).Error(),
					RequestID:  reqID,
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(stdhttp.StatusInternalServerError)
				_ = stdjson.NewEncoder(w).Encode(body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
