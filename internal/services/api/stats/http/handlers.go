// Package http provides http transport for stats
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	perr "pkgpulse/internal/platform/errors"
	phttp "pkgpulse/internal/platform/net/http"
	andom "pkgpulse/internal/services/analytics/domain"
)

// Register mounts stats endpoints on the given router
func Register(r chi.Router, s andom.ServicePort) {
	h := &handlers{svc: s}

	r.Get("/overview", h.overview)
	r.Get("/event-types", h.eventTypes)
	r.Get("/packages", h.packages)
	r.Get("/heatmap", h.heatmap)
	r.Get("/actors", h.actors)
}

type handlers struct{ svc andom.ServicePort }

// window parses the optional from/to query params.
// Accepts RFC3339 or plain dates, both interpreted as UTC
func window(r *stdhttp.Request) (andom.Window, error) {
	var w andom.Window
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
		t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return time.Time{}, perr.InvalidArgf("bad time %q, want RFC3339 or YYYY-MM-DD", s)
		}
		return t, nil
	}
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parse(s)
		if err != nil {
			return w, err
		}
		w.Start = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parse(s)
		if err != nil {
			return w, err
		}
		w.End = t
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return w, perr.InvalidArgf("to before from")
	}
	return w, nil
}

func (h *handlers) overview(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	win, err := window(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	out, err := h.svc.Overview(r.Context(), win)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) eventTypes(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	win, err := window(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	out, err := h.svc.ByEventType(r.Context(), win)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) packages(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	win, err := window(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	out, err := h.svc.ByPackage(r.Context(), win)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) heatmap(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	win, err := window(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	out, err := h.svc.Heatmap(r.Context(), win)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, out)
}

func (h *handlers) actors(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	win, err := window(r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			phttp.RespondError(w, r, perr.InvalidArgf("bad limit %q, want 1..500", s))
			return
		}
		limit = n
	}
	out, err := h.svc.TopActors(r.Context(), win, limit)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	phttp.RespondOK(w, r, out)
}
