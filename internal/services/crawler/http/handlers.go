// Package http provides the crawler status surface
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"

	"indexcrawler/internal/core/version"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/logger"
	phttp "indexcrawler/internal/platform/net/http"
	"indexcrawler/internal/services/crawler/domain"
)

const (
	defaultCycles = 20
	maxCycles     = 200
	statusCycles  = 5
)

// StatusSource reports the live scheduler state
type StatusSource interface {
	Snapshot() domain.Snapshot
}

// History lists recorded cycles, newest first
type History interface {
	Recent(ctx context.Context, limit int) ([]domain.CycleResult, error)
}

// Status is the body of GET /v1/status
type Status struct {
	domain.Snapshot
	Recent      []domain.CycleResult `json:"recent,omitempty"`
	LedgerError string               `json:"ledger_error,omitempty"`
}

// Register mounts the status endpoints. h may be nil when the ledger is disabled
func Register(r phttp.Router, s StatusSource, h History) {
	hs := &handlers{src: s, hist: h}

	// liveness
	r.Get("/healthz", phttp.Handle(hs.healthz))

	r.Route("/v1", func(v1 phttp.Router) {
		// scheduler snapshot plus the latest ledger rows
		v1.Get("/status", phttp.Handle(hs.status))

		// ledger page, ?limit=N
		v1.Get("/cycles", phttp.Handle(hs.cycles))
	})
}

type handlers struct {
	src  StatusSource
	hist History
}

func (h *handlers) healthz(*stdhttp.Request) phttp.Response {
	snap := h.src.Snapshot()
	return phttp.OK(map[string]any{
		"status":  "ok",
		"index":   snap.Index,
		"running": snap.Running,
		"build":   version.Info("indexcrawler"),
	})
}

func (h *handlers) status(r *stdhttp.Request) phttp.Response {
	out := Status{Snapshot: h.src.Snapshot()}
	if h.hist != nil {
		rows, err := h.hist.Recent(r.Context(), statusCycles)
		if err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("status: ledger read failed")
			out.LedgerError = err.Error()
		}
		out.Recent = rows
	}
	return phttp.OK(out)
}

func (h *handlers) cycles(r *stdhttp.Request) phttp.Response {
	if h.hist == nil {
		return phttp.Error(perr.NotFoundf("cycle ledger is disabled"))
	}
	limit := defaultCycles
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxCycles {
			return phttp.Error(perr.InvalidArgf("limit must be between 1 and %d", maxCycles))
		}
		limit = n
	}
	rows, err := h.hist.Recent(r.Context(), limit)
	if err != nil {
		return phttp.Error(perr.FromPostgres(err, "read cycle ledger"))
	}
	return phttp.OK(rows)
}
