package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"airmon-uplink/internal/journal"
	"airmon-uplink/internal/status"
)

type StatusReader interface {
	Get() status.Snapshot
}

type CycleLister interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Deps wires the handlers. Cycles may be nil when the journal is disabled.
type Deps struct {
	Status StatusReader
	Cycles CycleLister
	Logger *slog.Logger
}

type handlers struct {
	Deps
}

func NewMux(deps Deps) *http.ServeMux {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handlers{Deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /api/v1/status", h.handleStatus)
	mux.HandleFunc("GET /api/v1/cycles", h.handleCycles)
	return mux
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Status.Get())
}

func (h *handlers) handleCycles(w http.ResponseWriter, r *http.Request) {
	if h.Cycles == nil {
		WriteError(w, http.StatusServiceUnavailable, "cycle journal disabled")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.Cycles.Recent(r.Context(), limit)
	if err != nil {
		h.Logger.Error("list cycles", "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to list cycles")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"limit": limit,
		"items": items,
	})
}

func parseLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return journal.DefaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > journal.MaxLimit {
		return 0, errors.New("'limit' must be <= " + strconv.Itoa(journal.MaxLimit))
	}
	return n, nil
}
