package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auditline/coverage/internal/aggregator"
	"github.com/auditline/coverage/internal/types"
)

type rebuildRequest struct {
	Date        string            `json:"date"`
	OfficeHours types.OfficeHours `json:"officeHours"`
}

// HandleRebuild reconstructs an aggregate result for a date from the
// persisted canonical rows, bypassing parsing entirely.
// POST /api/results/rebuild
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		http.Error(w, "date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	if err := req.OfficeHours.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := h.store.GetCallsByDate(r.Context(), req.Date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", req.Date).Msg("failed to load stored calls")
		http.Error(w, "failed to load stored calls", http.StatusInternalServerError)
		return
	}
	if r.Context().Err() != nil {
		return
	}
	if len(stored) == 0 {
		http.Error(w, "no stored calls for date", http.StatusNotFound)
		return
	}

	result, err := aggregator.Rebuild(stored, types.SourceFormat(stored[0].SourceFormat), req.Date, req.OfficeHours)
	if err != nil {
		if errors.Is(err, aggregator.ErrNoCallsFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.broadcastResult(result)

	h.logger.Info().
		Str("date", req.Date).
		Int("calls", result.RawCallCount).
		Int("agents", len(result.Agents)).
		Msg("result rebuilt from stored calls")

	writeJSON(w, http.StatusOK, result)
}

// HandleAgentCalls returns one agent's stored canonical rows for a date.
// GET /api/agents/{agentName}/calls?date=YYYY-MM-DD
func (h *Handler) HandleAgentCalls(w http.ResponseWriter, r *http.Request) {
	agentName := chi.URLParam(r, "agentName")
	if agentName == "" {
		http.Error(w, "agentName is required", http.StatusBadRequest)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	calls, err := h.store.GetAgentCallsByDate(r.Context(), agentName, date)
	if err != nil {
		h.logger.Error().Err(err).
			Str("agent", agentName).
			Str("date", date).
			Msg("failed to get agent calls")
		http.Error(w, "failed to retrieve calls", http.StatusInternalServerError)
		return
	}

	if calls == nil {
		calls = []types.StoredCall{}
	}
	writeJSON(w, http.StatusOK, calls)
}

// HandleTruncate wipes every stored canonical row and the cached parse.
// Local development helper.
// POST /api/admin/truncate
func (h *Handler) HandleTruncate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to truncate store")
		http.Error(w, "failed to truncate store", http.StatusInternalServerError)
		return
	}
	h.cache.Clear()

	writeJSON(w, http.StatusOK, map[string]string{"status": "truncated"})
}
