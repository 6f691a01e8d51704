package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/auditline/coverage/internal/aggregator"
	"github.com/auditline/coverage/internal/gaps"
	"github.com/auditline/coverage/internal/types"
)

type gapsRequest struct {
	Calls       []types.CallRecord `json:"calls"`
	OfficeHours types.OfficeHours  `json:"officeHours"`
	Date        string             `json:"date"`
	MinMinutes  int                `json:"minMinutes"`
}

// HandleGaps recomputes one agent's gaps for a new office-hours window
// without re-parsing the source file.
// POST /api/gaps
func (h *Handler) HandleGaps(w http.ResponseWriter, r *http.Request) {
	var req gapsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.OfficeHours.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation(types.DateKeyLayout, req.Date, time.Local)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	sort.Slice(req.Calls, func(i, j int) bool {
		return req.Calls[i].CallStart.Before(req.Calls[j].CallStart)
	})

	result := gaps.Compute(req.Calls, req.OfficeHours, day)
	if req.MinMinutes > 0 {
		result = gaps.Significant(result, req.MinMinutes)
	}
	if result == nil {
		result = []types.Gap{}
	}

	writeJSON(w, http.StatusOK, map[string][]types.Gap{"gaps": result})
}

type officeHoursRequest struct {
	OfficeHours types.OfficeHours `json:"officeHours"`
	Date        string            `json:"date"`
}

// HandleOfficeHours rebuilds the most recent parse against an edited
// office-hours window, refreshes the cache and pushes the new result to
// connected dashboards.
// POST /api/officehours
func (h *Handler) HandleOfficeHours(w http.ResponseWriter, r *http.Request) {
	var req officeHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.OfficeHours.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	previous, calls, dates, ok := h.cache.Latest()
	if !ok {
		http.Error(w, "no parsed file to recompute", http.StatusNotFound)
		return
	}

	targetDate := req.Date
	if targetDate == "" {
		targetDate = previous.TargetDate
	}

	result, err := aggregator.Build(calls, dates, previous.SourceFormat, targetDate, req.OfficeHours)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.cache.Put(result, calls, dates)
	h.broadcastResult(result)

	h.logger.Info().
		Str("target_date", result.TargetDate).
		Str("office_start", req.OfficeHours.Start.String()).
		Str("office_end", req.OfficeHours.End.String()).
		Msg("coverage recomputed for edited office hours")

	writeJSON(w, http.StatusOK, result)
}
