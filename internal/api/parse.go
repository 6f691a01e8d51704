package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/auditline/coverage/internal/aggregator"
	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/parse"
	"github.com/auditline/coverage/internal/types"
)

// HandleParse ingests an uploaded vendor export and returns the aggregate
// coverage result for the requested (or most recent) date.
// POST /api/parse, multipart: file, optional date=YYYY-MM-DD
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	file, header, err := h.uploadedFile(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read upload")
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}
	// Reading the upload is the suspension point; commit nothing if the
	// caller already went away.
	if r.Context().Err() != nil {
		return
	}

	ex, err := parse.ForFile(header.Filename)
	if err != nil {
		h.writeEngineError(w, header.Filename, err)
		return
	}

	calls, err := ex.Extract(data)
	if err != nil {
		h.writeEngineError(w, header.Filename, err)
		return
	}
	dates, err := ex.Dates(data)
	if err != nil {
		h.writeEngineError(w, header.Filename, err)
		return
	}

	result, err := aggregator.Build(calls, dates, ex.Format(), r.FormValue("date"), h.cfg.OfficeHours)
	if err != nil {
		h.writeEngineError(w, header.Filename, err)
		return
	}

	// Persist canonical rows so the result can be rebuilt later against
	// different office hours. Storage trouble does not fail the parse.
	stored := make([]types.StoredCall, len(calls))
	for i, c := range calls {
		stored[i] = types.NewStoredCall(c, ex.Format())
	}
	if err := h.store.SaveCalls(r.Context(), stored); err != nil {
		h.logger.Warn().Err(err).Int("calls", len(stored)).Msg("failed to persist canonical calls")
	}

	h.cache.Put(result, calls, dates)
	h.broadcastResult(result)

	label := string(ex.Format())
	metrics.ParsesTotal.WithLabelValues(label).Inc()
	metrics.CallsRetainedTotal.WithLabelValues(label).Add(float64(len(calls)))
	metrics.ParseDurationSeconds.WithLabelValues(label).Observe(time.Since(started).Seconds())

	h.logger.Info().
		Str("file", header.Filename).
		Str("format", label).
		Str("target_date", result.TargetDate).
		Int("calls", result.RawCallCount).
		Int("agents", len(result.Agents)).
		Msg("call file parsed")

	writeJSON(w, http.StatusOK, result)
}

// HandleDates lists every calendar date present in an uploaded file,
// newest first, without building summaries.
// POST /api/dates, multipart: file
func (h *Handler) HandleDates(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.uploadedFile(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read upload")
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	dates, err := aggregator.AvailableDates(header.Filename, data)
	if err != nil {
		h.writeEngineError(w, header.Filename, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// uploadedFile pulls the multipart "file" part, writing the failure
// response itself so callers can simply return.
func (h *Handler) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return nil, nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return nil, nil, err
	}
	return file, header, nil
}
