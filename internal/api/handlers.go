package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/auditline/coverage/internal/aggregator"
	"github.com/auditline/coverage/internal/cache"
	"github.com/auditline/coverage/internal/config"
	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/parse"
	"github.com/auditline/coverage/internal/storage"
	"github.com/auditline/coverage/internal/types"
	"github.com/auditline/coverage/internal/websocket"
)

// Handler provides the REST endpoints for parsing call files and auditing
// coverage gaps.
type Handler struct {
	store  storage.Store
	cache  *cache.ResultCache
	hub    *websocket.Hub
	cfg    *config.Config
	logger zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(store storage.Store, resultCache *cache.ResultCache, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		cache:  resultCache,
		hub:    hub,
		cfg:    cfg,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// formatLabel maps a file name to its metrics label without failing on
// unrecognized extensions.
func formatLabel(name string) string {
	ex, err := parse.ForFile(name)
	if err != nil {
		return "unknown"
	}
	return string(ex.Format())
}

// writeEngineError maps engine failures to HTTP statuses: unrecognized
// extensions to 415, structural file problems to 422.
func (h *Handler) writeEngineError(w http.ResponseWriter, fileName string, err error) {
	var unrecognized *parse.UnrecognizedFormatError
	var missingSheet *parse.MissingSheetError
	var missingCols *parse.MissingColumnsError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &unrecognized):
		status = http.StatusUnsupportedMediaType
	case errors.As(err, &missingSheet), errors.As(err, &missingCols):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, aggregator.ErrNoCallsFound):
		status = http.StatusUnprocessableEntity
	}

	metrics.ParseErrorsTotal.WithLabelValues(formatLabel(fileName)).Inc()
	h.logger.Error().Err(err).Str("file", fileName).Msg("parse failed")
	http.Error(w, err.Error(), status)
}

// broadcastResult pushes a refreshed result to connected dashboards.
func (h *Handler) broadcastResult(result *types.ParseResult) {
	if h.hub == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal result for broadcast")
		return
	}
	h.hub.Broadcast(data)
}
