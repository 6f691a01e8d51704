package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditline/coverage/internal/aggregator"
	"github.com/auditline/coverage/internal/api"
	"github.com/auditline/coverage/internal/cache"
	"github.com/auditline/coverage/internal/config"
	"github.com/auditline/coverage/internal/storage"
	"github.com/auditline/coverage/internal/types"
)

const sampleCSV = `Date,User,Full name,From,To,Call Duration In Seconds,Call Type
2026-03-02 09:30:00,alice,Alice Archer,+15550001,+15550002,600,Outbound
2026-03-02 11:00:00,alice,Alice Archer,+15550003,+15550001,300,Inbound
2026-03-02 14:00:00,bob,Bob Breaker,+15550004,+15550005,900,Outbound
`

// memStore keeps stored calls in memory so rebuild and agent-lookup
// endpoints can be exercised without DynamoDB.
type memStore struct {
	calls     []types.StoredCall
	truncated bool
}

func (s *memStore) SaveCalls(_ context.Context, calls []types.StoredCall) error {
	s.calls = append(s.calls, calls...)
	return nil
}

func (s *memStore) GetCallsByDate(_ context.Context, dateKey string) ([]types.StoredCall, error) {
	var out []types.StoredCall
	for _, c := range s.calls {
		if c.DateKey == dateKey {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetAgentCallsByDate(_ context.Context, agentName, dateKey string) ([]types.StoredCall, error) {
	var out []types.StoredCall
	for _, c := range s.calls {
		if c.DateKey == dateKey && c.AgentName == agentName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) TruncateAll(_ context.Context) error {
	s.calls = nil
	s.truncated = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		OfficeHours:           aggregator.DefaultOfficeHours,
		SignificantGapMinutes: 15,
		MaxUploadBytes:        32 << 20,
	}
}

func newTestHandler(store storage.Store) *api.Handler {
	logger := zerolog.New(&bytes.Buffer{})
	return api.NewHandler(store, cache.NewResultCache(), nil, testConfig(), logger)
}

func multipartUpload(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHandleParseCSV(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body, contentType := multipartUpload(t, "export.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.HandleParse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, "2026-03-02", result.TargetDate)
	assert.Equal(t, types.SourceDelimited, result.SourceFormat)
	assert.Equal(t, 3, result.RawCallCount)
	require.Len(t, result.Agents, 2)
	assert.Equal(t, "alice", result.Agents[0].AgentName)
	assert.Equal(t, "bob", result.Agents[1].AgentName)
	assert.NotEmpty(t, result.ResultID)
}

func TestHandleParsePersistsCalls(t *testing.T) {
	store := &memStore{}
	handler := newTestHandler(store)

	body, contentType := multipartUpload(t, "export.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.HandleParse(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.calls, 3)
	for _, c := range store.calls {
		assert.Equal(t, "2026-03-02", c.DateKey)
		assert.NotEmpty(t, c.CallID)
	}
}

func TestHandleParseUnrecognizedFormat(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body, contentType := multipartUpload(t, "export.pdf", "not a call file")
	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.HandleParse(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandleParseMissingColumns(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body, contentType := multipartUpload(t, "export.csv", "Date,Full name\n2026-03-02,Alice\n")
	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.HandleParse(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "User")
}

func TestHandleParseMissingFilePart(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("date", "2026-03-02"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.HandleParse(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDates(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	content := sampleCSV + "2026-03-01 10:00:00,alice,Alice Archer,+15550001,+15550002,120,Outbound\n"
	body, contentType := multipartUpload(t, "export.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/api/dates", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.HandleDates(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2026-03-02", "2026-03-01"}, resp["dates"])
}

func TestHandleGaps(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	payload := map[string]any{
		"calls": []types.CallRecord{
			{
				AgentName:       "alice",
				CallStart:       day.Add(9 * time.Hour),
				DurationSeconds: 3600,
				Direction:       types.DirectionOutbound,
			},
			{
				AgentName:       "alice",
				CallStart:       day.Add(11 * time.Hour),
				DurationSeconds: 1800,
				Direction:       types.DirectionInbound,
			},
		},
		"officeHours": map[string]string{"start": "08:00", "end": "18:00"},
		"date":        "2026-03-02",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/gaps", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleGaps(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]types.Gap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gapsOut := resp["gaps"]
	require.Len(t, gapsOut, 3)
	assert.Equal(t, 3600, gapsOut[0].DurationSeconds)
	assert.Equal(t, 3600, gapsOut[1].DurationSeconds)
	assert.Equal(t, 23400, gapsOut[2].DurationSeconds)
}

func TestHandleGapsMinMinutesFilters(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	payload := map[string]any{
		"calls": []types.CallRecord{
			{AgentName: "alice", CallStart: day.Add(8*time.Hour + 5*time.Minute), DurationSeconds: 300},
			{AgentName: "alice", CallStart: day.Add(9 * time.Hour), DurationSeconds: 32400},
		},
		"officeHours": map[string]string{"start": "08:00", "end": "18:00"},
		"date":        "2026-03-02",
		"minMinutes":  15,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/gaps", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleGaps(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]types.Gap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Only the 50-minute mid-morning gap survives the 15-minute floor.
	require.Len(t, resp["gaps"], 1)
	assert.Equal(t, 3000, resp["gaps"][0].DurationSeconds)
}

func TestHandleGapsBadRequests(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	tests := map[string]string{
		"invalid json":        `{`,
		"inverted hours":      `{"calls":[],"officeHours":{"start":"18:00","end":"08:00"},"date":"2026-03-02"}`,
		"unparseable date":    `{"calls":[],"officeHours":{"start":"08:00","end":"18:00"},"date":"03/02/2026"}`,
		"missing date":        `{"calls":[],"officeHours":{"start":"08:00","end":"18:00"}}`,
		"garbage office time": `{"calls":[],"officeHours":{"start":"eight","end":"18:00"},"date":"2026-03-02"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/gaps", strings.NewReader(body))
			rec := httptest.NewRecorder()
			handler.HandleGaps(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleOfficeHoursWithoutParse(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body := `{"officeHours":{"start":"09:00","end":"17:00"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/officehours", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleOfficeHours(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOfficeHoursRecomputes(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	body, contentType := multipartUpload(t, "export.csv", sampleCSV)
	parseReq := httptest.NewRequest(http.MethodPost, "/api/parse", body)
	parseReq.Header.Set("Content-Type", contentType)
	parseRec := httptest.NewRecorder()
	handler.HandleParse(parseRec, parseReq)
	require.Equal(t, http.StatusOK, parseRec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/officehours",
		strings.NewReader(`{"officeHours":{"start":"09:00","end":"12:00"}}`))
	rec := httptest.NewRecorder()

	handler.HandleOfficeHours(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "2026-03-02", result.TargetDate)
	require.Len(t, result.Agents, 2)

	// Bob's only call starts after the window closes, so his idle span
	// runs from window open all the way to the call.
	var bob *types.AgentSummary
	for i := range result.Agents {
		if result.Agents[i].AgentName == "bob" {
			bob = &result.Agents[i]
		}
	}
	require.NotNil(t, bob)
	require.Len(t, bob.Gaps, 1)
	assert.Equal(t, 5*3600, bob.Gaps[0].DurationSeconds)
}

func TestHandleRebuild(t *testing.T) {
	store := &memStore{}
	handler := newTestHandler(store)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	calls := []types.CallRecord{
		{AgentName: "alice", CallStart: day.Add(9 * time.Hour), DurationSeconds: 600, Direction: types.DirectionOutbound},
		{AgentName: "alice", CallStart: day.Add(13 * time.Hour), DurationSeconds: 300, Direction: types.DirectionInbound},
	}
	for _, c := range calls {
		require.NoError(t, store.SaveCalls(context.Background(),
			[]types.StoredCall{types.NewStoredCall(c, types.SourceDelimited)}))
	}

	body := `{"date":"2026-03-02","officeHours":{"start":"08:00","end":"18:00"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/results/rebuild", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleRebuild(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "2026-03-02", result.TargetDate)
	assert.Equal(t, 2, result.RawCallCount)
	require.Len(t, result.Agents, 1)
	assert.Equal(t, "alice", result.Agents[0].AgentName)
}

func TestHandleRebuildNoStoredCalls(t *testing.T) {
	handler := newTestHandler(&memStore{})

	body := `{"date":"2026-03-02","officeHours":{"start":"08:00","end":"18:00"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/results/rebuild", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleRebuild(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRebuildRequiresDate(t *testing.T) {
	handler := newTestHandler(&memStore{})

	body := `{"officeHours":{"start":"08:00","end":"18:00"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/results/rebuild", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleRebuild(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgentCalls(t *testing.T) {
	store := &memStore{}
	handler := newTestHandler(store)

	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	require.NoError(t, store.SaveCalls(context.Background(), []types.StoredCall{
		types.NewStoredCall(types.CallRecord{AgentName: "alice", CallStart: day, DurationSeconds: 60}, types.SourceDelimited),
		types.NewStoredCall(types.CallRecord{AgentName: "bob", CallStart: day, DurationSeconds: 60}, types.SourceDelimited),
	}))

	router := chi.NewRouter()
	router.Get("/api/agents/{agentName}/calls", handler.HandleAgentCalls)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/alice/calls?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var calls []types.StoredCall
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calls))
	require.Len(t, calls, 1)
	assert.Equal(t, "alice", calls[0].AgentName)
}

func TestHandleAgentCallsRequiresDate(t *testing.T) {
	handler := newTestHandler(&memStore{})

	router := chi.NewRouter()
	router.Get("/api/agents/{agentName}/calls", handler.HandleAgentCalls)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/alice/calls", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgentCallsEmptyResult(t *testing.T) {
	handler := newTestHandler(storage.NewNoopStore())

	router := chi.NewRouter()
	router.Get("/api/agents/{agentName}/calls", handler.HandleAgentCalls)

	req := httptest.NewRequest(http.MethodGet, "/api/agents/ghost/calls?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHandleTruncate(t *testing.T) {
	store := &memStore{}
	handler := newTestHandler(store)

	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	require.NoError(t, store.SaveCalls(context.Background(), []types.StoredCall{
		types.NewStoredCall(types.CallRecord{AgentName: "alice", CallStart: day, DurationSeconds: 60}, types.SourceDelimited),
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/truncate", nil)
	rec := httptest.NewRecorder()

	handler.HandleTruncate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.truncated)
	assert.Empty(t, store.calls)
}

func TestFormatLabelCoversMetricsWithoutPanic(t *testing.T) {
	// Repeated parse errors must not explode label cardinality; the same
	// file extension maps to a stable label.
	handler := newTestHandler(storage.NewNoopStore())
	for i := 0; i < 3; i++ {
		body, contentType := multipartUpload(t, fmt.Sprintf("bad-%d.pdf", i), "x")
		req := httptest.NewRequest(http.MethodPost, "/api/parse", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.HandleParse(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	}
}
