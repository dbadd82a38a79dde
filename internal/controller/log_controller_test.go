package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logsBody struct {
	Logs []struct {
		Sequence uint64 `json:"sequence"`
		Level    string `json:"level"`
		Logger   string `json:"logger"`
		Message  string `json:"message"`
	} `json:"logs"`
	TotalCount    int `json:"total_count"`
	FilteredCount int `json:"filtered_count"`
}

func sampleLines() []string {
	return []string{
		`{"timestamp":"2024-01-01T10:00:00Z","level":"INFO","logger":"api","message":"request served"}`,
		`{"timestamp":"2024-01-01T10:00:01Z","level":"ERROR","logger":"db","message":"disk failure"}`,
		`not json`,
		`{"timestamp":"2024-01-01T10:00:02Z","level":"WARN","logger":"api","message":"slow disk"}`,
		`{"timestamp":"2024-01-01T10:00:03Z","level":"ERROR","logger":"api","message":"timeout"}`,
	}
}

func TestLogController_GetLogs(t *testing.T) {
	app := newTestApp(t, nil)
	app.ingestLines(t, sampleLines()...)

	tests := []struct {
		name     string
		query    string
		expected []uint64
	}{
		{name: "no filter", query: "", expected: []uint64{1, 2, 4, 5}},
		{name: "level", query: "?level=error", expected: []uint64{2, 5}},
		{name: "search is case insensitive", query: "?search=DISK", expected: []uint64{2, 4}},
		{name: "logger", query: "?logger=api", expected: []uint64{1, 4, 5}},
		{name: "combined", query: "?logger=api&level=ERROR", expected: []uint64{5}},
		{name: "time range inclusive", query: "?startTime=2024-01-01T10:00:01Z&endTime=2024-01-01T10:00:02Z", expected: []uint64{2, 4}},
		{name: "epoch millis", query: "?startTime=1704103202000", expected: []uint64{4, 5}},
		{name: "limit keeps most recent", query: "?limit=2", expected: []uint64{4, 5}},
		{name: "limit zero", query: "?limit=0", expected: []uint64{}},
		{name: "module never matches records without module", query: "?module=x", expected: []uint64{}},
		{name: "empty parameters ignored", query: "?level=&search=", expected: []uint64{1, 2, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodGet, "/api/logs"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			body := decode[logsBody](t, w)
			got := make([]uint64, 0, len(body.Logs))
			for _, l := range body.Logs {
				got = append(got, l.Sequence)
			}
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, 4, body.TotalCount)
		})
	}
}

func TestLogController_GetLogs_FilteredCountIgnoresLimit(t *testing.T) {
	app := newTestApp(t, nil)
	app.ingestLines(t, sampleLines()...)

	w := app.do(http.MethodGet, "/api/logs?logger=api&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[logsBody](t, w)
	require.Len(t, body.Logs, 1)
	assert.Equal(t, "timeout", body.Logs[0].Message)
	assert.Equal(t, "ERROR", body.Logs[0].Level)
	assert.Equal(t, 3, body.FilteredCount)
}

func TestLogController_GetLogs_BadRequest(t *testing.T) {
	app := newTestApp(t, nil)

	for _, query := range []string{
		"?startTime=yesterday",
		"?endTime=2024-13-45",
		"?limit=abc",
		"?limit=-1",
	} {
		t.Run(query, func(t *testing.T) {
			w := app.do(http.MethodGet, "/api/logs"+query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "message")
		})
	}
}

func TestLogController_ClearAndStats(t *testing.T) {
	app := newTestApp(t, nil)
	app.ingestLines(t, sampleLines()...)

	w := app.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.EqualValues(t, 4, stats["total_logs"])
	assert.EqualValues(t, 4, stats["ingested_records"])
	assert.EqualValues(t, 1, stats["rejected_lines"])
	assert.EqualValues(t, 0, stats["active_connections"])
	assert.Contains(t, stats, "uptime_seconds")

	w = app.do(http.MethodPost, "/api/logs/clear", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/logs", "")
	body := decode[logsBody](t, w)
	assert.Empty(t, body.Logs)
	assert.Equal(t, 0, body.TotalCount)

	w = app.do(http.MethodGet, "/api/schema", "")
	schemaBody := decode[map[string]any](t, w)
	assert.Equal(t, true, schemaBody["initialized"])
}

func TestLogController_SearchArchiveDisabled(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(http.MethodGet, "/api/archive/logs?search=disk", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLogController_GetLogs_StaysEncodableOnEdgeInput(t *testing.T) {
	app := newTestApp(t, nil)
	app.ingestLines(t,
		`{"msg":"bad","n":NaN}`,
		`{"msg":"far","ts":999999999999}`,
		"{\"msg\":\"bytes\xff\"}",
		`{"msg":"fine"}`,
	)

	w := app.do(http.MethodGet, "/api/logs", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[logsBody](t, w)
	require.Len(t, body.Logs, 2)
	assert.Equal(t, "far", body.Logs[0].Message)
	assert.Equal(t, uint64(2), body.Logs[0].Sequence)
	assert.Equal(t, "fine", body.Logs[1].Message)

	w = app.do(http.MethodGet, "/api/stats", "")
	stats := decode[map[string]any](t, w)
	assert.EqualValues(t, 2, stats["rejected_lines"])
}

func TestLogController_GetLogs_OutOfRangeTimeIsBadRequest(t *testing.T) {
	app := newTestApp(t, nil)

	w := app.do(http.MethodGet, "/api/logs?startTime=999999999999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
