package controller_test

import (
	"encoding/json"
	"jsonweblog/internal/model"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedRecord struct {
	Sequence uint64 `json:"sequence"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

func dialFeed(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readRecord(t *testing.T, conn *websocket.Conn) feedRecord {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)

	var rec feedRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}

func TestFeedController_BacklogThenLive(t *testing.T) {
	app := newTestApp(t, nil)
	server := httptest.NewServer(app.router)
	defer server.Close()

	app.ingestLines(t,
		`{"level":"INFO","message":"first"}`,
		`{"level":"WARN","message":"second"}`,
	)

	conn := dialFeed(t, server)
	defer conn.Close()

	assert.Equal(t, "first", readRecord(t, conn).Message)
	second := readRecord(t, conn)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, "WARN", second.Level)

	require.Eventually(t, func() bool {
		return app.feed.ActiveConnections() == 1
	}, 2*time.Second, 10*time.Millisecond)

	app.ingestLines(t, `{"level":"ERROR","message":"third"}`)
	third := readRecord(t, conn)
	assert.Equal(t, uint64(3), third.Sequence)
	assert.Equal(t, "third", third.Message)
}

func TestFeedController_DisconnectDeregisters(t *testing.T) {
	app := newTestApp(t, nil)
	server := httptest.NewServer(app.router)
	defer server.Close()

	conn := dialFeed(t, server)
	require.Eventually(t, func() bool {
		return app.broadcaster.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool {
		return app.broadcaster.SubscriberCount() == 0 && app.feed.ActiveConnections() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Ingestion continues with no subscribers.
	app.ingestLines(t, `{"message":"after"}`)
	w := app.do("GET", "/api/logs", "")
	assert.Contains(t, w.Body.String(), "after")
}

func TestFeedController_ShutdownClosesStream(t *testing.T) {
	app := newTestApp(t, nil)
	server := httptest.NewServer(app.router)
	defer server.Close()

	conn := dialFeed(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool {
		return app.broadcaster.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	app.broadcaster.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestFeedController_UnencodableRecordCountsAsDropped(t *testing.T) {
	app := newTestApp(t, nil)
	server := httptest.NewServer(app.router)
	defer server.Close()

	conn := dialFeed(t, server)
	defer conn.Close()
	require.Eventually(t, func() bool {
		return app.broadcaster.SubscriberCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	var raw model.RawFields
	raw.Set("n", json.RawMessage("NaN"))
	app.broadcaster.Publish(&model.LogRecord{Sequence: 100, RawFields: raw})
	app.ingestLines(t, `{"message":"next"}`)

	rec := readRecord(t, conn)
	assert.Equal(t, "next", rec.Message)
	require.Eventually(t, func() bool {
		return app.recorder.Totals().Dropped == 1
	}, 2*time.Second, 10*time.Millisecond)
}
