package controller_test

import (
	"context"
	"encoding/json"
	"errors"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/controller"
	"jsonweblog/internal/layoutstore"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/model"
	"jsonweblog/internal/parser"
	"jsonweblog/internal/schema"
	"jsonweblog/internal/service"
	"jsonweblog/internal/store"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router      *gin.Engine
	ingest      service.IngestService
	feed        service.FeedService
	layouts     service.LayoutService
	broadcaster broadcast.Broadcaster
	recorder    metrics.Recorder
	nextLine    uint64
}

type failingLayoutStore struct{}

func (failingLayoutStore) Load(context.Context) (*model.TableLayout, error) {
	return nil, layoutstore.ErrLayoutNotFound
}

func (failingLayoutStore) Save(context.Context, *model.TableLayout) error {
	return errors.New("disk full")
}

func newTestApp(t *testing.T, layoutStore layoutstore.Store) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if layoutStore == nil {
		layoutStore = layoutstore.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	}

	tracker := schema.NewTracker()
	recorder := metrics.NewRecorder()
	recordStore := store.NewInMemoryRecordStore(1000, tracker)
	broadcaster := broadcast.NewBroadcaster(recordStore, 100, recorder)
	t.Cleanup(broadcaster.Close)

	normalizer := parser.NewNormalizer(parser.NewFlattener(0), nil)
	feed := service.NewFeedService(broadcaster)
	layouts := service.NewLayoutService(layoutStore, tracker)

	router := gin.New()
	controller.RegisterLogRoutes(router, controller.NewLogController(
		service.NewLogQueryService(recordStore, nil, recorder),
		service.NewStatsService(recordStore, feed, recorder),
	))
	controller.RegisterSchemaRoutes(router, controller.NewSchemaController(layouts))
	controller.RegisterFeedRoutes(router, controller.NewFeedController(feed, recorder))

	return &testApp{
		router:      router,
		ingest:      service.NewIngestService(nil, normalizer, recordStore, broadcaster, recorder),
		feed:        feed,
		layouts:     layouts,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

func (a *testApp) ingestLines(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		a.nextLine++
		_, _ = a.ingest.IngestLine(line, a.nextLine)
	}
}

func (a *testApp) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
