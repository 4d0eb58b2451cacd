package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/keystone/pkg/adapters/memory"
	"github.com/aretw0/keystone/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	h := domain.NewHistory()
	h.UndoEvents = append(h.UndoEvents, domain.UndoEvent{
		TargetPath:     domain.Path{"todos", "0"},
		ActionName:     "setDone",
		Patches:        []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"todos", "0", "done"}, Value: true}},
		InversePatches: []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"todos", "0", "done"}, Value: false}},
	})
	require.NoError(t, store.Save(context.Background(), "s1", h))
	return store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	rr := get(t, NewHandler(memory.NewStore()), "/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := get(t, NewHandler(memory.NewStore(), WithVersion("1.2.3")), "/info")

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "keystone-http", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
}

func TestListSessions(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		rr := get(t, NewHandler(memory.NewStore()), "/sessions")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"sessions":[]}`, rr.Body.String())
	})

	t.Run("seeded", func(t *testing.T) {
		rr := get(t, NewHandler(seededStore(t)), "/sessions")
		assert.JSONEq(t, `{"sessions":["s1"]}`, rr.Body.String())
	})
}

func TestGetSession(t *testing.T) {
	h := NewHandler(seededStore(t))

	rr := get(t, h, "/sessions/s1")
	require.Equal(t, http.StatusOK, rr.Code)
	var view SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "s1", view.ID)
	assert.Equal(t, 1, view.UndoLevels)
	assert.Equal(t, 0, view.RedoLevels)
	assert.Equal(t, "setDone", view.UndoEvents[0].ActionName)
	assert.NotNil(t, view.RedoEvents)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/sessions/missing").Code)
}

func TestGetEvents(t *testing.T) {
	h := NewHandler(seededStore(t))

	rr := get(t, h, "/sessions/s1/events/undo")
	require.Equal(t, http.StatusOK, rr.Code)
	var events []domain.UndoEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, domain.Path{"todos", "0"}, events[0].TargetPath)

	rr = get(t, h, "/sessions/s1/events/redo")
	assert.JSONEq(t, `[]`, rr.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/sessions/s1/events/sideways").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/sessions/missing/events/undo").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, NewHandler(memory.NewStore()), "/metrics").Code)

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "keystone_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	rr := get(t, NewHandler(memory.NewStore(), WithGatherer(reg)), "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "keystone_test_total 1")
}
