package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/UnknownOlympus/iris/internal/gateway"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flaskNotFoundHTML is the page a Flask backend renders for get_or_404.
const flaskNotFoundHTML = `<!doctype html>
<html lang=en>
<title>404 Not Found</title>
<h1>Not Found</h1>
<p>The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.</p>
`

const storedTaskJSON = `{
	"id": 5,
	"created_date": "2025-06-01T09:00:00",
	"entity_name": "Acme Corp",
	"task_type": "Call",
	"task_time": "2025-06-02T13:30:00",
	"contact_person": "John Smith",
	"note": null,
	"status": "open"
}`

func newGateway(t *testing.T, handler http.HandlerFunc) (*gateway.Gateway, *metrics.Metrics) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	gtw, err := gateway.New(slog.New(slog.DiscardHandler), server.Client(), server.URL, appMetrics)
	require.NoError(t, err)

	return gtw, appMetrics
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	return body
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	_, err := gateway.New(slog.Default(), http.DefaultClient, "localhost", appMetrics)
	require.Error(t, err)

	_, err = gateway.New(slog.Default(), http.DefaultClient, "://bad", appMetrics)
	require.Error(t, err)
}

func TestListQuery(t *testing.T) {
	t.Parallel()

	t.Run("empty filter values are omitted", func(t *testing.T) {
		t.Parallel()

		params := gateway.ListQuery(map[string]string{
			"status":         "open",
			"entity_name":    "",
			"contact_person": "John",
		}, "", "")

		assert.Equal(t, "contact_person=John&status=open", params.Encode())
	})

	t.Run("sort params only with a field", func(t *testing.T) {
		t.Parallel()

		params := gateway.ListQuery(nil, "entity_name", models.SortDesc)
		assert.Equal(t, "entity_name", params.Get("sort_by"))
		assert.Equal(t, "desc", params.Get("sort_order"))

		params = gateway.ListQuery(nil, "", models.SortDesc)
		assert.False(t, params.Has("sort_by"))
		assert.False(t, params.Has("sort_order"))
	})

	t.Run("order defaults to ascending", func(t *testing.T) {
		t.Parallel()

		params := gateway.ListQuery(nil, "task_time", "")
		assert.Equal(t, "asc", params.Get("sort_order"))
	})
}

func TestList(t *testing.T) {
	t.Parallel()

	gtw, appMetrics := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.False(t, r.URL.Query().Has("task_type"))
		assert.Equal(t, "created_date", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))
		assert.NotEmpty(t, r.Header.Get(gateway.RequestIDHeader))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + storedTaskJSON + "]"))
	})

	tasks, err := gtw.List(context.Background(),
		map[string]string{"status": "open", "task_type": ""}, "created_date", models.SortDesc)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 5, tasks[0].ID)
	assert.Equal(t, "Acme Corp", tasks[0].EntityName)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.GatewayRequests.WithLabelValues("list", "success")), 0)
}

func TestList_EmptyArray(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("null"))
	})

	tasks, err := gtw.List(context.Background(), nil, "", "")

	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestList_LargeBody(t *testing.T) {
	t.Parallel()

	const count = 6000
	var body strings.Builder
	body.WriteString("[")
	for i := range count {
		if i > 0 {
			body.WriteString(",")
		}
		body.WriteString(storedTaskJSON)
	}
	body.WriteString("]")
	require.Greater(t, body.Len(), 1<<20)

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body.String()))
	})

	tasks, err := gtw.List(context.Background(), nil, "", "")

	require.NoError(t, err)
	assert.Len(t, tasks, count)
}

func TestList_EmptyBody(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := gtw.List(context.Background(), nil, "", "")

	require.ErrorIs(t, err, gateway.ErrServer)
	assert.Contains(t, err.Error(), "empty response body")
}

func TestList_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	gtw, err := gateway.New(slog.New(slog.DiscardHandler), &http.Client{Timeout: time.Second}, url, appMetrics)
	require.NoError(t, err)

	_, err = gtw.List(context.Background(), nil, "", "")

	require.ErrorIs(t, err, gateway.ErrNetwork)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.GatewayRequests.WithLabelValues("list", "failure")), 0)
}

func TestList_ServerError(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid start_date format"}`))
	})

	_, err := gtw.List(context.Background(), map[string]string{"start_date": "yesterday"}, "", "")

	require.ErrorIs(t, err, gateway.ErrServer)
	require.NotErrorIs(t, err, gateway.ErrNotFound)

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadRequest, serverErr.StatusCode)
	assert.Equal(t, "Invalid start_date format", serverErr.Message)
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		gtw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tasks/5", r.URL.Path)
			_, _ = w.Write([]byte(storedTaskJSON))
		})

		task, err := gtw.Get(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 5, task.ID)
	})

	t.Run("not found html page", func(t *testing.T) {
		t.Parallel()

		gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(flaskNotFoundHTML))
		})

		_, err := gtw.Get(context.Background(), 999)

		require.ErrorIs(t, err, gateway.ErrNotFound)
		assert.True(t, gateway.IsNotFound(err))

		var serverErr *gateway.ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Contains(t, serverErr.Message, "Not Found: The requested URL was not found on the server.")
	})

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		gtw, _ := newGateway(t, func(_ http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
		})

		_, err := gtw.Get(context.Background(), 0)

		require.ErrorIs(t, err, gateway.ErrInvalidID)
		assert.Zero(t, hits.Load())
	})
}

func TestCreate_InjectsOpenStatus(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tasks", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := decodeBody(t, r)
		assert.Equal(t, "open", body["status"])
		assert.Equal(t, "Acme Corp", body["entity_name"])
		assert.Equal(t, "2025-06-02T13:30:00Z", body["task_time"])
		assert.NotContains(t, body, "id")
		assert.NotContains(t, body, "created_date")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(storedTaskJSON))
	})

	task, err := gtw.Create(context.Background(), models.Draft{
		EntityName:    "Acme Corp",
		TaskType:      "Call",
		TaskTime:      models.NewTimestamp(time.Date(2025, 6, 2, 13, 30, 0, 0, time.UTC)),
		ContactPerson: "John Smith",
	})

	require.NoError(t, err)
	assert.Equal(t, 5, task.ID)
	assert.Equal(t, models.StatusOpen, task.Status)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	t.Run("sends only supplied keys", func(t *testing.T) {
		t.Parallel()

		gtw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/tasks/5", r.URL.Path)
			assert.Equal(t, map[string]any{"entity_name": "Updated Corp"}, decodeBody(t, r))

			_, _ = w.Write([]byte(storedTaskJSON))
		})

		name := "Updated Corp"
		_, err := gtw.Update(context.Background(), 5, models.Patch{EntityName: &name})

		require.NoError(t, err)
	})

	t.Run("status is refused without a call", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		gtw, _ := newGateway(t, func(_ http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
		})

		closed := models.StatusClosed
		_, err := gtw.Update(context.Background(), 5, models.Patch{Status: &closed})

		require.ErrorIs(t, err, gateway.ErrStatusInPatch)
		assert.Zero(t, hits.Load())
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/tasks/5/status", r.URL.Path)
		assert.Equal(t, map[string]any{"status": "closed"}, decodeBody(t, r))

		_, _ = w.Write([]byte(`{"id": 5, "entity_name": "Acme Corp", "status": "closed"}`))
	})

	task, err := gtw.UpdateStatus(context.Background(), 5, models.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, task.Status)

	_, err = gtw.UpdateStatus(context.Background(), 5, models.Status("done"))
	require.ErrorIs(t, err, models.ErrInvalidStatus)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("no content", func(t *testing.T) {
		t.Parallel()

		gtw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/tasks/5", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, gtw.Delete(context.Background(), 5))
	})

	t.Run("already deleted", func(t *testing.T) {
		t.Parallel()

		gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "task not found"}`))
		})

		err := gtw.Delete(context.Background(), 5)

		require.ErrorIs(t, err, gateway.ErrNotFound)
	})
}

func TestServerError_PlainBody(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := gtw.Get(context.Background(), 1)

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
	assert.Equal(t, "upstream down", serverErr.Message)
	assert.Equal(t, "task API returned status 502: upstream down", serverErr.Error())
}

func TestServerError_LongPlainBodyKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	gtw, _ := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("x" + strings.Repeat("é", 300)))
	})

	_, err := gtw.Get(context.Background(), 1)

	var serverErr *gateway.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.True(t, utf8.ValidString(serverErr.Message))
	assert.Equal(t, 200, utf8.RuneCountInString(serverErr.Message))
	assert.Equal(t, "x"+strings.Repeat("é", 199), serverErr.Message)
}
