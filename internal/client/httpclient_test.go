package client_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/iris/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHTTPClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "configured timeout", timeout: 3 * time.Second, want: 3 * time.Second},
		{name: "zero falls back to default", timeout: 0, want: client.DefaultTimeout},
		{name: "negative falls back to default", timeout: -time.Second, want: client.DefaultTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			httpClient := client.CreateHTTPClient(slog.New(slog.DiscardHandler), tt.timeout)

			assert.NotNil(t, httpClient.Jar)
			assert.NotNil(t, httpClient.CheckRedirect)
			assert.Equal(t, tt.want, httpClient.Timeout)
		})
	}
}

func TestCreateHTTPClient_FollowsAndLogsRedirects(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks":
			http.Redirect(w, r, "/api/tasks/", http.StatusMovedPermanently)
		case "/api/tasks/":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[]"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	httpClient := client.CreateHTTPClient(log, time.Second)

	resp, err := httpClient.Get(server.URL + "/api/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/api/tasks/", resp.Request.URL.Path)
	assert.Contains(t, logBuf.String(), `msg="Redirected to URL"`)
	assert.Contains(t, logBuf.String(), "URL="+server.URL+"/api/tasks/")

	cookies := httpClient.Jar.Cookies(resp.Request.URL)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
}
