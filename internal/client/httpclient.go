package client

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single call to the task API when none is configured.
const DefaultTimeout = 10 * time.Second

// CreateHTTPClient initializes an HTTP client with a custom cookie jar and a request timeout.
func CreateHTTPClient(log *slog.Logger, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Jar:     NewCookieJar(log),
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, _ []*http.Request) error {
			log.Debug("Redirected to URL", "URL", req.URL)

			return nil
		},
	}
}
