package client

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// CookieJar implements http.CookieJar for keeping the API session in memory.
// Cookies are scoped per host and merged by name; expired cookies are dropped.
type CookieJar struct {
	log *slog.Logger
	mu  sync.Mutex
	jar map[string]map[string]*http.Cookie
	now func() time.Time
}

// NewCookieJar initializes an in-memory cookie jar.
func NewCookieJar(log *slog.Logger) *CookieJar {
	return &CookieJar{
		jar: make(map[string]map[string]*http.Cookie),
		log: log,
		now: time.Now,
	}
}

// SetCookies stores cookies for a given URL.
func (c *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()

	host := u.Hostname()
	stored, ok := c.jar[host]
	if !ok {
		stored = make(map[string]*http.Cookie)
		c.jar[host] = stored
	}

	for _, cookie := range cookies {
		if c.expired(cookie) {
			delete(stored, cookie.Name)
			continue
		}
		stored[cookie.Name] = cookie
	}
	c.log.Debug("Set cookies", "host", host, "count", len(stored))
}

// Cookies retrieves the live cookies for a given URL.
func (c *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.jar[u.Hostname()]
	cookies := make([]*http.Cookie, 0, len(stored))
	for name, cookie := range stored {
		if c.expired(cookie) {
			delete(stored, name)
			continue
		}
		cookies = append(cookies, cookie)
	}

	return cookies
}

func (c *CookieJar) expired(cookie *http.Cookie) bool {
	if cookie.MaxAge < 0 {
		return true
	}
	return !cookie.Expires.IsZero() && cookie.Expires.Before(c.now())
}
