package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrNetwork       = errors.New("task API unreachable")
	ErrServer        = errors.New("task API returned an error")
	ErrNotFound      = errors.New("task not found")
	ErrStatusInPatch = errors.New("status changes must use UpdateStatus")
	ErrInvalidID     = errors.New("task id must be positive")
)

// ServerError is a non-2xx response from the task API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("task API returned status %d: %s", e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool {
	if target == ErrServer {
		return true
	}
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// errorFromResponse builds a ServerError, pulling a human readable message out of a
// JSON {"error": ...} body or an HTML error page.
func errorFromResponse(statusCode int, contentType string, body []byte) error {
	return &ServerError{StatusCode: statusCode, Message: extractMessage(contentType, body)}
}

func extractMessage(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if strings.Contains(contentType, "json") || trimmed[0] == '{' {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if payload.Error != "" {
				return payload.Error
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}

	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if msg := htmlMessage(trimmed); msg != "" {
			return msg
		}
	}

	const maxPlain = 200
	msg := string(trimmed)
	if utf8.RuneCountInString(msg) > maxPlain {
		msg = string([]rune(msg)[:maxPlain])
	}

	return msg
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var parts []string
	if heading := strings.TrimSpace(doc.Find("h1").First().Text()); heading != "" {
		parts = append(parts, heading)
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	if para := strings.TrimSpace(doc.Find("p").First().Text()); para != "" {
		parts = append(parts, strings.Join(strings.Fields(para), " "))
	}

	return strings.Join(parts, ": ")
}
