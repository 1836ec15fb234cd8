package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const maxErrorBodyPreview = 800

// ErrUpstream indicates the catalog API could not serve a request.
var ErrUpstream = errors.New("catalog api request failed")

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	Status  int
	Message string
	Method  string
	URL     string
	Body    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return ErrUpstream
}

// Detail renders the error with request context for verbose output.
func (e *APIError) Detail() string {
	parts := []string{e.Message, fmt.Sprintf("status=%d", e.Status)}
	if target := strings.TrimSpace(e.Method + " " + e.URL); target != "" {
		parts = append(parts, target)
	}
	if preview := compactBodyPreview(e.Body); preview != "" {
		parts = append(parts, fmt.Sprintf("body=%q", preview))
	}
	return strings.Join(parts, "; ")
}

// RequestError is a transport or decoding failure that carries no HTTP status.
type RequestError struct {
	Method string
	URL    string
	Cause  error
}

func (e *RequestError) Error() string {
	parts := []string{ErrUpstream.Error()}
	if target := strings.TrimSpace(e.Method + " " + e.URL); target != "" {
		parts = append(parts, target)
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	return strings.Join(parts, "; ")
}

func (e *RequestError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Cause}
}

func newAPIError(method, rawURL string, status int, body []byte) *APIError {
	return &APIError{
		Status:  status,
		Message: errorMessage(status, body),
		Method:  method,
		URL:     rawURL,
		Body:    string(body),
	}
}

// errorMessage prefers the body's "message", then "error", then a generic
// status line.
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error"} {
			if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
				return value
			}
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

func compactBodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxErrorBodyPreview {
		return body[:maxErrorBodyPreview] + "..."
	}
	return body
}
