package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Error is a response with status >= 400.
type Error struct {
	Method  string
	URL     string
	Status  int
	Message string // from the body's "message" or "error" field
	Body    []byte
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// TransportError means no response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0 for anything else.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }

func IsForbidden(err error) bool { return StatusOf(err) == http.StatusForbidden }

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

// Message picks what a user should see: the server's message if it sent one,
// otherwise fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// errorBody covers Spring's default error document and the custom {message}
// bodies; status is sometimes a string, hence the weak decode.
type errorBody struct {
	Message string `mapstructure:"message"`
	Error   string `mapstructure:"error"`
	Status  int    `mapstructure:"status"`
	Path    string `mapstructure:"path"`
}

func newError(method, url string, status int, body []byte) *Error {
	e := &Error{Method: method, URL: url, Status: status, Body: body}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		if txt := strings.TrimSpace(string(body)); txt != "" && len(txt) <= 200 && !strings.HasPrefix(txt, "<") {
			e.Message = txt
		}
		return e
	}
	var eb errorBody
	if err := mapstructure.WeakDecode(raw, &eb); err != nil {
		return e
	}
	switch {
	case eb.Message != "":
		e.Message = eb.Message
	case eb.Error != "":
		e.Message = eb.Error
	}
	return e
}
