package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError reports a non-success response from the MediaCraft API,
// either a non-2xx HTTP status or a success=false envelope.
type StatusError struct {
	HTTPStatus int
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("mediacraft api: http %d: %s", e.HTTPStatus, msg)
	}
	return fmt.Sprintf("mediacraft api: %s", msg)
}

// ServerMessage extracts the server-provided message from an API error,
// or falls back to the error's own text.
func ServerMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && strings.TrimSpace(statusErr.Message) != "" {
		return statusErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.HTTPStatus == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.HTTPStatus == http.StatusUnauthorized || statusErr.HTTPStatus == http.StatusForbidden
}
