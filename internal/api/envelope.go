package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// envelope is the canonical response wrapper returned by the API. TaskID
// catches the historical bare shape of POST /api/tasks/submit, which has no
// success flag and carries its payload at the top level.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	TaskID  string          `json:"task_id,omitempty"`
}

const maxErrorBodyBytes = 8 * 1024

// decodeEnvelope reads a response and unmarshals the data payload into out.
// A non-2xx status or a success=false body yields a *StatusError carrying
// the server-provided message.
func decodeEnvelope(resp *http.Response, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{HTTPStatus: resp.StatusCode, Message: errorMessage(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if !env.Success {
		if env.TaskID != "" {
			// Historical bare shape: the whole body is the payload.
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response data: %w", err)
			}
			return nil
		}
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = strings.TrimSpace(env.Error)
		}
		return &StatusError{HTTPStatus: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// errorMessage pulls {error, message} fields out of a failure body, falling
// back to the raw text when the body is not JSON.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}
