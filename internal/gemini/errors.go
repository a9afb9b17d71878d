package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx answer from the Gemini API.
type StatusError struct {
	StatusCode int
	Status     string // upstream status name, e.g. INTERNAL or INVALID_ARGUMENT
	Message    string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API returned status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API returned status %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the failure looks like a temporary upstream condition.
func (e *StatusError) Transient() bool {
	if e.StatusCode >= 500 {
		return true
	}
	msg := strings.ToUpper(e.Status + " " + e.Message)
	return strings.Contains(msg, "INTERNAL") || strings.Contains(msg, "UNAVAILABLE")
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func normalizeError(statusCode int, body []byte) *StatusError {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}
	if len(message) > 500 {
		message = message[:500]
	}

	return &StatusError{
		StatusCode: statusCode,
		Status:     parsed.Error.Status,
		Message:    message,
	}
}
