package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a non-2xx answer from the proxy or the backend.
type Error struct {
	Status  int
	Message string
	Kind    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// newError extracts a user-visible message from an error body, falling back to the status code.
func newError(status int, body []byte, kind error) *Error {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch v := payload.Error.(type) {
		case string:
			msg = v
		case map[string]any:
			if m, ok := v["message"].(string); ok {
				msg = m
			}
		}
		if msg == "" {
			msg = payload.Message
		}
	}
	if strings.TrimSpace(msg) == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Status: status, Message: msg, Kind: kind}
}
