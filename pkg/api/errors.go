package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RequestError is a non-2xx response from the backend. Message carries the
// backend's structured error field when one was present, otherwise the
// operation's generic fallback text.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// errorBody matches the backend's error envelope. The error field is a
// string in most handlers but an object in some validation paths; objects
// are stringified for display.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// parseError builds a RequestError from a non-2xx response.
// fallback is the per-operation generic message ("failed to apply credit").
func parseError(op, fallback string, resp *http.Response) error {
	reqErr := &RequestError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    fallback,
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return reqErr
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 {
		return reqErr
	}

	var msg string
	if err := json.Unmarshal(eb.Error, &msg); err == nil && msg != "" {
		reqErr.Message = msg
		return reqErr
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(eb.Error, &obj); err == nil && len(obj) > 0 {
		reqErr.Message = fmt.Sprintf("%v", obj)
	}
	return reqErr
}
