package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// The backend answers some routes with a bare payload and others with a
// {"data": payload} envelope. decodePayload normalizes both shapes into the
// strict target type and fails fast (logged) on anything unexpected, instead
// of silently defaulting.
func decodePayload(log *slog.Logger, op string, body []byte, out interface{}) error {
	payload := body

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
			payload = envelope.Data
		}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		log.Error("unexpected response shape", "op", op, "error", err)
		return fmt.Errorf("%s: unexpected response shape: %w", op, err)
	}
	return nil
}
