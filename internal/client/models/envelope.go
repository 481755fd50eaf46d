package models

import (
	"bytes"
	"encoding/json"
)

// Envelope is the response wrapper used by every backend endpoint.
// Data is kept raw so each operation decodes its own payload type.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Details any             `json:"details,omitempty"`
}

// HasData reports whether the envelope carries a non-null data member.
func (e *Envelope) HasData() bool {
	if e == nil {
		return false
	}
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Reason returns the most specific human-readable text in the envelope.
func (e *Envelope) Reason() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
