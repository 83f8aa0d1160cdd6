package events

import (
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypeRunCompleted   = "run_completed"
	TypeRunDeleted     = "run_deleted"
	TypeConfigUpdated  = "config_updated"
	TypeRetentionSwept = "retention_swept"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type RunCompleted struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	Documents   int    `json:"documents"`
	TopFilename string `json:"top_filename,omitempty"`
	TopScore    int    `json:"top_score,omitempty"`
}

type RunDeleted struct {
	RunID string `json:"run_id"`
}

type RetentionSwept struct {
	Deleted int64 `json:"deleted"`
	Days    int   `json:"days"`
}

// MakeEvent encodes an event as one JSON line ready for the hub.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
