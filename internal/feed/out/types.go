package out

import (
	"encoding/json"
)

type Envelope struct {
	Type string          `json:"type"` // e.g. "session_snapshot"
	TS   int64           `json:"ts"`   // unix milli
	Data json.RawMessage `json:"data"`
}

// TypeSessionSnapshot carries one canonical session snapshot per update.
const TypeSessionSnapshot = "session_snapshot"
