package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"
)

// ErrInvalidSnapshot: the stored bytes do not decode to a structurally valid
// session. Callers treat this the same as an absent session.
var ErrInvalidSnapshot = errors.New("invalid session snapshot")

// Serialize encodes the session as RFC 8785 canonical JSON. Canonical bytes
// let the persistence path compare against the last written value and skip
// no-op writes.
func Serialize(s *TabSession) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// snapshotProbe shadows TabSession with pointer fields so that absent keys
// are distinguishable from zero values.
type snapshotProbe struct {
	TabID    *int64     `json:"tabId"`
	Hostname *string    `json:"hostname"`
	Feed     []FeedItem `json:"feed"`
}

// Deserialize restores a session snapshot. It fails closed: a snapshot
// missing the numeric tab id, the hostname, or the feed array yields
// ErrInvalidSnapshot rather than a partially populated record.
func Deserialize(raw []byte) (*TabSession, error) {
	var probe snapshotProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if probe.TabID == nil || probe.Hostname == nil || probe.Feed == nil {
		return nil, ErrInvalidSnapshot
	}

	var s TabSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.Counts == nil {
		s.Counts = zeroCounts()
	}
	return &s, nil
}
