// Package wire defines the inbound transport envelope. The page-side
// interception layer is an external collaborator; it publishes these
// envelopes to the events topic, at least once, order not guaranteed.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
)

const (
	TypeEthRequest    = "eth_request"
	TypeContentLoaded = "content_loaded"
	TypeEthActive     = "eth_active"
	TypeTabActivated  = "tab_activated"
	TypeTabNavigating = "tab_navigating"
	TypeTabClosed     = "tab_closed"
)

type Envelope struct {
	Type    string          `json:"type"`
	TabID   int64           `json:"tabId"`
	TS      int64           `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type contentLoadedPayload struct {
	URL      string `json:"url,omitempty"`
	Hostname string `json:"hostname"`
}

// Inbound is a decoded envelope. Event is set for TypeEthRequest, Hostname
// for TypeContentLoaded.
type Inbound struct {
	Type     string
	TabID    int64
	TS       int64
	Hostname string
	Event    *event.Event
}

// Decode parses an envelope and its type-specific payload. Unknown types
// pass through so the aggregator can log and skip them.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, fmt.Errorf("bad envelope: %w", err)
	}
	in := Inbound{Type: env.Type, TabID: env.TabID, TS: env.TS}

	switch env.Type {
	case TypeEthRequest:
		var ev event.Event
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Inbound{}, fmt.Errorf("bad eth_request payload: %w", err)
		}
		in.Event = &ev
	case TypeContentLoaded:
		var p contentLoadedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Inbound{}, fmt.Errorf("bad content_loaded payload: %w", err)
		}
		in.Hostname = p.Hostname
	}
	return in, nil
}

// EncodeEthRequest builds an eth_request envelope, used by the generator
// and tests.
func EncodeEthRequest(tabID, ts int64, ev event.Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: TypeEthRequest, TabID: tabID, TS: ts, Payload: payload}, nil
}

// EncodeContentLoaded builds a content_loaded envelope.
func EncodeContentLoaded(tabID, ts int64, hostname string) (Envelope, error) {
	payload, err := json.Marshal(contentLoadedPayload{Hostname: hostname})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: TypeContentLoaded, TabID: tabID, TS: ts, Payload: payload}, nil
}
