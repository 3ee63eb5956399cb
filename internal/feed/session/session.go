package session

import (
	"github.com/ensightlabs/walletfeed/internal/feed/event"
	"github.com/ensightlabs/walletfeed/internal/feed/track"
)

// FeedCap bounds the per-session feed. Older entries fall off the view;
// counts keep accumulating.
const FeedCap = 50

// RiskInfo is attached after a backend risk lookup for the destination
// address. LastUpdated is nil when the backend has no freshness info.
type RiskInfo struct {
	Flagged     bool   `json:"flagged"`
	LastUpdated *int64 `json:"lastUpdated"`
}

// EnsInfo is the reverse-name enrichment for the destination address.
type EnsInfo struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

// FeedItem is one UI-ready entry. Exactly one item exists per correlation id
// within a session; Phase reflects the most recently merged terminal state.
type FeedItem struct {
	ID       string         `json:"id"`
	Kind     track.Kind     `json:"kind"`
	Severity track.Severity `json:"severity"`
	OneLiner string         `json:"oneLiner"`
	Method   string         `json:"method"`
	Phase    event.Phase    `json:"phase"`
	// StartedAt is set at first observation and never overwritten.
	StartedAt int64 `json:"startedAt"`
	// ResolvedAt is set iff Phase is after or error.
	ResolvedAt int64 `json:"resolvedAt,omitempty"`
	// Params is the small structured preview: tx -> {to,value,hasData},
	// chain -> {chainId}, otherwise {paramsLength}.
	Params map[string]any `json:"params,omitempty"`
	Error  string         `json:"error,omitempty"`
	Risk   *RiskInfo      `json:"risk,omitempty"`
	ToEns  *EnsInfo       `json:"toEns,omitempty"`
}

// TabSession is the per-scope activity record. Feed is newest first and
// capped at FeedCap; Counts are cumulative for the session lifetime and are
// not decremented when the cap drops old entries.
type TabSession struct {
	TabID      int64              `json:"tabId"`
	Hostname   string             `json:"hostname"`
	Web3Active bool               `json:"web3Active"`
	LastSeenAt int64              `json:"lastSeenAt"`
	Feed       []FeedItem         `json:"feed"`
	Counts     map[track.Kind]int `json:"counts"`
}

func New(tabID int64, hostname string, now int64) *TabSession {
	return &TabSession{
		TabID:      tabID,
		Hostname:   hostname,
		LastSeenAt: now,
		Feed:       []FeedItem{},
		Counts:     zeroCounts(),
	}
}

func zeroCounts() map[track.Kind]int {
	return map[track.Kind]int{
		track.KindConnect: 0,
		track.KindSign:    0,
		track.KindTx:      0,
		track.KindChain:   0,
	}
}

func (s *TabSession) findFeed(id string) int {
	for i := range s.Feed {
		if s.Feed[i].ID == id {
			return i
		}
	}
	return -1
}

// Item returns the feed entry for the correlation id, or nil.
func (s *TabSession) Item(id string) *FeedItem {
	if i := s.findFeed(id); i >= 0 {
		return &s.Feed[i]
	}
	return nil
}

// FirstObjectParam returns params[0] when it is a JSON object. Transaction
// and chain calls carry their payload there.
func FirstObjectParam(params []any) (map[string]any, bool) {
	if len(params) == 0 {
		return nil, false
	}
	obj, ok := params[0].(map[string]any)
	return obj, ok
}

// previewParams reduces raw call params to the stored preview. Raw params
// are never persisted; only this projection is.
func previewParams(method string, params []any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	obj, isObj := FirstObjectParam(params)
	switch method {
	case track.MethodSendTransaction:
		if isObj {
			data, _ := obj["data"].(string)
			return map[string]any{
				"to":      obj["to"],
				"value":   obj["value"],
				"hasData": data != "",
			}
		}
	case track.MethodSwitchChain, track.MethodAddChain:
		if isObj {
			return map[string]any{"chainId": obj["chainId"]}
		}
	}
	return map[string]any{"paramsLength": len(params)}
}
