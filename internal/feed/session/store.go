package session

import (
	"bytes"
	"errors"
	"log"
	"strconv"

	"github.com/ensightlabs/walletfeed/internal/feed/kv"
)

// SnapshotKeyPrefix namespaces persisted sessions in the KV substrate.
const SnapshotKeyPrefix = "session:"

func SnapshotKey(tabID int64) string {
	return SnapshotKeyPrefix + strconv.FormatInt(tabID, 10)
}

// Store owns the authoritative tab -> session map. It is not synchronized:
// the aggregator's single event-processing goroutine is the only caller.
// Persistence failures are logged and ignored; the in-memory record stays
// authoritative until the next successful write.
type Store struct {
	sessions map[int64]*TabSession
	kv       kv.Store

	// last canonical bytes written per tab, to skip no-op writes
	written map[int64][]byte
}

func NewStore(substrate kv.Store) *Store {
	return &Store{
		sessions: make(map[int64]*TabSession),
		kv:       substrate,
		written:  make(map[int64][]byte),
	}
}

// Ensure returns the session for the tab, creating it when absent. The
// hostname is applied on creation only.
func (st *Store) Ensure(tabID int64, hostname string, now int64) *TabSession {
	if s, ok := st.sessions[tabID]; ok {
		return s
	}
	s := New(tabID, hostname, now)
	st.sessions[tabID] = s
	return s
}

// Get returns the in-memory session only. Enrichment patches go through
// here so that an evicted session is never resurrected from a snapshot.
func (st *Store) Get(tabID int64) (*TabSession, bool) {
	s, ok := st.sessions[tabID]
	return s, ok
}

// Load returns the in-memory session, falling back to the persisted
// snapshot and re-caching it. An invalid snapshot reads as absent.
func (st *Store) Load(tabID int64) (*TabSession, bool) {
	if s, ok := st.sessions[tabID]; ok {
		return s, true
	}
	raw, ok, err := st.kv.Get(SnapshotKey(tabID))
	if err != nil {
		log.Printf("[store] snapshot read failed: tab=%d err=%v", tabID, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	s, err := Deserialize(raw)
	if err != nil {
		if !errors.Is(err, ErrInvalidSnapshot) {
			log.Printf("[store] snapshot decode failed: tab=%d err=%v", tabID, err)
		}
		return nil, false
	}
	st.sessions[tabID] = s
	return s, true
}

// Evict drops the session and requests removal of its persisted snapshot.
// Navigation and tab close are trust-boundary changes; prior activity for
// the scope is invalidated.
func (st *Store) Evict(tabID int64) {
	delete(st.sessions, tabID)
	delete(st.written, tabID)
	if err := st.kv.Remove(SnapshotKey(tabID)); err != nil {
		log.Printf("[store] snapshot remove failed: tab=%d err=%v", tabID, err)
	}
}

// Persist writes the session snapshot. Returns the canonical bytes written
// (or previously written, when unchanged) for downstream emission.
func (st *Store) Persist(s *TabSession) []byte {
	raw, err := Serialize(s)
	if err != nil {
		log.Printf("[store] serialize failed: tab=%d err=%v", s.TabID, err)
		return nil
	}
	if prev, ok := st.written[s.TabID]; ok && bytes.Equal(prev, raw) {
		return raw
	}
	if err := st.kv.Set(SnapshotKey(s.TabID), raw); err != nil {
		log.Printf("[store] snapshot write failed: tab=%d err=%v", s.TabID, err)
		return raw
	}
	st.written[s.TabID] = raw
	return raw
}

// LastTouched returns the session with the most recent activity.
func (st *Store) LastTouched() (*TabSession, bool) {
	var best *TabSession
	for _, s := range st.sessions {
		if best == nil || s.LastSeenAt > best.LastSeenAt {
			best = s
		}
	}
	return best, best != nil
}

// All returns every in-memory session, unordered.
func (st *Store) All() []*TabSession {
	out := make([]*TabSession, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}
