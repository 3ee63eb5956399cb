package session

import (
	"fmt"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
	"github.com/ensightlabs/walletfeed/internal/feed/track"
)

// Merge folds one lifecycle event into the session, in place.
//
// One feed entry per correlation id: a before creates (or retries) the
// entry, a terminal phase resolves it. Out-of-order delivery is tolerated:
// a terminal without a prior before synthesizes the entry, and a before
// arriving after the terminal does not un-resolve it. StartedAt is set at
// the first merge for the id and never overwritten.
//
// Malformed events (missing id or method, unknown phase) return
// event.ErrMalformed and leave the session untouched.
func Merge(s *TabSession, ev event.Event, now int64) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("merge %q: %w", ev.Method, err)
	}

	kind := track.Classify(ev.Method)
	sev := track.SeverityFor(kind, ev.Phase)
	line := track.OneLiner(kind, ev.Method, ev.Phase, ev.Error)
	idx := s.findFeed(ev.ID)

	switch ev.Phase {
	case event.PhaseBefore:
		item := FeedItem{
			ID:        ev.ID,
			Kind:      kind,
			Severity:  sev,
			OneLiner:  line,
			Method:    ev.Method,
			Phase:     event.PhaseBefore,
			StartedAt: now,
			Params:    previewParams(ev.Method, ev.Params),
		}
		switch {
		case idx < 0:
			s.Counts[kind]++
			s.prepend(item)
		case s.Feed[idx].Phase == event.PhaseBefore:
			// Retried before: replace in place, keep position and counts.
			item.StartedAt = s.Feed[idx].StartedAt
			s.Feed[idx] = item
		default:
			// Late before after the terminal already landed: the entry is
			// resolved, only backfill the preview.
			if s.Feed[idx].Params == nil {
				s.Feed[idx].Params = item.Params
			}
		}

	case event.PhaseAfter, event.PhaseError:
		if idx < 0 {
			// The before was missed or evicted; synthesize a resolved entry.
			item := FeedItem{
				ID:         ev.ID,
				Kind:       kind,
				Severity:   sev,
				OneLiner:   line,
				Method:     ev.Method,
				Phase:      ev.Phase,
				StartedAt:  now,
				ResolvedAt: now,
				Params:     previewParams(ev.Method, ev.Params),
			}
			if ev.Phase == event.PhaseError {
				item.Error = ev.Error
			}
			s.Counts[kind]++
			s.prepend(item)
		} else {
			it := &s.Feed[idx]
			it.Phase = ev.Phase
			it.ResolvedAt = now
			it.OneLiner = line
			it.Severity = sev
			if ev.Phase == event.PhaseError && ev.Error != "" {
				it.Error = ev.Error
			}
		}
	}

	s.Web3Active = true
	s.LastSeenAt = now
	return nil
}

func (s *TabSession) prepend(item FeedItem) {
	s.Feed = append([]FeedItem{item}, s.Feed...)
	if len(s.Feed) > FeedCap {
		s.Feed = s.Feed[:FeedCap]
	}
}

// ApplyEnrichment patches the feed entry with risk and reverse-name data.
// Field-level only: phase and resolution timestamps set by a concurrent
// merge are never touched. Returns false when nothing changed (entry gone,
// or no data to attach).
func ApplyEnrichment(s *TabSession, itemID string, risk *RiskInfo, ens *EnsInfo) bool {
	idx := s.findFeed(itemID)
	if idx < 0 {
		return false
	}
	it := &s.Feed[idx]

	changed := false
	if risk != nil {
		it.Risk = risk
		if risk.Flagged && it.Severity != track.SeverityDanger {
			it.Severity = track.SeverityDanger
			it.OneLiner = "WARNING: flagged address - " + it.OneLiner
		}
		changed = true
	}
	if ens != nil && ens.Name != "" {
		it.ToEns = ens
		changed = true
	}
	return changed
}
