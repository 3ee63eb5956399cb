// Package enrich runs the asynchronous lookups attached to tx/sign feed
// entries. Lookups never block ingestion; results re-enter the aggregator's
// single-writer path as field-level patches and silently discard when the
// session or entry has meanwhile disappeared.
package enrich

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ensightlabs/walletfeed/internal/feed/backend"
	"github.com/ensightlabs/walletfeed/internal/feed/retry"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
)

// Backend is the remote lookup surface. Lookups fail soft via the ok bool.
type Backend interface {
	Risk(ctx context.Context, address string) (session.RiskInfo, bool)
	ReverseName(ctx context.Context, address string) (session.EnsInfo, bool)
	RecordInteraction(ctx context.Context, it backend.Interaction) error
}

// Applier lands a finished enrichment back on the event-processing path.
// The implementation re-reads the live session by tab and entry id; either
// gone means the patch is dropped.
type Applier interface {
	ApplyEnrichment(tabID int64, itemID string, risk *session.RiskInfo, ens *session.EnsInfo)
}

type Enricher struct {
	be      Backend
	applier Applier

	// archive receives a copy of every recorded interaction; nil disables.
	archive chan<- backend.Interaction
}

func New(be Backend, applier Applier, archive chan<- backend.Interaction) *Enricher {
	return &Enricher{be: be, applier: applier, archive: archive}
}

// Enrich issues the risk and reverse-name lookups concurrently and applies
// whatever came back. Enrichments for different entries run independently;
// the same entry is not deduplicated here (two concurrent attempts patch
// the same entry with the same data, which is harmless).
func (e *Enricher) Enrich(ctx context.Context, tabID int64, itemID, address string) {
	go func() {
		var (
			risk *session.RiskInfo
			ens  *session.EnsInfo
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if r, ok := e.be.Risk(gctx, address); ok {
				risk = &r
			}
			return nil
		})
		g.Go(func() error {
			if n, ok := e.be.ReverseName(gctx, address); ok {
				ens = &n
			}
			return nil
		})
		_ = g.Wait() // lookups fail soft, never error

		if risk == nil && ens == nil {
			return
		}
		e.applier.ApplyEnrichment(tabID, itemID, risk, ens)
	}()
}

// Record sends the interaction to the knowledge-graph service and the local
// archive. Best effort on both legs: archive backpressure drops, remote
// failures are retried a little and then swallowed.
func (e *Enricher) Record(ctx context.Context, it backend.Interaction) {
	if e.archive != nil {
		select {
		case e.archive <- it:
		default:
			log.Printf("[enrich] archive queue full, dropping interaction to=%s", it.To)
		}
	}

	go func() {
		err := retry.Do(ctx, retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
		}, func(ctx context.Context) error {
			return e.be.RecordInteraction(ctx, it)
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("[enrich] record interaction failed: to=%s err=%v", it.To, err)
		}
	}()
}
