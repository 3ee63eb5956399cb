// Package aggregator is the event-processing core: one goroutine owns the
// session store, and every merge, eviction, enrichment patch and read goes
// through it, processed to completion one at a time. That makes the merge
// algorithm atomic relative to other merges without per-session locking.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/backend"
	"github.com/ensightlabs/walletfeed/internal/feed/event"
	"github.com/ensightlabs/walletfeed/internal/feed/format"
	"github.com/ensightlabs/walletfeed/internal/feed/out"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
	"github.com/ensightlabs/walletfeed/internal/feed/track"
	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

// Enricher is the async side-effect surface; nil disables enrichment.
type Enricher interface {
	Enrich(ctx context.Context, tabID int64, itemID, address string)
	Record(ctx context.Context, it backend.Interaction)
}

type Config struct {
	Store    *session.Store
	Enricher Enricher // optional
	Sink     out.Sink // optional
	Now      func() int64
	CmdQueue int
}

type Aggregator struct {
	store    *session.Store
	enricher Enricher
	sink     out.Sink
	now      func() int64

	cmds chan func()

	// closed when Run returns; unblocks callers of exec/ask
	stopped chan struct{}

	activeTab int64
}

func New(cfg Config) *Aggregator {
	if cfg.Now == nil {
		cfg.Now = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.CmdQueue <= 0 {
		cfg.CmdQueue = 256
	}
	return &Aggregator{
		store:    cfg.Store,
		enricher: cfg.Enricher,
		sink:     cfg.Sink,
		now:      cfg.Now,
		cmds:     make(chan func(), cfg.CmdQueue),
		stopped:  make(chan struct{}),
	}
}

// SetEnricher wires the enricher after construction; the enricher needs the
// aggregator as its patch applier, so one of the two has to come second.
// Call before Run.
func (a *Aggregator) SetEnricher(e Enricher) { a.enricher = e }

// Run consumes inbound envelopes and internal commands until ctx is
// canceled or in closes.
func (a *Aggregator) Run(ctx context.Context, in <-chan wire.Inbound) error {
	defer close(a.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.cmds:
			fn()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			a.handle(ctx, msg)
		}
	}
}

func (a *Aggregator) handle(ctx context.Context, msg wire.Inbound) {
	now := a.now()

	switch msg.Type {
	case wire.TypeContentLoaded:
		s := a.store.Ensure(msg.TabID, msg.Hostname, now)
		a.persist(ctx, s)

	case wire.TypeEthActive:
		// Provider touched without a call yet; only an existing session is
		// marked, mirroring that the scope-load notification creates it.
		if s, ok := a.store.Load(msg.TabID); ok {
			s.Web3Active = true
			s.LastSeenAt = now
			a.persist(ctx, s)
		}

	case wire.TypeTabActivated:
		a.activeTab = msg.TabID

	case wire.TypeTabNavigating, wire.TypeTabClosed:
		a.store.Evict(msg.TabID)

	case wire.TypeEthRequest:
		if msg.Event == nil {
			log.Printf("[agg] eth_request without event: tab=%d", msg.TabID)
			return
		}
		a.handleRequest(ctx, msg.TabID, *msg.Event, now)

	default:
		log.Printf("[agg] unknown inbound type %q: tab=%d", msg.Type, msg.TabID)
	}
}

func (a *Aggregator) handleRequest(ctx context.Context, tabID int64, ev event.Event, now int64) {
	s, ok := a.store.Load(tabID)
	if !ok {
		// Event before the load notification: lazily create with an
		// unknown hostname.
		s = a.store.Ensure(tabID, "", now)
	}

	if err := session.Merge(s, ev, now); err != nil {
		if errors.Is(err, event.ErrMalformed) {
			log.Printf("[agg] dropped malformed event: tab=%d id=%q method=%q", tabID, ev.ID, ev.Method)
			return
		}
		log.Printf("[agg] merge failed: tab=%d err=%v", tabID, err)
		return
	}
	a.persist(ctx, s)

	if ev.Phase == event.PhaseBefore {
		a.maybeEnrich(ctx, s, ev)
	}
}

// maybeEnrich fires the async lookups for before-phase tx/sign calls that
// carry a valid destination address, plus the fire-and-forget interaction
// record.
func (a *Aggregator) maybeEnrich(ctx context.Context, s *session.TabSession, ev event.Event) {
	if a.enricher == nil {
		return
	}
	kind := track.Classify(ev.Method)
	if kind != track.KindTx && kind != track.KindSign {
		return
	}
	obj, ok := session.FirstObjectParam(ev.Params)
	if !ok {
		return
	}
	to, _ := obj["to"].(string)
	if !format.IsAddress(to) {
		return
	}

	a.enricher.Enrich(ctx, s.TabID, ev.ID, to)

	it := backend.Interaction{
		To:       to,
		Method:   ev.Method,
		Kind:     string(kind),
		Hostname: s.Hostname,
	}
	if from, _ := obj["from"].(string); format.IsAddress(from) {
		it.From = from
	}
	if chainID, ok := obj["chainId"].(string); ok {
		it.ChainID = chainID
	}
	if value, ok := obj["value"].(string); ok {
		it.Value = value
	}
	if data, ok := obj["data"].(string); ok {
		hasData := data != ""
		it.HasData = &hasData
	}
	a.enricher.Record(ctx, it)
}

// persist writes the snapshot and emits it to the sink. Both legs degrade
// gracefully; in-memory state stays authoritative.
func (a *Aggregator) persist(ctx context.Context, s *session.TabSession) {
	raw := a.store.Persist(s)
	if raw == nil || a.sink == nil {
		return
	}
	if err := a.sink.Emit(ctx, out.TypeSessionSnapshot, json.RawMessage(raw)); err != nil {
		log.Printf("[agg] snapshot emit failed: tab=%d err=%v", s.TabID, err)
	}
}

// ApplyEnrichment re-enters the processing path with a finished enrichment.
// It re-reads the live session (never the snapshot substrate, so evicted
// sessions stay gone) and no-ops when the entry has been pushed out.
func (a *Aggregator) ApplyEnrichment(tabID int64, itemID string, risk *session.RiskInfo, ens *session.EnsInfo) {
	a.exec(func() {
		s, ok := a.store.Get(tabID)
		if !ok {
			return
		}
		if session.ApplyEnrichment(s, itemID, risk, ens) {
			a.persist(context.Background(), s)
		}
	})
}

// exec queues fn onto the processing loop, dropping it when the loop is
// gone. Enrichment patches are best effort by contract.
func (a *Aggregator) exec(fn func()) {
	select {
	case a.cmds <- fn:
	case <-a.stopped:
	}
}

// ask runs fn on the loop and waits for it, for read paths.
func (a *Aggregator) ask(ctx context.Context, fn func()) bool {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}
	select {
	case a.cmds <- wrapped:
	case <-ctx.Done():
		return false
	case <-a.stopped:
		return false
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	case <-a.stopped:
		return false
	}
}

// Snapshot returns the serialized session for a tab, restoring from the
// snapshot substrate on a memory miss.
func (a *Aggregator) Snapshot(ctx context.Context, tabID int64) ([]byte, bool) {
	var (
		raw   []byte
		found bool
	)
	ok := a.ask(ctx, func() {
		if s, have := a.store.Load(tabID); have {
			raw = a.store.Persist(s)
			found = raw != nil
		}
	})
	return raw, ok && found
}

// ActiveSnapshot resolves the externally reported active tab.
func (a *Aggregator) ActiveSnapshot(ctx context.Context) ([]byte, bool) {
	var tab int64
	if !a.ask(ctx, func() { tab = a.activeTab }) || tab == 0 {
		return nil, false
	}
	return a.Snapshot(ctx, tab)
}

// LastSnapshot returns the most recently touched session.
func (a *Aggregator) LastSnapshot(ctx context.Context) ([]byte, bool) {
	var (
		raw   []byte
		found bool
	)
	ok := a.ask(ctx, func() {
		if s, have := a.store.LastTouched(); have {
			raw = a.store.Persist(s)
			found = raw != nil
		}
	})
	return raw, ok && found
}

// AllSnapshots returns every live session, serialized. Debug surface.
func (a *Aggregator) AllSnapshots(ctx context.Context) []json.RawMessage {
	var all []json.RawMessage
	a.ask(ctx, func() {
		for _, s := range a.store.All() {
			if raw := a.store.Persist(s); raw != nil {
				all = append(all, json.RawMessage(raw))
			}
		}
	})
	return all
}
