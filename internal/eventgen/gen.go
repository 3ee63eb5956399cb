// Package eventgen produces plausible wallet-activity event streams for
// load testing the aggregator end to end.
package eventgen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
	"github.com/ensightlabs/walletfeed/internal/feed/track"
	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

var hostnames = []string{
	"app.uniswap.org",
	"opensea.io",
	"app.aave.com",
	"curve.fi",
	"blur.io",
}

var methods = []string{
	track.MethodRequestAccounts,
	track.MethodAccounts,
	track.MethodSendTransaction,
	track.MethodSendTransaction, // weight tx a little heavier
	track.MethodPersonalSign,
	track.MethodSign,
	track.SignTypedDataPrefix + "_v4",
	track.MethodSwitchChain,
}

type tab struct {
	id       int64
	hostname string
	loaded   bool
	nextReq  int
}

type Generator struct {
	rng     *rand.Rand
	tabs    []*tab
	addrs   []string
	flagged []string
}

// New seeds a generator over numTabs tabs. flagged addresses (csv, may be
// empty) are mixed into destination picks so enrichment paths light up.
func New(seed int64, numTabs int, flaggedCSV string) *Generator {
	rng := rand.New(rand.NewSource(seed))

	g := &Generator{rng: rng}
	for i := 0; i < numTabs; i++ {
		g.tabs = append(g.tabs, &tab{
			id:       int64(100 + i),
			hostname: hostnames[rng.Intn(len(hostnames))],
		})
	}
	for i := 0; i < 16; i++ {
		g.addrs = append(g.addrs, randomAddress(rng))
	}
	for _, a := range strings.Split(flaggedCSV, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			g.flagged = append(g.flagged, a)
		}
	}
	return g
}

// Step returns the next burst of envelopes: a page load for a fresh tab,
// occasionally a navigation, otherwise a before plus its terminal.
func (g *Generator) Step() []wire.Envelope {
	t := g.tabs[g.rng.Intn(len(g.tabs))]
	now := time.Now().UnixMilli()

	if !t.loaded {
		t.loaded = true
		loaded, _ := wire.EncodeContentLoaded(t.id, now, t.hostname)
		return []wire.Envelope{
			loaded,
			{Type: wire.TypeEthActive, TabID: t.id, TS: now},
			{Type: wire.TypeTabActivated, TabID: t.id, TS: now},
		}
	}

	// ~5% of steps: navigate away, invalidating the session
	if g.rng.Float64() < 0.05 {
		t.loaded = false
		t.hostname = hostnames[g.rng.Intn(len(hostnames))]
		return []wire.Envelope{
			{Type: wire.TypeTabNavigating, TabID: t.id, TS: now},
		}
	}

	t.nextReq++
	id := fmt.Sprintf("req-%d-%d", t.id, t.nextReq)
	method := methods[g.rng.Intn(len(methods))]

	before := event.Event{Phase: event.PhaseBefore, ID: id, Method: method}
	if method == track.MethodSendTransaction {
		before.Params = []any{map[string]any{
			"from":  g.pickAddress(false),
			"to":    g.pickAddress(true),
			"value": fmt.Sprintf("0x%x", g.rng.Intn(1<<30)),
			"data":  g.pickData(),
		}}
	} else if method == track.MethodSwitchChain {
		before.Params = []any{map[string]any{"chainId": "0x1"}}
	}

	terminal := event.Event{Phase: event.PhaseAfter, ID: id, Method: method}
	// ~15% of calls get rejected
	if g.rng.Float64() < 0.15 {
		terminal.Phase = event.PhaseError
		terminal.Error = "User rejected the request."
	}

	b, _ := wire.EncodeEthRequest(t.id, now, before)
	a, _ := wire.EncodeEthRequest(t.id, now, terminal)
	return []wire.Envelope{b, a}
}

func (g *Generator) pickAddress(allowFlagged bool) string {
	if allowFlagged && len(g.flagged) > 0 && g.rng.Float64() < 0.2 {
		return g.flagged[g.rng.Intn(len(g.flagged))]
	}
	return g.addrs[g.rng.Intn(len(g.addrs))]
}

func (g *Generator) pickData() string {
	if g.rng.Float64() < 0.5 {
		return "0x"
	}
	return "0xa9059cbb"
}

const hexDigits = "0123456789abcdef"

func randomAddress(rng *rand.Rand) string {
	b := make([]byte, 40)
	for i := range b {
		b[i] = hexDigits[rng.Intn(16)]
	}
	return "0x" + string(b)
}
