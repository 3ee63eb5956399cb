package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensightlabs/walletfeed/internal/feed/aggregator"
	"github.com/ensightlabs/walletfeed/internal/feed/kv"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
	"github.com/ensightlabs/walletfeed/internal/feed/wire"
)

func startAPI(t *testing.T) (*httptest.Server, chan<- wire.Inbound, *aggregator.Aggregator) {
	t.Helper()
	agg := aggregator.New(aggregator.Config{Store: session.NewStore(kv.NewMemory())})

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan wire.Inbound, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = agg.Run(ctx, in)
	}()

	srv := httptest.NewServer(NewServer(agg).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, in, agg
}

func getBody(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	srv, _, _ := startAPI(t)
	code, body := getBody(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", string(body))
}

func TestByTab(t *testing.T) {
	srv, in, agg := startAPI(t)
	in <- wire.Inbound{Type: wire.TypeContentLoaded, TabID: 7, Hostname: "app.uniswap.org"}
	// Drain through a query so the message has been processed.
	agg.AllSnapshots(context.Background())

	code, body := getBody(t, srv.URL+"/session/by-tab/7")
	require.Equal(t, http.StatusOK, code)
	s, err := session.Deserialize(body)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.TabID)
	assert.Equal(t, "app.uniswap.org", s.Hostname)
}

func TestByTabNotFound(t *testing.T) {
	srv, _, _ := startAPI(t)
	code, _ := getBody(t, srv.URL+"/session/by-tab/99")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestByTabBadID(t *testing.T) {
	srv, _, _ := startAPI(t)
	for _, bad := range []string{"abc", "-1", "0", ""} {
		code, _ := getBody(t, srv.URL+"/session/by-tab/"+bad)
		assert.Equal(t, http.StatusBadRequest, code, "id %q", bad)
	}
}

func TestActiveAndLast(t *testing.T) {
	srv, in, agg := startAPI(t)

	code, _ := getBody(t, srv.URL+"/session/active")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = getBody(t, srv.URL+"/session/last")
	assert.Equal(t, http.StatusNotFound, code)

	in <- wire.Inbound{Type: wire.TypeContentLoaded, TabID: 1, Hostname: "a.com"}
	in <- wire.Inbound{Type: wire.TypeContentLoaded, TabID: 2, Hostname: "b.com"}
	in <- wire.Inbound{Type: wire.TypeTabActivated, TabID: 1}
	agg.AllSnapshots(context.Background())

	code, body := getBody(t, srv.URL+"/session/active")
	require.Equal(t, http.StatusOK, code)
	s, err := session.Deserialize(body)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TabID)

	code, body = getBody(t, srv.URL+"/session/last")
	require.Equal(t, http.StatusOK, code)
	s, err = session.Deserialize(body)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TabID)
}

func TestSessionsList(t *testing.T) {
	srv, in, agg := startAPI(t)

	code, body := getBody(t, srv.URL+"/sessions")
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Sessions []json.RawMessage `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Empty(t, page.Sessions)

	in <- wire.Inbound{Type: wire.TypeContentLoaded, TabID: 1, Hostname: "a.com"}
	in <- wire.Inbound{Type: wire.TypeContentLoaded, TabID: 2, Hostname: "b.com"}
	agg.AllSnapshots(context.Background())

	code, body = getBody(t, srv.URL+"/sessions")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Sessions, 2)
}
