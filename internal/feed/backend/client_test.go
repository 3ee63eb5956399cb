package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/risk/address/0xabc1111111111111111111111111111111111111", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"flagged":true,"lastUpdated":1700000000000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	// Address is normalized to lower case before the lookup.
	risk, ok := c.Risk(context.Background(), " 0xABC1111111111111111111111111111111111111 ")
	require.True(t, ok)
	assert.True(t, risk.Flagged)
	require.NotNil(t, risk.LastUpdated)
	assert.Equal(t, int64(1700000000000), *risk.LastUpdated)
}

func TestRiskClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"flagged":false,"lastUpdated":null}`))
	}))
	defer srv.Close()

	risk, ok := NewClient(srv.URL).Risk(context.Background(), "0xdef")
	require.True(t, ok)
	assert.False(t, risk.Flagged)
	assert.Nil(t, risk.LastUpdated)
}

func TestRiskServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, ok := NewClient(srv.URL).Risk(context.Background(), "0xdef")
	assert.False(t, ok)
}

func TestReverseName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ens/reverse/0xdef", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"0xdef","name":"vault.eth","success":true}`))
	}))
	defer srv.Close()

	ens, ok := NewClient(srv.URL).ReverseName(context.Background(), "0xDEF")
	require.True(t, ok)
	assert.Equal(t, "vault.eth", ens.Name)
}

func TestReverseNameAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, ok := NewClient(srv.URL).ReverseName(context.Background(), "0xdef")
	assert.False(t, ok)
}

func TestReverseNameEmptyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":"0xdef","name":"","success":false}`))
	}))
	defer srv.Close()

	// 200 with an empty name still reads as no data.
	_, ok := NewClient(srv.URL).ReverseName(context.Background(), "0xdef")
	assert.False(t, ok)
}

func TestRecordInteraction(t *testing.T) {
	var got Interaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/graph/interaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	hasData := true
	it := Interaction{
		From:     "0x1111111111111111111111111111111111111111",
		To:       "0x2222222222222222222222222222222222222222",
		Method:   "eth_sendTransaction",
		Kind:     "tx",
		Hostname: "app.uniswap.org",
		Value:    "0x0",
		HasData:  &hasData,
	}
	require.NoError(t, NewClient(srv.URL).RecordInteraction(context.Background(), it))
	assert.Equal(t, it, got)
}

func TestUnconfiguredClientNoOps(t *testing.T) {
	c := NewClient("")
	_, ok := c.Risk(context.Background(), "0xdef")
	assert.False(t, ok)
	_, ok = c.ReverseName(context.Background(), "0xdef")
	assert.False(t, ok)
	assert.Error(t, c.RecordInteraction(context.Background(), Interaction{}))
}

func TestSetBaseHotSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"flagged":true,"lastUpdated":null}`))
	}))
	defer srv.Close()

	c := NewClient("")
	_, ok := c.Risk(context.Background(), "0xdef")
	assert.False(t, ok)

	c.SetBase(srv.URL + "/")
	assert.Equal(t, srv.URL, c.Base())
	risk, ok := c.Risk(context.Background(), "0xdef")
	require.True(t, ok)
	assert.True(t, risk.Flagged)
}
