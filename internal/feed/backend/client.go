// Package backend is the client for the remote enrichment service: risk
// lookups, ENS reverse lookups and knowledge-graph interaction recording.
// Every lookup fails soft: absence of data, timeout and transport errors
// all read as "no enrichment". With no base URL configured the client
// no-ops entirely.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/session"
)

type Client struct {
	mu   sync.RWMutex
	base string

	hc *http.Client
}

func NewClient(base string) *Client {
	c := &Client{
		hc: &http.Client{Timeout: 10 * time.Second},
	}
	c.SetBase(base)
	return c
}

// SetBase swaps the backend base URL at runtime (config hot reload). Empty
// disables all calls.
func (c *Client) SetBase(base string) {
	c.mu.Lock()
	c.base = strings.TrimRight(strings.TrimSpace(base), "/")
	c.mu.Unlock()
}

func (c *Client) Base() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	base := c.Base()
	if base == "" {
		return fmt.Errorf("backend not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend %s status=%d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	base := c.Base()
	if base == "" {
		return fmt.Errorf("backend not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend %s status=%d", path, resp.StatusCode)
	}
	return nil
}

type riskResponse struct {
	Flagged     bool   `json:"flagged"`
	LastUpdated *int64 `json:"lastUpdated"`
}

// Risk checks whether the address appears on the backend blocklist.
func (c *Client) Risk(ctx context.Context, address string) (session.RiskInfo, bool) {
	addr := strings.ToLower(strings.TrimSpace(address))
	var out riskResponse
	err := c.getJSON(ctx, "/api/risk/address/"+url.PathEscape(addr), &out)
	if err != nil {
		return session.RiskInfo{}, false
	}
	return session.RiskInfo{Flagged: out.Flagged, LastUpdated: out.LastUpdated}, true
}

type ensReverseResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// ReverseName resolves address -> ENS name. An empty name reads as no data.
func (c *Client) ReverseName(ctx context.Context, address string) (session.EnsInfo, bool) {
	addr := strings.ToLower(strings.TrimSpace(address))
	var out ensReverseResponse
	err := c.getJSON(ctx, "/api/ens/reverse/"+url.PathEscape(addr), &out)
	if err != nil || out.Name == "" {
		return session.EnsInfo{}, false
	}
	return session.EnsInfo{Name: out.Name}, true
}

// Interaction is the tuple recorded in the backend knowledge graph (and the
// local archive).
type Interaction struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Method   string `json:"method"`
	Kind     string `json:"kind"`
	Hostname string `json:"hostname"`
	ChainID  string `json:"chainId,omitempty"`
	Value    string `json:"value,omitempty"`
	HasData  *bool  `json:"hasData,omitempty"`
}

// RecordInteraction posts one interaction. Callers treat failures as
// fire-and-forget.
func (c *Client) RecordInteraction(ctx context.Context, it Interaction) error {
	return c.postJSON(ctx, "/api/graph/interaction", it)
}
