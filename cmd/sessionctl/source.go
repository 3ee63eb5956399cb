package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ensightlabs/walletfeed/internal/feed/kv"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
)

// source abstracts where snapshots come from: the live API or the KV store.
type source interface {
	list() ([]*session.TabSession, error)
	byTab(tabID int64) (*session.TabSession, []byte, error)
	close()
}

func openSource() (source, error) {
	if kvBackend != "" {
		if kvPath == "" {
			return nil, fmt.Errorf("--kv-path is required with --kv-backend")
		}
		store, err := kv.Open(kvBackend, kvPath)
		if err != nil {
			return nil, fmt.Errorf("open kv store: %w", err)
		}
		return &kvSource{store: store}, nil
	}
	return &apiSource{
		base: strings.TrimRight(apiBase, "/"),
		hc:   &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type apiSource struct {
	base string
	hc   *http.Client
}

func (s *apiSource) get(path string) ([]byte, error) {
	resp, err := s.hc.Get(s.base + path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no session")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}

func (s *apiSource) list() ([]*session.TabSession, error) {
	body, err := s.get("/sessions")
	if err != nil {
		return nil, err
	}
	var page struct {
		Sessions []json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode sessions page: %w", err)
	}
	out := make([]*session.TabSession, 0, len(page.Sessions))
	for _, raw := range page.Sessions {
		sess, err := session.Deserialize(raw)
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

func (s *apiSource) byTab(tabID int64) (*session.TabSession, []byte, error) {
	raw, err := s.get("/session/by-tab/" + strconv.FormatInt(tabID, 10))
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Deserialize(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return sess, raw, nil
}

func (s *apiSource) close() {}

type kvSource struct {
	store kv.Store
}

func (s *kvSource) list() ([]*session.TabSession, error) {
	keys, err := s.store.Keys(session.SnapshotKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	var out []*session.TabSession
	for _, key := range keys {
		raw, ok, err := s.store.Get(key)
		if err != nil || !ok {
			continue
		}
		sess, err := session.Deserialize(raw)
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

func (s *kvSource) byTab(tabID int64) (*session.TabSession, []byte, error) {
	raw, ok, err := s.store.Get(session.SnapshotKey(tabID))
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("no session")
	}
	sess, err := session.Deserialize(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return sess, raw, nil
}

func (s *kvSource) close() { _ = s.store.Close() }

func sortSessions(list []*session.TabSession) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastSeenAt > list[j].LastSeenAt
	})
}
