// Package kv is the opaque snapshot substrate: get/set/remove by string
// key. An absent key is a valid "no data" state, reported via the ok bool,
// not an error.
package kv

import (
	"fmt"
	"sort"
	"sync"
)

type Store interface {
	Get(key string) (val []byte, ok bool, err error)
	Set(key string, val []byte) error
	Remove(key string) error
	// Keys returns all keys with the given prefix, sorted.
	Keys(prefix string) ([]string, error)
	Close() error
}

// Open selects a backend by name: "bolt", "rocks" or "memory".
func Open(backend, path string) (Store, error) {
	switch backend {
	case "bolt":
		return OpenBolt(path)
	case "rocks":
		return OpenRocks(path)
	case "memory", "":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown kv backend %q", backend)
}

// Memory is the in-process backend used in tests and single-shot tooling.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Memory) Set(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), val...)
	return nil
}

func (s *Memory) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Memory) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Memory) Close() error { return nil }
