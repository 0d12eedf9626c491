package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store, used by tests and as the default backend
// before a durable one is configured. It is safe for concurrent use; a
// single mutex serializes transactions the same way the host serializes
// messages into a total order.
type MemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// WithTx runs fn against a copy-on-write view of the store: writes are
// buffered and applied atomically only if fn returns nil.
func (m *MemStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{base: m.data, writes: make(map[string][]byte), deletes: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.writes {
		m.data[k] = v
	}
	for k := range tx.deletes {
		delete(m.data, k)
	}
	return nil
}

type memTx struct {
	base    map[string][]byte
	writes  map[string][]byte
	deletes map[string]bool
}

func (t *memTx) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if t.deletes[k] {
		return nil, false, nil
	}
	if v, ok := t.writes[k]; ok {
		return v, true, nil
	}
	if v, ok := t.base[k]; ok {
		return v, true, nil
	}
	return nil, false, nil
}

func (t *memTx) Set(key []byte, value []byte) error {
	k := string(key)
	delete(t.deletes, k)
	cp := make([]byte, len(value))
	copy(cp, value)
	t.writes[k] = cp
	return nil
}

func (t *memTx) Delete(key []byte) error {
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = true
	return nil
}

func (t *memTx) Iterate(prefix []byte) ([]KV, error) {
	seen := make(map[string][]byte)
	for k, v := range t.base {
		if bytes.HasPrefix([]byte(k), prefix) {
			seen[k] = v
		}
	}
	for k, v := range t.writes {
		if bytes.HasPrefix([]byte(k), prefix) {
			seen[k] = v
		}
	}
	for k := range t.deletes {
		delete(seen, k)
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: []byte(k), Value: seen[k]})
	}
	return out, nil
}
