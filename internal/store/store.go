// Package store provides the key/value persistence abstraction the engine
// is built on. Every logical record (pool state, user position, active
// set, config, ...) is serialized as a JSON value under a deterministic
// key built by this package's helpers.
//
// A Store's WithTx models the host's transaction discipline: all writes
// performed by fn either commit together or are fully rolled back when fn
// returns a non-nil error, matching the "no partial commits" rule.
package store

import "context"

// KV is a single key/value pair, returned by Iterate in key order.
type KV struct {
	Key   []byte
	Value []byte
}

// Tx is a single atomic unit of work against a Store.
type Tx interface {
	Get(key []byte) ([]byte, bool, error)
	Set(key []byte, value []byte) error
	Delete(key []byte) error
	// Iterate returns every entry whose key has the given prefix, ordered by
	// key. Used for active-set listings, blocklist membership, and orphan
	// bucket draining.
	Iterate(prefix []byte) ([]KV, error)
}

// Store is a transactional key/value backend.
type Store interface {
	// WithTx runs fn inside a single atomic transaction. If fn returns an
	// error, every write performed through tx is discarded.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// BatchGetter is an optional capability a Tx may implement to fetch several
// keys in a single round trip. Callers that can name every key they'll need
// up front (a multi-pool claim, say) should type-assert for it and fall
// back to per-key Get when the backend doesn't support it.
type BatchGetter interface {
	BatchGet(keys [][]byte) (map[string][]byte, error)
}
