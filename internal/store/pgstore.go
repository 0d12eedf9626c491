package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PGStore persists the engine's key/value records in a single Postgres
// table, `(key text primary key, value jsonb)`, over raw *sql.DB rather
// than an ORM.
type PGStore struct {
	db *sql.DB
}

// OpenPG opens a Postgres-backed Store. The "postgres" driver must be linked
// via blank import of github.com/lib/pq in the program's entry point.
func OpenPG(dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store: postgres DSN is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS incentives_kv (
		key text PRIMARY KEY,
		value jsonb NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create incentives_kv table: %w", err)
	}
	return NewPGStoreForDB(db), nil
}

// NewPGStoreForDB wraps an already-open *sql.DB, skipping the connect/ping/
// migrate steps OpenPG performs. Used in tests against sqlmock.
func NewPGStoreForDB(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Close closes the underlying connection pool.
func (p *PGStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// WithTx runs fn inside a real Postgres transaction, committing on success
// and rolling back on any error returned by fn.
func (p *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}

	tx := &pgTx{ctx: ctx, tx: sqlTx}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM incentives_kv WHERE key = $1`, string(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

func (t *pgTx) Set(key []byte, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO incentives_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, string(key), value)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (t *pgTx) Delete(key []byte) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM incentives_kv WHERE key = $1`, string(key)); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

func (t *pgTx) Iterate(prefix []byte) ([]KV, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT key, value FROM incentives_kv WHERE key LIKE $1 || '%' ORDER BY key
	`, string(prefix))
	if err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", prefix, err)
	}
	defer rows.Close()

	var out []KV
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		out = append(out, KV{Key: []byte(k), Value: v})
	}
	return out, rows.Err()
}

// BatchGet fetches multiple keys in one round trip, used by handlers that
// need several pools' state at once (e.g. a multi-pool claim). Grounded on
// the bulk-fetch pattern of pq.Array-based queries.
func (t *pgTx) BatchGet(keys [][]byte) (map[string][]byte, error) {
	strKeys := make([]string, len(keys))
	for i, k := range keys {
		strKeys[i] = string(k)
	}
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT key, value FROM incentives_kv WHERE key = ANY($1)
	`, pq.Array(strKeys))
	if err != nil {
		return nil, fmt.Errorf("store: batch get: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
