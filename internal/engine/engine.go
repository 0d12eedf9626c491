package engine

import (
	"context"
	"sync"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/store"
)

// Engine is the reward index engine. All mutating operations are
// serialized through opMu, modeling the deterministic single-threaded
// transaction host the engine is specified to run inside: one message is
// processed at a time, entirely from a consistent snapshot, and either
// commits in full or rolls back as a unit.
type Engine struct {
	opMu    sync.Mutex
	store   store.Store
	factory FactoryGateway
}

// New constructs an Engine over the given store and factory gateway.
func New(s store.Store, factory FactoryGateway) *Engine {
	return &Engine{store: s, factory: factory}
}

// opContext carries the per-operation request context and the host-supplied
// block timestamp every operation advances pool indices to.
type opContext struct {
	ctx context.Context
	now uint64
}

// NewOpContext builds the per-call context an operation needs: a
// cancellation context and the block timestamp to advance state to.
func NewOpContext(ctx context.Context, now uint64) opContext {
	return opContext{ctx: ctx, now: now}
}

// txScope bundles a store.Tx with the engine's typed load/save helpers so
// operation bodies read as plain Go rather than repeating key-building and
// (de)serialization at every call site.
type txScope struct {
	tx store.Tx
}

func (e *Engine) withTx(ctx opContext, fn func(tx *txScope) (*Response, error)) (*Response, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	var resp *Response
	err := e.store.WithTx(ctx.ctx, func(tx store.Tx) error {
		var innerErr error
		resp, innerErr = fn(&txScope{tx: tx})
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// withBatchPrefetch fetches every key a multi-pool claim will need in one
// round trip when the backing store supports it (e.g. Postgres via
// pq.Array), returning a txScope that serves those keys from memory. On a
// backend without batch support (e.g. MemStore) it returns s unchanged and
// callers fall back to per-key Get.
func (s *txScope) withBatchPrefetch(pools []assets.ID, user string) *txScope {
	bg, ok := s.tx.(store.BatchGetter)
	if !ok {
		return s
	}
	keys := make([][]byte, 0, len(pools)*2)
	for _, pool := range pools {
		keys = append(keys, store.PoolInfoKey(pool), store.UserInfoKey(user, pool))
	}
	cache, err := bg.BatchGet(keys)
	if err != nil {
		return s
	}
	return &txScope{tx: &prefetchTx{Tx: s.tx, cache: cache}}
}

// prefetchTx serves Get from a prewarmed cache, falling through to the
// underlying Tx on a miss.
type prefetchTx struct {
	store.Tx
	cache map[string][]byte
}

func (p *prefetchTx) Get(key []byte) ([]byte, bool, error) {
	if v, ok := p.cache[string(key)]; ok {
		return v, true, nil
	}
	return p.Tx.Get(key)
}

func (s *txScope) loadConfig() (*GlobalConfig, error) {
	return loadConfig(s.tx)
}

func (s *txScope) saveConfig(cfg *GlobalConfig) error {
	return saveConfig(s.tx, cfg)
}

func (s *txScope) loadPool(pool assets.ID) (*PoolState, bool, error) {
	return loadPool(s.tx, pool)
}

func (s *txScope) loadOrInitPool(pool assets.ID, now uint64) (*PoolState, error) {
	p, ok, err := loadPool(s.tx, pool)
	if err != nil {
		return nil, err
	}
	if ok {
		return p, nil
	}
	return &PoolState{Pool: pool, TotalStaked: decimal.ZeroAmount(), LastUpdateTS: now}, nil
}

func (s *txScope) savePool(p *PoolState) error {
	return savePool(s.tx, p)
}

func (s *txScope) loadUser(user string, pool assets.ID) (*UserPosition, bool, error) {
	return loadUser(s.tx, user, pool)
}

func (s *txScope) loadOrInitUser(user string, pool assets.ID) (*UserPosition, error) {
	u, ok, err := loadUser(s.tx, user, pool)
	if err != nil {
		return nil, err
	}
	if ok {
		return u, nil
	}
	return &UserPosition{User: user, Pool: pool, Snapshots: make(map[string]decimal.Decimal)}, nil
}

func (s *txScope) saveUser(u *UserPosition) error {
	return saveUser(s.tx, u)
}

func (s *txScope) isBlockedToken(asset assets.ID) (bool, error) {
	return isBlockedToken(s.tx, asset)
}

func (s *txScope) setBlockedToken(asset assets.ID, blocked bool) error {
	return setBlockedToken(s.tx, asset, blocked)
}

func (s *txScope) loadActivePools() ([]ActivePoolEntry, error) {
	return loadActivePools(s.tx)
}

func (s *txScope) replaceActivePools(entries []ActivePoolEntry) error {
	return replaceActivePools(s.tx, entries)
}

func (s *txScope) addOrphanedReward(asset assets.ID, amount decimal.Amount) error {
	return addOrphanedReward(s.tx, asset, amount)
}

func (s *txScope) drainOrphanedReward(asset assets.ID) (decimal.Amount, error) {
	return drainOrphanedReward(s.tx, asset)
}

func (s *txScope) listOrphanedRewards(limit int) ([]orphanedRewardEntry, error) {
	return listOrphanedRewards(s.tx, limit)
}

func (s *txScope) loadOwnershipProposal() (*OwnershipProposal, bool, error) {
	return loadOwnershipProposal(s.tx)
}

func (s *txScope) saveOwnershipProposal(p *OwnershipProposal) error {
	return saveOwnershipProposal(s.tx, p)
}

func (s *txScope) deleteOwnershipProposal() error {
	return deleteOwnershipProposal(s.tx)
}
