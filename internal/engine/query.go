package engine

import (
	"context"

	"incentives/internal/assets"
	"incentives/internal/store"
)

// Pool returns the current on-store PoolState for pool, without advancing
// its reward indices: a query is not one of the host's messages and must
// never mutate state. Callers that need up-to-date rates (e.g. an APR
// estimate) should account for the elapsed time since LastUpdateTS
// themselves.
func (e *Engine) Pool(ctx context.Context, pool assets.ID) (*PoolState, bool, error) {
	var (
		state *PoolState
		found bool
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		p, ok, err := loadPool(tx, pool)
		if err != nil {
			return err
		}
		state, found = p, ok
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return state, found, nil
}

// ActivePools returns the current active set.
func (e *Engine) ActivePools(ctx context.Context) ([]ActivePoolEntry, error) {
	var entries []ActivePoolEntry
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		entries, err = loadActivePools(tx)
		return err
	})
	return entries, err
}

// User returns a caller's current position in a pool.
func (e *Engine) User(ctx context.Context, user string, pool assets.ID) (*UserPosition, bool, error) {
	var (
		pos   *UserPosition
		found bool
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		u, ok, err := loadUser(tx, user, pool)
		if err != nil {
			return err
		}
		pos, found = u, ok
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return pos, found, nil
}
