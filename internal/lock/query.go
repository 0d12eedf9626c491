package lock

import (
	"context"

	"incentives/internal/store"
)

// UserLock returns caller's current lock record, without checkpointing it.
func (e *Engine) UserLock(ctx context.Context, caller string) (UserLock, bool, error) {
	var (
		lock  UserLock
		found bool
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		u, ok, err := loadUserLock(tx, caller)
		if err != nil {
			return err
		}
		lock, found = u, ok
		return nil
	})
	if err != nil {
		return UserLock{}, false, err
	}
	return lock, found, nil
}

// GlobalState returns the process-wide lock accumulator as of its last
// checkpoint, without advancing it.
func (e *Engine) GlobalState(ctx context.Context) (GlobalState, error) {
	var state GlobalState
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		state, err = loadGlobalState(tx)
		return err
	})
	return state, err
}
