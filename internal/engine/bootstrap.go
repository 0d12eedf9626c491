package engine

import (
	"context"

	"incentives/internal/store"
)

// Bootstrap seeds the singleton GlobalConfig on first run. If a config
// already exists in the store it is left untouched: ownership and
// allocation thereafter live in the store, not in process configuration.
func (e *Engine) Bootstrap(ctx context.Context, cfg GlobalConfig) error {
	return e.store.WithTx(ctx, func(tx store.Tx) error {
		_, ok, err := tx.Get(store.KeyConfig)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return saveConfig(tx, &cfg)
	})
}
