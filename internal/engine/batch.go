package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"incentives/internal/assets"
	"incentives/internal/decimal"
)

// ClaimRewards syncs every listed pool for the caller (or, via the trader
// override, for onBehalfOf) and pays out every pending reward in one
// response. Duplicate pool ids are rejected up front.
func (e *Engine) ClaimRewards(ctx opContext, pools []assets.ID, sender, onBehalfOf string) (*Response, error) {
	if err := rejectDuplicatePools(pools); err != nil {
		return nil, err
	}

	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		user, err := resolveOnBehalfOf(cfg, sender, onBehalfOf)
		if err != nil {
			return nil, err
		}

		tx = tx.withBatchPrefetch(pools, user)

		// Loading each pool's state and the caller's position is independent
		// of every other pool, so the loads fan out across goroutines; the
		// reward sync and all writes then run on the calling goroutine and
		// are committed by the single store transaction, preserving
		// atomicity.
		type loaded struct {
			pool *PoolState
			user *UserPosition
		}
		states := make([]loaded, len(pools))

		g, _ := errgroup.WithContext(ctx.ctx)
		for i, poolID := range pools {
			i, poolID := i, poolID
			g.Go(func() error {
				poolState, ok, err := tx.loadPool(poolID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", ErrPoolNotRegistered, poolID.String())
				}
				userPos, ok, err := tx.loadUser(user, poolID)
				if err != nil {
					return err
				}
				if !ok {
					userPos = &UserPosition{User: user, Pool: poolID, Snapshots: make(map[string]decimal.Decimal)}
				}
				states[i] = loaded{pool: poolState, user: userPos}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		total := newSyncResult()
		for _, st := range states {
			result, err := syncUser(st.pool, st.user, ctx.now, cfg.ProtocolAsset)
			if err != nil {
				return nil, err
			}
			if err := tx.savePool(st.pool); err != nil {
				return nil, err
			}
			if err := tx.saveUser(st.user); err != nil {
				return nil, err
			}
			protocolSum, err := total.ProtocolPayout.Add(result.ProtocolPayout)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
			}
			total.ProtocolPayout = protocolSum
			for _, payout := range result.ExternalPayouts {
				if err := total.addExternal(payout.Asset, payout.Amount); err != nil {
					return nil, err
				}
			}
		}

		return &Response{OutMsgs: outMsgsFromSync(cfg.ProtocolAsset, user, total)}, nil
	})
}

func rejectDuplicatePools(pools []assets.ID) error {
	seen := make(map[string]bool, len(pools))
	for _, p := range pools {
		key := string(p.Bytes())
		if seen[key] {
			return fmt.Errorf("%w: pool %s listed more than once", ErrDuplicated, p.String())
		}
		seen[key] = true
	}
	return nil
}
