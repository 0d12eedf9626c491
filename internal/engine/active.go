package engine

import (
	"fmt"

	"incentives/internal/assets"
	"incentives/internal/decimal"
)

// PoolAllocation is one input entry to SetupPools: a pool and its requested
// allocation points.
type PoolAllocation struct {
	Pool        assets.ID
	AllocPoints decimal.Amount
}

// SetupPools replaces the active set atomically. Callers must supply the
// caller identity; authorization (owner or generator_controller) is checked
// against the stored config.
func (e *Engine) SetupPools(ctx opContext, caller string, entries []PoolAllocation) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if !isOwnerOrController(cfg, caller) {
			return nil, ErrUnauthorized
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: active pool list must not be empty", ErrZeroAllocPoint)
		}
		if err := rejectDuplicatePoolAllocations(entries); err != nil {
			return nil, err
		}
		blacklist, err := e.factory.BlacklistedPairTypes(ctx.ctx)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			blocked, err := tx.isBlockedToken(entry.Pool)
			if err != nil {
				return nil, err
			}
			if blocked {
				return nil, fmt.Errorf("%w: %s", ErrBlockedToken, entry.Pool.String())
			}
			pairType, err := e.factory.PairType(ctx.ctx, entry.Pool)
			if err != nil {
				return nil, err
			}
			if blacklist[pairType] {
				return nil, fmt.Errorf("%w: %s", ErrBlockedPairType, pairType)
			}
		}

		current, err := tx.loadActivePools()
		if err != nil {
			return nil, err
		}
		for _, entry := range current {
			pool, err := tx.loadOrInitPool(entry.Pool, ctx.now)
			if err != nil {
				return nil, err
			}
			if err := pool.UpdateRewards(ctx.now); err != nil {
				return nil, err
			}
			setProtocolRPS(pool, decimal.Zero())
			if err := tx.savePool(pool); err != nil {
				return nil, err
			}
		}

		totalAlloc := decimal.ZeroAmount()
		for _, entry := range entries {
			sum, err := totalAlloc.Add(entry.AllocPoints)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
			}
			totalAlloc = sum
		}
		if totalAlloc.IsZero() {
			return nil, ErrZeroAllocPoint
		}

		for _, entry := range entries {
			pool, err := tx.loadOrInitPool(entry.Pool, ctx.now)
			if err != nil {
				return nil, err
			}
			if err := pool.UpdateRewards(ctx.now); err != nil {
				return nil, err
			}
			rps, err := protocolRPSShare(cfg.ProtocolPerSecond, entry.AllocPoints, totalAlloc)
			if err != nil {
				return nil, err
			}
			setProtocolRPS(pool, rps)
			if err := tx.savePool(pool); err != nil {
				return nil, err
			}
		}

		newActive := make([]ActivePoolEntry, len(entries))
		for i, entry := range entries {
			newActive[i] = ActivePoolEntry{Pool: entry.Pool, AllocPoints: entry.AllocPoints}
		}
		if err := tx.replaceActivePools(newActive); err != nil {
			return nil, err
		}
		cfg.TotalAllocPoints = totalAlloc
		if err := tx.saveConfig(cfg); err != nil {
			return nil, err
		}

		return &Response{}, nil
	})
}

// SetTokensPerSecond updates the protocol emission rate and rescales every
// active pool's protocol rps to match.
func (e *Engine) SetTokensPerSecond(ctx opContext, caller string, perSecond decimal.Amount) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}
		cfg.ProtocolPerSecond = perSecond
		if err := tx.saveConfig(cfg); err != nil {
			return nil, err
		}
		if err := rescaleActivePools(ctx, tx, cfg); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// DeactivatePool is restricted to the factory and removes a single pool
// from the active set.
func (e *Engine) DeactivatePool(ctx opContext, caller string, pool assets.ID) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Factory {
			return nil, ErrUnauthorized
		}
		if err := deactivateAndRescale(ctx, tx, cfg, func(active []ActivePoolEntry) []ActivePoolEntry {
			return removePool(active, pool)
		}); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// DeactivateBlockedPools is unrestricted and reconciles the active set
// against the current factory pair-type blacklist.
func (e *Engine) DeactivateBlockedPools(ctx opContext) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		blacklist, err := e.factory.BlacklistedPairTypes(ctx.ctx)
		if err != nil {
			return nil, err
		}
		if err := deactivateAndRescale(ctx, tx, cfg, func(active []ActivePoolEntry) []ActivePoolEntry {
			kept := make([]ActivePoolEntry, 0, len(active))
			for _, entry := range active {
				pairType, err := e.factory.PairType(ctx.ctx, entry.Pool)
				if err != nil || !blacklist[pairType] {
					kept = append(kept, entry)
				}
			}
			return kept
		}); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// UpdateBlockedTokensList mutates the blocklist and evicts any active pool
// whose pair contains a newly blocked token.
func (e *Engine) UpdateBlockedTokensList(ctx opContext, caller string, add, remove []assets.ID) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}
		if err := rejectDuplicateAssetUnion(add, remove); err != nil {
			return nil, err
		}
		for _, asset := range add {
			if asset.Equal(cfg.ProtocolAsset) {
				return nil, fmt.Errorf("%w: cannot block the protocol reward asset", ErrBlockedToken)
			}
		}

		for _, asset := range add {
			if err := tx.setBlockedToken(asset, true); err != nil {
				return nil, err
			}
		}
		for _, asset := range remove {
			if err := tx.setBlockedToken(asset, false); err != nil {
				return nil, err
			}
		}

		if err := deactivateAndRescale(ctx, tx, cfg, func(active []ActivePoolEntry) []ActivePoolEntry {
			kept := make([]ActivePoolEntry, 0, len(active))
			for _, entry := range active {
				pairAssets, err := e.factory.PairAssets(ctx.ctx, entry.Pool)
				if err != nil {
					kept = append(kept, entry)
					continue
				}
				if !pairContainsAny(pairAssets, add) {
					kept = append(kept, entry)
				}
			}
			return kept
		}); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// deactivateAndRescale applies the "update rewards, zero the departing
// pools, rescale the remaining ones" sequence shared by DeactivatePool,
// DeactivateBlockedPools, and UpdateBlockedTokensList.
func deactivateAndRescale(ctx opContext, tx *txScope, cfg *GlobalConfig, filter func([]ActivePoolEntry) []ActivePoolEntry) error {
	current, err := tx.loadActivePools()
	if err != nil {
		return err
	}
	kept := filter(current)

	departing := make(map[string]bool)
	for _, entry := range current {
		departing[string(entry.Pool.Bytes())] = true
	}
	for _, entry := range kept {
		delete(departing, string(entry.Pool.Bytes()))
	}

	for _, entry := range current {
		if !departing[string(entry.Pool.Bytes())] {
			continue
		}
		pool, err := tx.loadOrInitPool(entry.Pool, ctx.now)
		if err != nil {
			return err
		}
		if err := pool.UpdateRewards(ctx.now); err != nil {
			return err
		}
		setProtocolRPS(pool, decimal.Zero())
		if err := tx.savePool(pool); err != nil {
			return err
		}
	}

	if err := tx.replaceActivePools(kept); err != nil {
		return err
	}

	totalAlloc := decimal.ZeroAmount()
	for _, entry := range kept {
		sum, err := totalAlloc.Add(entry.AllocPoints)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOverflow, err)
		}
		totalAlloc = sum
	}
	cfg.TotalAllocPoints = totalAlloc
	if err := tx.saveConfig(cfg); err != nil {
		return err
	}

	return rescaleActivePoolsWith(ctx, tx, cfg, kept)
}

func rescaleActivePools(ctx opContext, tx *txScope, cfg *GlobalConfig) error {
	current, err := tx.loadActivePools()
	if err != nil {
		return err
	}
	return rescaleActivePoolsWith(ctx, tx, cfg, current)
}

func rescaleActivePoolsWith(ctx opContext, tx *txScope, cfg *GlobalConfig, active []ActivePoolEntry) error {
	if cfg.TotalAllocPoints.IsZero() {
		return nil
	}
	for _, entry := range active {
		pool, err := tx.loadOrInitPool(entry.Pool, ctx.now)
		if err != nil {
			return err
		}
		if err := pool.UpdateRewards(ctx.now); err != nil {
			return err
		}
		rps, err := protocolRPSShare(cfg.ProtocolPerSecond, entry.AllocPoints, cfg.TotalAllocPoints)
		if err != nil {
			return err
		}
		setProtocolRPS(pool, rps)
		if err := tx.savePool(pool); err != nil {
			return err
		}
	}
	return nil
}

// protocolRPSShare computes protocol_per_second * alloc / total_alloc at
// Scale precision: the pool's share of the protocol emission rate. Both
// perSecond and alloc can legitimately occupy the full Uint128 range a
// config value or allocation weight is allowed to hold, so the full-width
// decimal.FromAmount/MulAmount path is used instead of narrowing through
// uint64 first.
func protocolRPSShare(perSecond, alloc, totalAlloc decimal.Amount) (decimal.Decimal, error) {
	rate, err := decimal.FromAmount(perSecond)
	if err != nil {
		return decimal.Zero(), err
	}
	weighted, err := rate.MulAmount(alloc)
	if err != nil {
		return decimal.Zero(), err
	}
	return weighted.DivAmount(totalAlloc)
}

func setProtocolRPS(pool *PoolState, rps decimal.Decimal) {
	for _, slot := range pool.Rewards {
		if slot.Ref.Kind == RefProtocol {
			slot.RPS = rps
			return
		}
	}
	if rps.IsZero() {
		return
	}
	pool.Rewards = append(pool.Rewards, &RewardSlot{Ref: RewardRef{Kind: RefProtocol}, RPS: rps})
}

func isOwnerOrController(cfg *GlobalConfig, caller string) bool {
	return caller == cfg.Owner || (cfg.GeneratorController != "" && caller == cfg.GeneratorController)
}

func rejectDuplicatePoolAllocations(entries []PoolAllocation) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		key := string(e.Pool.Bytes())
		if seen[key] {
			return fmt.Errorf("%w: pool %s listed more than once", ErrDuplicated, e.Pool.String())
		}
		seen[key] = true
	}
	return nil
}

func rejectDuplicateAssetUnion(add, remove []assets.ID) error {
	seen := make(map[string]bool, len(add)+len(remove))
	for _, a := range append(append([]assets.ID{}, add...), remove...) {
		key := string(a.Bytes())
		if seen[key] {
			return fmt.Errorf("%w: %s listed more than once across add/remove", ErrDuplicated, a.String())
		}
		seen[key] = true
	}
	return nil
}

func removePool(active []ActivePoolEntry, pool assets.ID) []ActivePoolEntry {
	out := make([]ActivePoolEntry, 0, len(active))
	for _, entry := range active {
		if !entry.Pool.Equal(pool) {
			out = append(out, entry)
		}
	}
	return out
}

func pairContainsAny(pairAssets []assets.ID, blocked []assets.ID) bool {
	for _, a := range pairAssets {
		for _, b := range blocked {
			if a.Equal(b) {
				return true
			}
		}
	}
	return false
}
