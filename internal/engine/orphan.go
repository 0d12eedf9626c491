package engine

import (
	"fmt"

	"incentives/internal/assets"
	"incentives/internal/decimal"
)

// MaxOrphanedRewardLimit bounds how many orphan-bucket entries a single
// ClaimOrphanedRewards call may drain.
const MaxOrphanedRewardLimit = 10

func floorDecimal(d decimal.Decimal) (decimal.Amount, error) {
	raw, err := d.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	return decimal.AmountFromUint256(raw), nil
}

// RemoveRewardFromPool forcibly deregisters an external reward slot,
// owner only. Any reward committed to the slot but not yet staked against
// (its orphaned accumulator plus the undistributed remainder of a
// still-live schedule) is paid out directly to receiver.
func (e *Engine) RemoveRewardFromPool(ctx opContext, caller string, pool assets.ID, reward assets.ID, bypassUpcoming bool, receiver string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}

		poolState, ok, err := tx.loadPool(pool)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPoolNotRegistered
		}
		if err := poolState.UpdateRewards(ctx.now); err != nil {
			return nil, err
		}

		ref := RewardRef{Kind: RefExternal, Asset: reward}
		slot := poolState.SlotFor(ref)
		if slot == nil {
			return nil, fmt.Errorf("%w: no reward slot for %s on pool %s", ErrNoOrphanedRewards, reward.String(), pool.String())
		}
		if !bypassUpcoming && len(slot.Queue) > 0 {
			return nil, fmt.Errorf("%w: queued schedules remain; pass bypass_upcoming to force removal", ErrScheduleExists)
		}

		orphanedPart, err := floorDecimal(slot.Orphaned)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
		}

		remainingPart := decimal.ZeroAmount()
		if slot.NextUpdateTS != nil && *slot.NextUpdateTS > ctx.now && !slot.RPS.IsZero() {
			remainingSeconds := *slot.NextUpdateTS - ctx.now
			remainingDecimal, err := slot.RPS.MulDuration(remainingSeconds)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
			}
			remainingPart, err = floorDecimal(remainingDecimal)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
			}
		}

		unclaimed, err := orphanedPart.Add(remainingPart)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
		}

		poolState.RemoveSlot(ref)
		if err := tx.savePool(poolState); err != nil {
			return nil, err
		}

		var msgs []OutMsg
		if !unclaimed.IsZero() {
			msgs = append(msgs, OutMsg{Kind: OutMsgTransfer, Asset: reward, Amount: unclaimed, Recipient: receiver})
		}
		return &Response{OutMsgs: msgs}, nil
	})
}

// ClaimOrphanedRewards drains up to limit entries (capped at
// MaxOrphanedRewardLimit) from the global orphan bucket, owner only,
// emitting one transfer per asset.
func (e *Engine) ClaimOrphanedRewards(ctx opContext, caller string, limit int, receiver string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}
		if limit <= 0 || limit > MaxOrphanedRewardLimit {
			limit = MaxOrphanedRewardLimit
		}

		entries, err := tx.listOrphanedRewards(limit)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, ErrNoOrphanedRewards
		}

		var msgs []OutMsg
		for _, entry := range entries {
			if entry.Amount.IsZero() {
				continue
			}
			if _, err := tx.drainOrphanedReward(entry.Asset); err != nil {
				return nil, err
			}
			msgs = append(msgs, OutMsg{Kind: OutMsgTransfer, Asset: entry.Asset, Amount: entry.Amount, Recipient: receiver})
		}
		return &Response{OutMsgs: msgs}, nil
	})
}
