package engine

import (
	"fmt"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
)

// MaxRewardTokens bounds how many reward slots (protocol slot included) a
// single pool may carry at once.
const MaxRewardTokens = 5

// Fund is one coin attached to an Incentivize call.
type Fund struct {
	Asset  assets.ID
	Amount decimal.Amount
}

func totalFund(funds []Fund, asset assets.ID) decimal.Amount {
	sum := decimal.ZeroAmount()
	for _, f := range funds {
		if f.Asset.Equal(asset) {
			if s, err := sum.Add(f.Amount); err == nil {
				sum = s
			}
		}
	}
	return sum
}

// Incentivize registers or extends an external reward schedule on pool.
// Anyone may call it; a configured incentivization fee is only charged when
// it introduces a brand-new RewardRef to the pool.
func (e *Engine) Incentivize(ctx opContext, sender string, pool assets.ID, rewardAsset assets.ID, rewardAmount decimal.Amount, durationPeriods uint64, funds []Fund) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}

		registered, err := e.factory.IsRegisteredPair(ctx.ctx, pool)
		if err != nil {
			return nil, err
		}
		if !registered {
			return nil, ErrPoolNotRegistered
		}
		blocked, err := tx.isBlockedToken(pool)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, ErrBlockedToken
		}
		pairType, err := e.factory.PairType(ctx.ctx, pool)
		if err != nil {
			return nil, err
		}
		blacklist, err := e.factory.BlacklistedPairTypes(ctx.ctx)
		if err != nil {
			return nil, err
		}
		if blacklist[pairType] {
			return nil, fmt.Errorf("%w: %s", ErrBlockedPairType, pairType)
		}

		poolState, err := tx.loadOrInitPool(pool, ctx.now)
		if err != nil {
			return nil, err
		}
		if err := poolState.UpdateRewards(ctx.now); err != nil {
			return nil, err
		}

		ref := RewardRef{Kind: RefExternal, Asset: rewardAsset}
		existing := poolState.SlotFor(ref)
		isNewRef := existing == nil
		if isNewRef && len(poolState.Rewards) >= MaxRewardTokens {
			return nil, ErrTooManyRewards
		}

		// A schedule queued behind a live one starts where the last scheduled
		// segment ends; otherwise it starts now.
		scheduleStart := ctx.now
		if existing != nil && existing.IsLive() {
			if n := len(existing.Queue); n > 0 {
				scheduleStart = existing.Queue[n-1].EndTS
			} else if existing.NextUpdateTS != nil {
				scheduleStart = *existing.NextUpdateTS
			}
		}
		newSchedule, err := schedule.FromInput(scheduleStart, durationPeriods, rewardAmount)
		if err != nil {
			return nil, err
		}

		var feeMsg *OutMsg
		feeRequired := isNewRef && cfg.IncentivizationFee != nil
		if feeRequired {
			fee := cfg.IncentivizationFee
			available := totalFund(funds, fee.Asset)
			if available.LessThan(fee.Amount) {
				return nil, ErrIncentivizationFeeOwed
			}
			feeMsg = &OutMsg{Kind: OutMsgTransfer, Asset: fee.Asset, Amount: fee.Amount, Recipient: fee.Receiver}
		}

		if rewardAsset.IsNative() {
			available := totalFund(funds, rewardAsset)
			if feeRequired && cfg.IncentivizationFee.Asset.Equal(rewardAsset) {
				remaining, err := available.Sub(cfg.IncentivizationFee.Amount)
				if err != nil {
					return nil, ErrFundsMismatch
				}
				available = remaining
			}
			if available.Cmp(rewardAmount) != 0 {
				return nil, ErrFundsMismatch
			}
		}

		var transferFromMsg *OutMsg
		if rewardAsset.IsContract() {
			transferFromMsg = &OutMsg{Kind: OutMsgTransferFrom, Asset: rewardAsset, Amount: rewardAmount, Sender: sender}
		}

		if existing != nil && existing.IsLive() {
			existing.Queue = append(existing.Queue, newSchedule)
		} else {
			endTS := newSchedule.EndTS
			if existing != nil {
				existing.RPS = newSchedule.RPS
				existing.NextUpdateTS = &endTS
			} else {
				poolState.Rewards = append(poolState.Rewards, &RewardSlot{Ref: ref, RPS: newSchedule.RPS, NextUpdateTS: &endTS})
			}
		}

		if err := tx.savePool(poolState); err != nil {
			return nil, err
		}

		var msgs []OutMsg
		if feeMsg != nil {
			msgs = append(msgs, *feeMsg)
		}
		if transferFromMsg != nil {
			msgs = append(msgs, *transferFromMsg)
		}
		return &Response{OutMsgs: msgs}, nil
	})
}
