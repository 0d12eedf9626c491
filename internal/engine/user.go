package engine

import (
	"fmt"

	"incentives/internal/assets"
	"incentives/internal/decimal"
)

// externalPayout is one distinct external AssetId's total pending reward
// across the slots a sync touched.
type externalPayout struct {
	Asset  assets.ID
	Amount decimal.Amount
}

// syncResult is the output of the shared sync primitive: everything a
// caller (Deposit/Withdraw/ClaimRewards) needs to build outgoing messages.
type syncResult struct {
	ProtocolPayout  decimal.Amount
	ExternalPayouts map[string]*externalPayout
}

func newSyncResult() syncResult {
	return syncResult{ProtocolPayout: decimal.ZeroAmount(), ExternalPayouts: make(map[string]*externalPayout)}
}

func (r *syncResult) addExternal(asset assets.ID, amount decimal.Amount) error {
	if amount.IsZero() {
		return nil
	}
	key := string(asset.Bytes())
	entry, ok := r.ExternalPayouts[key]
	if !ok {
		entry = &externalPayout{Asset: asset, Amount: decimal.ZeroAmount()}
		r.ExternalPayouts[key] = entry
	}
	sum, err := entry.Amount.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	entry.Amount = sum
	return nil
}

// syncUser is the single primitive shared by deposit, withdraw, and claim:
// it advances the pool's reward index to now, then for every slot computes
// the user's pending reward, finalizing (deleting) the snapshot for any
// slot whose schedule has fully expired and otherwise advancing it to the
// new index so the same accrual is never paid twice.
func syncUser(pool *PoolState, user *UserPosition, now uint64, protocolAsset assets.ID) (syncResult, error) {
	if err := pool.UpdateRewards(now); err != nil {
		return syncResult{}, err
	}

	result := newSyncResult()
	for _, slot := range pool.Rewards {
		key := slot.Ref.Key()
		prev, hasSnapshot := user.Snapshots[key]
		if !hasSnapshot {
			prev = decimal.Zero()
		}

		delta, err := slot.Index.Sub(prev)
		if err != nil {
			return syncResult{}, fmt.Errorf("engine: index monotonicity violated for %s: %w", slot.Ref.Key(), err)
		}

		pendingRaw, err := delta.MulAmountFloor(user.Amount.Uint256())
		if err != nil {
			return syncResult{}, fmt.Errorf("%w: %v", ErrOverflow, err)
		}
		pending := decimal.AmountFromUint256(pendingRaw)

		finished := slot.RPS.IsZero() && len(slot.Queue) == 0
		if finished {
			delete(user.Snapshots, key)
		} else {
			user.Snapshots[key] = slot.Index
		}

		if pending.IsZero() {
			continue
		}
		if slot.Ref.Kind == RefProtocol {
			sum, err := result.ProtocolPayout.Add(pending)
			if err != nil {
				return syncResult{}, fmt.Errorf("%w: %v", ErrOverflow, err)
			}
			result.ProtocolPayout = sum
		} else {
			if err := result.addExternal(slot.Ref.Asset, pending); err != nil {
				return syncResult{}, err
			}
		}
	}
	_ = protocolAsset // retained for call-site clarity; protocol asset identity lives in RewardRef.Asset
	return result, nil
}

// outMsgsFromSync builds the transfer/mint messages for a sync result,
// placing the protocol mint last per the ordering rule in the concurrency
// design.
func outMsgsFromSync(protocolAsset assets.ID, recipient string, result syncResult) []OutMsg {
	var msgs []OutMsg
	for _, payout := range result.ExternalPayouts {
		msgs = append(msgs, OutMsg{Kind: OutMsgTransfer, Asset: payout.Asset, Amount: payout.Amount, Recipient: recipient})
	}
	if !result.ProtocolPayout.IsZero() {
		msgs = append(msgs, OutMsg{Kind: OutMsgMint, Asset: protocolAsset, Amount: result.ProtocolPayout, Recipient: recipient})
	}
	return msgs
}

// Deposit stakes amount into pool on behalf of beneficiary. onBehalfOf is
// only honored when sender equals the configured trader, the same
// delegate-override rule claim and withdraw apply.
func (e *Engine) Deposit(ctx opContext, pool assets.ID, sender string, amount decimal.Amount, onBehalfOf string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		beneficiary, err := resolveOnBehalfOf(cfg, sender, onBehalfOf)
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

		poolState, err := tx.loadOrInitPool(pool, ctx.now)
		if err != nil {
			return nil, err
		}
		user, err := tx.loadOrInitUser(beneficiary, pool)
		if err != nil {
			return nil, err
		}

		result, err := syncUser(poolState, user, ctx.now, cfg.ProtocolAsset)
		if err != nil {
			return nil, err
		}

		newUserAmount, err := user.Amount.Add(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
		}
		user.Amount = newUserAmount
		newTotal, err := poolState.TotalStaked.Add(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOverflow, err)
		}
		poolState.TotalStaked = newTotal

		if err := tx.savePool(poolState); err != nil {
			return nil, err
		}
		if err := tx.saveUser(user); err != nil {
			return nil, err
		}

		return &Response{OutMsgs: outMsgsFromSync(cfg.ProtocolAsset, beneficiary, result)}, nil
	})
}

// Withdraw unstakes amount from pool, paying out any pending reward in the
// same response.
func (e *Engine) Withdraw(ctx opContext, pool assets.ID, sender string, amount decimal.Amount, onBehalfOf string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		owner, err := resolveOnBehalfOf(cfg, sender, onBehalfOf)
		if err != nil {
			return nil, err
		}

		poolState, ok, err := tx.loadPool(pool)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPoolNotRegistered
		}
		user, ok, err := tx.loadUser(owner, pool)
		if err != nil {
			return nil, err
		}
		if !ok || user.Amount.LessThan(amount) {
			return nil, ErrAmountExceedsBalance
		}

		if err := poolState.UpdateRewards(ctx.now); err != nil {
			return nil, err
		}
		result, err := syncUser(poolState, user, ctx.now, cfg.ProtocolAsset)
		if err != nil {
			return nil, err
		}

		newAmount, err := user.Amount.Sub(amount)
		if err != nil {
			return nil, ErrAmountExceedsBalance
		}
		user.Amount = newAmount
		newTotal, err := poolState.TotalStaked.Sub(amount)
		if err != nil {
			return nil, fmt.Errorf("engine: pool total_staked underflow: %w", err)
		}
		poolState.TotalStaked = newTotal

		if err := tx.savePool(poolState); err != nil {
			return nil, err
		}
		if err := tx.saveUser(user); err != nil {
			return nil, err
		}

		var msgs []OutMsg
		if !amount.IsZero() {
			msgs = append(msgs, OutMsg{Kind: OutMsgTransfer, Asset: pool, Amount: amount, Recipient: owner})
		}
		msgs = append(msgs, outMsgsFromSync(cfg.ProtocolAsset, owner, result)...)
		return &Response{OutMsgs: msgs}, nil
	})
}

func resolveOnBehalfOf(cfg *GlobalConfig, sender, onBehalfOf string) (string, error) {
	if onBehalfOf == "" || onBehalfOf == sender {
		return sender, nil
	}
	if cfg.Trader == "" || sender != cfg.Trader {
		return "", ErrUnauthorized
	}
	return onBehalfOf, nil
}
