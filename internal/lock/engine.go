package lock

import (
	"context"

	"incentives/internal/decimal"
	"incentives/internal/store"
)

// ContractChecker reports whether an address is a contract, the host
// capability the engine needs to enforce that only externally-owned
// accounts may hold a lock.
type ContractChecker interface {
	IsContract(ctx context.Context, address string) (bool, error)
}

// Engine is the time-weighted lock engine: it tracks one UserLock per
// address plus the process-wide (bias, slope) accumulator those locks feed.
type Engine struct {
	store    store.Store
	contract ContractChecker
}

// New constructs a lock Engine over the given store and contract-address
// oracle.
func New(s store.Store, contract ContractChecker) *Engine {
	return &Engine{store: s, contract: contract}
}

func (e *Engine) withTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return e.store.WithTx(ctx, fn)
}

func (e *Engine) requireEOA(ctx context.Context, address string) error {
	if e.contract == nil {
		return nil
	}
	isContract, err := e.contract.IsContract(ctx, address)
	if err != nil {
		return err
	}
	if isContract {
		return ErrContractForbidden
	}
	return nil
}

// CreateLock opens a new lock for caller: amount of the protocol asset
// locked until endLockTime, which must land strictly in the future and no
// further than MaxSeconds out. CreateLock fails if caller already holds a
// live lock; use IncreaseLockAmount/IncreaseEndLockTime to modify one.
func (e *Engine) CreateLock(ctx context.Context, caller string, amount decimal.Amount, endLockTime, now uint64) error {
	if err := e.requireEOA(ctx, caller); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrInsufficientAmount
	}
	if endLockTime <= now {
		return ErrEndLockTimeTooEarly
	}
	if endLockTime-now > MaxSeconds {
		return ErrEndLockTimeTooLate
	}
	return e.withTx(ctx, func(tx store.Tx) error {
		existing, ok, err := loadUserLock(tx, caller)
		if err != nil {
			return err
		}
		if ok && existing.Exists() && !existing.Expired(now) {
			return ErrLockAlreadyExists
		}
		next := UserLock{Deposit: amount, StartLockTime: now, EndLockTime: endLockTime, Timestamp: now}
		return e.updateUserLock(tx, caller, existing, next, now)
	})
}

// IncreaseLockAmount adds extra to caller's live lock, resetting
// start_lock_time to now so the additional deposit decays over the lock's
// full remaining duration alongside the original balance.
func (e *Engine) IncreaseLockAmount(ctx context.Context, caller string, extra decimal.Amount, now uint64) error {
	if err := e.requireEOA(ctx, caller); err != nil {
		return err
	}
	if extra.IsZero() {
		return ErrInsufficientAmount
	}
	return e.withTx(ctx, func(tx store.Tx) error {
		existing, ok, err := loadUserLock(tx, caller)
		if err != nil {
			return err
		}
		if !ok || !existing.Exists() {
			return ErrLockDoesNotExist
		}
		if existing.Expired(now) {
			return ErrLockExpired
		}
		deposit, err := existing.Deposit.Add(extra)
		if err != nil {
			return ErrOverflow
		}
		next := UserLock{Deposit: deposit, StartLockTime: now, EndLockTime: existing.EndLockTime, Timestamp: now}
		return e.updateUserLock(tx, caller, existing, next, now)
	})
}

// IncreaseEndLockTime extends caller's live lock to a later endLockTime.
// The new end must be strictly later than the current one, strictly in the
// future, and no more than MaxSeconds from now.
func (e *Engine) IncreaseEndLockTime(ctx context.Context, caller string, endLockTime, now uint64) error {
	if err := e.requireEOA(ctx, caller); err != nil {
		return err
	}
	if endLockTime <= now {
		return ErrEndLockTimeTooEarly
	}
	if endLockTime-now > MaxSeconds {
		return ErrEndLockTimeTooLate
	}
	return e.withTx(ctx, func(tx store.Tx) error {
		existing, ok, err := loadUserLock(tx, caller)
		if err != nil {
			return err
		}
		if !ok || !existing.Exists() {
			return ErrLockDoesNotExist
		}
		if existing.Expired(now) {
			return ErrLockExpired
		}
		if endLockTime <= existing.EndLockTime {
			return ErrEndLockTimeTooEarly
		}
		next := UserLock{Deposit: existing.Deposit, StartLockTime: now, EndLockTime: endLockTime, Timestamp: now}
		return e.updateUserLock(tx, caller, existing, next, now)
	})
}

// Withdraw pays out caller's lock. Once the lock has fully expired the
// entire deposit returns and the lock is voided; otherwise only the portion
// already decayed away (deposit - locked_amount(now)) returns, and the lock
// continues decaying on its existing schedule.
func (e *Engine) Withdraw(ctx context.Context, caller string, now uint64) (decimal.Amount, error) {
	if err := e.requireEOA(ctx, caller); err != nil {
		return decimal.ZeroAmount(), err
	}
	var payout decimal.Amount
	err := e.withTx(ctx, func(tx store.Tx) error {
		existing, ok, err := loadUserLock(tx, caller)
		if err != nil {
			return err
		}
		if !ok || !existing.Exists() {
			return ErrLockDoesNotExist
		}
		if existing.Expired(now) {
			payout = existing.Deposit
			return e.updateUserLock(tx, caller, existing, UserLock{}, now)
		}
		locked, err := existing.LockedAmount(now)
		if err != nil {
			return err
		}
		payout, err = existing.Deposit.Sub(locked)
		if err != nil {
			return ErrOverflow
		}
		if payout.IsZero() {
			return nil
		}
		next := UserLock{Deposit: locked, StartLockTime: now, EndLockTime: existing.EndLockTime, Timestamp: now}
		return e.updateUserLock(tx, caller, existing, next, now)
	})
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	return payout, nil
}

// Checkpoint advances the global accumulator to now without any associated
// user lock event, consuming every slope-change boundary crossed along the
// way. Anyone may call it; it has no authorization requirement.
func (e *Engine) Checkpoint(ctx context.Context, now uint64) error {
	return e.withTx(ctx, func(tx store.Tx) error {
		state, err := loadGlobalState(tx)
		if err != nil {
			return err
		}
		if err := advance(tx, &state, now, true); err != nil {
			return err
		}
		if err := saveGlobalState(tx, state); err != nil {
			return err
		}
		return snapshotGlobalState(tx, state, now)
	})
}

// updateUserLock implements the shared three-step coefficient update for
// every operation that replaces one UserLock with another (including the
// zero value, for a void on full withdrawal): cancel the old lock's
// contribution, checkpoint the global accumulator up to now, then add the
// new lock's contribution. Checkpointing between the cancel and the add
// keeps the global (bias, slope) pair consistent with a state that never
// carries a slope contribution past its own lock's end.
func (e *Engine) updateUserLock(tx store.Tx, caller string, old, next UserLock, now uint64) error {
	state, err := loadGlobalState(tx)
	if err != nil {
		return err
	}

	if old.Exists() {
		oldSlope, err := old.slope()
		if err != nil {
			return err
		}
		if !old.Expired(now) {
			state.Slope = subClamp(state.Slope, oldSlope)
			if err := subSlopeChange(tx, snapWeek(old.EndLockTime), oldSlope); err != nil {
				return err
			}
		}
		remaining, err := old.LockedAmount(state.LastCheckpointTS)
		if err != nil {
			return err
		}
		remainingDecimal, err := decimal.FromAmount(remaining)
		if err != nil {
			return ErrOverflow
		}
		state.Bias = subClamp(state.Bias, remainingDecimal)
		state.TotalDeposit, err = state.TotalDeposit.Sub(old.Deposit)
		if err != nil {
			return ErrOverflow
		}
	}

	if err := advance(tx, &state, now, true); err != nil {
		return err
	}

	if next.Exists() {
		newSlope, err := next.slope()
		if err != nil {
			return err
		}
		state.Slope, err = state.Slope.Add(newSlope)
		if err != nil {
			return ErrOverflow
		}
		if err := addSlopeChange(tx, snapWeek(next.EndLockTime), newSlope); err != nil {
			return err
		}
		nextDeposit, err := decimal.FromAmount(next.Deposit)
		if err != nil {
			return ErrOverflow
		}
		state.Bias, err = state.Bias.Add(nextDeposit)
		if err != nil {
			return ErrOverflow
		}
		state.TotalDeposit, err = state.TotalDeposit.Add(next.Deposit)
		if err != nil {
			return ErrOverflow
		}
	}

	if err := saveGlobalState(tx, state); err != nil {
		return err
	}
	if err := snapshotGlobalState(tx, state, now); err != nil {
		return err
	}
	if err := saveUserLock(tx, caller, next); err != nil {
		return err
	}
	return snapshotUserLock(tx, caller, next, now)
}

// snapWeek rounds ts down to its containing week boundary, so a lock's
// slope cancels out at the exact ledger entry it was scheduled against.
func snapWeek(ts uint64) uint64 {
	return (ts / SecondsPerWeek) * SecondsPerWeek
}

