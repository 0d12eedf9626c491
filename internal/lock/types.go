// Package lock implements the time-weighted vote-locking engine: users lock
// the protocol asset until a future week-aligned timestamp, their locked
// balance and voting power decay linearly to zero, and the process-wide
// total is tracked as a single (bias, slope) coefficient pair advanced by a
// week-indexed slope-change ledger, mirroring a veCRV-style accumulator.
package lock

import (
	"incentives/internal/decimal"
	"incentives/internal/schedule"
)

// SecondsPerWeek is the snapping granularity for end_lock_time and the
// ledger's boundary spacing. It equals the reward engine's epoch length.
const SecondsPerWeek = schedule.EpochLength

// MaxWeeks bounds how far in the future a lock may extend (~4 years).
const MaxWeeks = 4 * 52

// MaxSeconds is MaxWeeks expressed in seconds.
const MaxSeconds = MaxWeeks * SecondsPerWeek

// UserLock is one account's current lock record.
type UserLock struct {
	Deposit       decimal.Amount
	StartLockTime uint64
	EndLockTime   uint64
	// Timestamp is when this record was last written, used as the
	// snapshot key when persisting history.
	Timestamp uint64
}

// Exists reports whether the record represents a live lock rather than an
// empty/voided slot.
func (u UserLock) Exists() bool {
	return !u.Deposit.IsZero() && u.EndLockTime > 0
}

// Expired reports whether the lock has fully decayed by ts.
func (u UserLock) Expired(ts uint64) bool {
	return ts >= u.EndLockTime
}

// slope returns the lock's constant decay rate: deposit per second of
// remaining duration. Deposit legitimately occupies the full Uint128 range,
// so the ratio is computed through the full-width decimal.FromAmountRatio
// path rather than narrowing it to uint64 first.
func (u UserLock) slope() (decimal.Decimal, error) {
	return decimal.FromAmountRatio(u.Deposit, decimal.AmountFromUint64(u.EndLockTime-u.StartLockTime))
}

// LockedAmount returns deposit * max(0, end-t) / (end-start), floored to an
// integer balance.
func (u UserLock) LockedAmount(t uint64) (decimal.Amount, error) {
	if t >= u.EndLockTime {
		return decimal.ZeroAmount(), nil
	}
	deposit, err := decimal.FromAmount(u.Deposit)
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	weighted, err := deposit.MulDuration(u.EndLockTime - t)
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	value, err := weighted.DivAmount(decimal.AmountFromUint64(u.EndLockTime - u.StartLockTime))
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	raw, err := value.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	return decimal.AmountFromUint256(raw), nil
}

// VotingPower is the same linear decay curve as LockedAmount: an individual
// lock's voting power and locked balance coincide, the aggregate (bias,
// slope) representation is only needed to make the process-wide total
// cheap to advance.
func (u UserLock) VotingPower(t uint64) (decimal.Amount, error) {
	return u.LockedAmount(t)
}

// GlobalState is the process-wide lock accumulator.
type GlobalState struct {
	TotalDeposit     decimal.Amount
	Bias             decimal.Decimal
	Slope            decimal.Decimal
	LastCheckpointTS uint64
}

// EvaluateLockedBalance returns the aggregate locked/voting total at ts,
// assuming the state has already been checkpointed up to ts (or ts ==
// LastCheckpointTS); callers that need an arbitrary future/past ts should
// checkpoint a copy of the state first.
func (s GlobalState) EvaluateLockedBalance(ts uint64) (decimal.Amount, error) {
	if ts < s.LastCheckpointTS {
		return decimal.ZeroAmount(), nil
	}
	dt := ts - s.LastCheckpointTS
	decay, err := s.Slope.MulDuration(dt)
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	remaining, err := s.Bias.Sub(decay)
	if err != nil {
		// slope/bias bookkeeping never lets decay exceed bias in a correctly
		// checkpointed state; a stale state can still drift past zero.
		remaining = decimal.Zero()
	}
	raw, err := remaining.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		return decimal.ZeroAmount(), err
	}
	return decimal.AmountFromUint256(raw), nil
}
