// Package schedule implements epoch-aligned reward schedule bookkeeping: the
// algorithm that turns an external reward deposit plus a duration into a
// concrete (start, end, reward-per-second) triple, anchored to fixed 7-day
// epoch boundaries.
package schedule

import (
	"errors"
	"fmt"

	"incentives/internal/decimal"
)

// EpochLength is the fixed epoch duration in seconds (7 days).
const EpochLength uint64 = 7 * 24 * 60 * 60

// EpochsStart anchors epoch boundary zero.
const EpochsStart uint64 = 1_696_809_600

// MaxPeriods bounds how many epochs a single schedule may span.
const MaxPeriods uint64 = 25

var (
	// ErrDurationOutOfRange reports duration_periods outside [1, MaxPeriods].
	ErrDurationOutOfRange = errors.New("schedule: duration out of range")
	// ErrRpsTooLow reports a computed reward-per-second below one unit.
	ErrRpsTooLow = errors.New("schedule: reward rate too low")
)

// Schedule is a single (start, end, rps) reward stream segment.
type Schedule struct {
	StartTS uint64
	EndTS   uint64
	RPS     decimal.Decimal
}

// NextEpochStart computes the first epoch boundary at or after blockTS,
// anchored at EpochsStart. If blockTS already sits on a boundary it is
// returned unchanged.
func NextEpochStart(blockTS uint64) uint64 {
	if blockTS <= EpochsStart {
		return EpochsStart
	}
	elapsed := blockTS - EpochsStart
	if elapsed%EpochLength == 0 {
		return blockTS
	}
	periods := elapsed/EpochLength + 1
	return EpochsStart + periods*EpochLength
}

// FromInput builds a Schedule from a reward amount and a requested duration
// in epochs, applied at blockTS. It mirrors the source contract's
// IncentivesSchedule::from_input: the new schedule covers the remainder of
// the current partial epoch plus duration_periods full epochs.
func FromInput(blockTS uint64, durationPeriods uint64, rewardAmount decimal.Amount) (Schedule, error) {
	if durationPeriods == 0 || durationPeriods > MaxPeriods {
		return Schedule{}, fmt.Errorf("%w: %d", ErrDurationOutOfRange, durationPeriods)
	}

	nextEpochStart := NextEpochStart(blockTS)
	endTS := nextEpochStart + durationPeriods*EpochLength

	rps, err := decimal.FromAmountRatio(rewardAmount, decimal.AmountFromUint64(endTS-blockTS))
	if err != nil {
		return Schedule{}, err
	}
	if rps.LessThanOne() {
		return Schedule{}, fmt.Errorf("%w: %s per second", ErrRpsTooLow, rps.String())
	}

	return Schedule{StartTS: nextEpochStart, EndTS: endTS, RPS: rps}, nil
}

// IsExpired reports whether the schedule's end has been reached at ts.
func (s Schedule) IsExpired(ts uint64) bool {
	return ts >= s.EndTS
}
