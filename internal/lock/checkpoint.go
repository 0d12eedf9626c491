package lock

import (
	"incentives/internal/decimal"
	"incentives/internal/schedule"
	"incentives/internal/store"
)

func subClamp(a, b decimal.Decimal) decimal.Decimal {
	out, err := a.Sub(b)
	if err != nil {
		return decimal.Zero()
	}
	return out
}

// nextBoundaryAfter returns the first week boundary strictly greater than
// ts, reusing the reward engine's epoch anchor since a week and an epoch
// are the same length.
func nextBoundaryAfter(ts uint64) uint64 {
	next := schedule.NextEpochStart(ts)
	if next == ts {
		next += SecondsPerWeek
	}
	return next
}

// advance walks state.LastCheckpointTS forward to now, decaying
// (bias, slope) at the current slope within each inter-boundary segment
// and consuming every slope-change ledger entry crossed along the way. When
// mutate is true, consumed ledger entries are deleted from the store (the
// live-state path); when false, the ledger is only read, leaving the store
// untouched (the historical-replay path, operating on a copy of state).
func advance(tx store.Tx, state *GlobalState, now uint64, mutate bool) error {
	if now < state.LastCheckpointTS {
		return nil
	}
	cursor := state.LastCheckpointTS
	boundary := nextBoundaryAfter(cursor)
	for boundary <= now {
		if dt := boundary - cursor; dt > 0 {
			decay, err := state.Slope.MulDuration(dt)
			if err != nil {
				return ErrOverflow
			}
			state.Bias = subClamp(state.Bias, decay)
			cursor = boundary
		}
		delta, ok, err := loadSlopeChange(tx, boundary)
		if err != nil {
			return err
		}
		if ok && !delta.IsZero() {
			state.Slope = subClamp(state.Slope, delta)
			if mutate {
				if err := tx.Delete(store.SlopeChangeKey(boundary)); err != nil {
					return err
				}
			}
		}
		boundary += SecondsPerWeek
	}
	if now > cursor {
		dt := now - cursor
		decay, err := state.Slope.MulDuration(dt)
		if err != nil {
			return ErrOverflow
		}
		state.Bias = subClamp(state.Bias, decay)
	}
	state.LastCheckpointTS = now
	return nil
}
