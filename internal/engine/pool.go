package engine

import (
	"fmt"

	"incentives/internal/decimal"
)

// UpdateRewards advances every slot's reward index to now, splitting the
// elapsed interval at external-schedule boundaries and routing emissions
// into the orphan bucket while total_staked == 0. It is the shared first
// step of every user-facing operation.
func (p *PoolState) UpdateRewards(now uint64) error {
	if now < p.LastUpdateTS {
		return fmt.Errorf("engine: update_rewards called with ts before last update")
	}
	dt := now - p.LastUpdateTS
	if dt == 0 {
		return nil
	}

	for _, slot := range p.Rewards {
		if slot.Ref.Kind == RefProtocol {
			if err := accrueSegment(slot, p.TotalStaked, dt); err != nil {
				return err
			}
			continue
		}
		if err := advanceExternalSlot(slot, p.TotalStaked, p.LastUpdateTS, now); err != nil {
			return err
		}
	}

	p.LastUpdateTS = now
	return nil
}

// advanceExternalSlot accrues an external slot across every schedule
// boundary crossed in (from, to], rotating the queue at each one.
func advanceExternalSlot(slot *RewardSlot, totalStaked decimal.Amount, from, to uint64) error {
	segmentStart := from
	for slot.NextUpdateTS != nil && *slot.NextUpdateTS > segmentStart && *slot.NextUpdateTS <= to {
		boundary := *slot.NextUpdateTS
		if err := accrueSegment(slot, totalStaked, boundary-segmentStart); err != nil {
			return err
		}
		segmentStart = boundary
		rotateExternalSchedule(slot)
	}
	if to > segmentStart {
		if err := accrueSegment(slot, totalStaked, to-segmentStart); err != nil {
			return err
		}
	}
	return nil
}

// rotateExternalSchedule adopts the next queued schedule once the current
// one's end boundary has been crossed; if the queue is empty the slot goes
// quiet (rps = 0, no next boundary) until a future Incentivize call.
func rotateExternalSchedule(slot *RewardSlot) {
	if len(slot.Queue) == 0 {
		slot.RPS = decimal.Zero()
		slot.NextUpdateTS = nil
		return
	}
	next := slot.Queue[0]
	slot.Queue = slot.Queue[1:]
	slot.RPS = next.RPS
	endTS := next.EndTS
	slot.NextUpdateTS = &endTS
}

func accrueSegment(slot *RewardSlot, totalStaked decimal.Amount, dt uint64) error {
	if dt == 0 || slot.RPS.IsZero() {
		return nil
	}
	elapsed, err := slot.RPS.MulDuration(dt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	if totalStaked.IsZero() {
		slot.Orphaned, err = slot.Orphaned.Add(elapsed)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOverflow, err)
		}
		return nil
	}
	delta, err := elapsed.DivAmount(totalStaked)
	if err != nil {
		return err
	}
	slot.Index, err = slot.Index.Add(delta)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	return nil
}
