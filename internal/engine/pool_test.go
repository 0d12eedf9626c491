package engine

import (
	"testing"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
)

func mustNative(t *testing.T, denom string) assets.ID {
	t.Helper()
	id, err := assets.Native(denom)
	if err != nil {
		t.Fatalf("Native(%q): %v", denom, err)
	}
	return id
}

func TestUpdateRewardsIdempotentNoTimePassed(t *testing.T) {
	pool := mustNative(t, "uusdc")
	protocolAsset := mustNative(t, "uincentive")
	rps, _ := decimal.FromRatio(1_000_000, 604_800)

	p := &PoolState{
		Pool:         pool,
		TotalStaked:  decimal.AmountFromUint64(1000),
		LastUpdateTS: 1000,
		Rewards:      []*RewardSlot{{Ref: RewardRef{Kind: RefProtocol, Asset: protocolAsset}, RPS: rps}},
	}

	if err := p.UpdateRewards(1000); err != nil {
		t.Fatalf("UpdateRewards: %v", err)
	}
	if !p.Rewards[0].Index.IsZero() {
		t.Fatalf("expected no-op when now == last_update_ts")
	}
}

func TestUpdateRewardsOrphansWhileNoStake(t *testing.T) {
	pool := mustNative(t, "uusdc")
	rewardAsset := mustNative(t, "ureward")
	rps, _ := decimal.FromRatio(1000, 100) // 10/s scaled

	p := &PoolState{
		Pool:         pool,
		TotalStaked:  decimal.ZeroAmount(),
		LastUpdateTS: 0,
		Rewards:      []*RewardSlot{{Ref: RewardRef{Kind: RefExternal, Asset: rewardAsset}, RPS: rps}},
	}

	if err := p.UpdateRewards(100); err != nil {
		t.Fatalf("UpdateRewards: %v", err)
	}
	slot := p.Rewards[0]
	if !slot.Index.IsZero() {
		t.Fatalf("expected index unchanged while total_staked == 0")
	}
	payout, err := slot.Orphaned.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		t.Fatalf("MulAmountFloor: %v", err)
	}
	if payout.Uint64() != 1000 {
		t.Fatalf("expected orphaned == 1000, got %s", payout.Dec())
	}
}

func TestUpdateRewardsRotatesScheduleAtBoundary(t *testing.T) {
	pool := mustNative(t, "uusdc")
	rewardAsset := mustNative(t, "ureward")

	firstEnd := schedule.EpochsStart + schedule.EpochLength
	rps1, _ := decimal.FromRatio(schedule.EpochLength, schedule.EpochLength)
	rps2, _ := decimal.FromRatio(schedule.EpochLength*2, schedule.EpochLength)

	p := &PoolState{
		Pool:         pool,
		TotalStaked:  decimal.AmountFromUint64(1),
		LastUpdateTS: schedule.EpochsStart,
		Rewards: []*RewardSlot{{
			Ref:          RewardRef{Kind: RefExternal, Asset: rewardAsset},
			RPS:          rps1,
			NextUpdateTS: uint64Ptr(firstEnd),
			Queue: []schedule.Schedule{
				{StartTS: firstEnd, EndTS: firstEnd + schedule.EpochLength, RPS: rps2},
			},
		}},
	}

	if err := p.UpdateRewards(firstEnd + schedule.EpochLength); err != nil {
		t.Fatalf("UpdateRewards: %v", err)
	}
	slot := p.Rewards[0]
	if len(slot.Queue) != 0 {
		t.Fatalf("expected queue drained, got %d entries", len(slot.Queue))
	}
	if slot.NextUpdateTS != nil {
		t.Fatalf("expected slot to go quiet after exhausting the queue")
	}
}

func uint64Ptr(v uint64) *uint64 { return &v }
