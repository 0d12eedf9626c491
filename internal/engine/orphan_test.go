package engine

import (
	"context"
	"testing"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
	"incentives/internal/store"
)

func TestRemoveRewardFromPoolPaysUndistributedRemainder(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	lpToken := mustNative(t, "lp-a")
	rewardAsset := mustNative(t, "ureward")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	factory.register(lpToken, "xyk")

	start := schedule.EpochsStart
	ctx := NewOpContext(context.Background(), start)
	funds := []Fund{{Asset: rewardAsset, Amount: decimal.AmountFromUint64(schedule.EpochLength)}}
	if _, err := eng.Incentivize(ctx, "anyone", lpToken, rewardAsset, decimal.AmountFromUint64(schedule.EpochLength), 1, funds); err != nil {
		t.Fatalf("Incentivize: %v", err)
	}

	// No staker ever deposited, so the accrued half sits in slot.orphaned and
	// the other half is still undistributed future emission; removal pays
	// out the sum of both, i.e. the full original reward.
	removeCtx := NewOpContext(context.Background(), start+schedule.EpochLength/2)
	resp, err := eng.RemoveRewardFromPool(removeCtx, "owner", lpToken, rewardAsset, false, "receiver")
	if err != nil {
		t.Fatalf("RemoveRewardFromPool: %v", err)
	}
	if len(resp.OutMsgs) != 1 {
		t.Fatalf("expected exactly one payout message, got %d", len(resp.OutMsgs))
	}
	if resp.OutMsgs[0].Recipient != "receiver" {
		t.Fatalf("expected payout to receiver, got %q", resp.OutMsgs[0].Recipient)
	}
	if resp.OutMsgs[0].Amount.Cmp(decimal.AmountFromUint64(schedule.EpochLength)) != 0 {
		t.Fatalf("expected the full undistributed reward back, got %s", resp.OutMsgs[0].Amount.String())
	}
}

func TestClaimOrphanedRewardsDrainsBucket(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	rewardAsset := mustNative(t, "ureward")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)

	if err := seedOrphan(eng, rewardAsset, decimal.AmountFromUint64(42)); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	ctx := NewOpContext(context.Background(), 1000)
	resp, err := eng.ClaimOrphanedRewards(ctx, "owner", 10, "receiver")
	if err != nil {
		t.Fatalf("ClaimOrphanedRewards: %v", err)
	}
	if len(resp.OutMsgs) != 1 || resp.OutMsgs[0].Amount.Cmp(decimal.AmountFromUint64(42)) != 0 {
		t.Fatalf("expected single 42-unit payout, got %+v", resp.OutMsgs)
	}

	if _, err := eng.ClaimOrphanedRewards(ctx, "owner", 10, "receiver"); err == nil {
		t.Fatalf("expected no-orphaned-rewards error on second drain")
	}
}

func seedOrphan(eng *Engine, asset assets.ID, amount decimal.Amount) error {
	return eng.store.WithTx(context.Background(), func(tx store.Tx) error {
		return addOrphanedReward(tx, asset, amount)
	})
}
