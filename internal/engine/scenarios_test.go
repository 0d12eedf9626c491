package engine

import (
	"context"
	"testing"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
)

// TestScenarioSoloStakerOneEpoch: a single staker across one full epoch earns
// the entire protocol emission for that epoch, floored.
func TestScenarioSoloStakerOneEpoch(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	lpToken := mustNative(t, "lp-a")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	factory.register(lpToken, "xyk")

	start := schedule.EpochsStart
	perSecond, err := decimal.FromRatio(1_000_000, schedule.EpochLength)
	if err != nil {
		t.Fatalf("FromRatio: %v", err)
	}
	raw, err := perSecond.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		t.Fatalf("MulAmountFloor: %v", err)
	}
	protocolPerSecond := decimal.AmountFromUint256(raw)

	if _, err := eng.SetTokensPerSecond(NewOpContext(context.Background(), start), "owner", protocolPerSecond); err != nil {
		t.Fatalf("SetTokensPerSecond: %v", err)
	}
	if _, err := eng.SetupPools(NewOpContext(context.Background(), start), "owner", []PoolAllocation{{Pool: lpToken, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}
	if _, err := eng.Deposit(NewOpContext(context.Background(), start), lpToken, "alice", decimal.AmountFromUint64(1000), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	resp, err := eng.ClaimRewards(NewOpContext(context.Background(), start+schedule.EpochLength), []assets.ID{lpToken}, "alice", "")
	if err != nil {
		t.Fatalf("ClaimRewards: %v", err)
	}

	minted := decimal.ZeroAmount()
	for _, msg := range resp.OutMsgs {
		if msg.Kind == OutMsgMint {
			minted = msg.Amount
		}
	}
	want := decimal.AmountFromUint64(1_000_000)
	if minted.Cmp(want) != 0 {
		t.Fatalf("minted = %s, want %s", minted.String(), want.String())
	}
}

// TestScenarioTwoStakersProportionalSplit: B joins mid-epoch with 3x A's
// stake; claims at epoch end split roughly 50/50 then 25/75 by stake-time.
func TestScenarioTwoStakersProportionalSplit(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	lpToken := mustNative(t, "lp-a")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	factory.register(lpToken, "xyk")

	start := schedule.EpochsStart
	perSecond, err := decimal.FromRatio(1_000_000, schedule.EpochLength)
	if err != nil {
		t.Fatalf("FromRatio: %v", err)
	}
	raw, err := perSecond.MulAmountFloor(decimal.AmountFromUint64(1).Uint256())
	if err != nil {
		t.Fatalf("MulAmountFloor: %v", err)
	}
	protocolPerSecond := decimal.AmountFromUint256(raw)

	if _, err := eng.SetTokensPerSecond(NewOpContext(context.Background(), start), "owner", protocolPerSecond); err != nil {
		t.Fatalf("SetTokensPerSecond: %v", err)
	}
	if _, err := eng.SetupPools(NewOpContext(context.Background(), start), "owner", []PoolAllocation{{Pool: lpToken, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}
	if _, err := eng.Deposit(NewOpContext(context.Background(), start), lpToken, "a", decimal.AmountFromUint64(1000), ""); err != nil {
		t.Fatalf("Deposit(a): %v", err)
	}
	mid := start + schedule.EpochLength/2
	if _, err := eng.Deposit(NewOpContext(context.Background(), mid), lpToken, "b", decimal.AmountFromUint64(3000), ""); err != nil {
		t.Fatalf("Deposit(b): %v", err)
	}

	end := start + schedule.EpochLength
	respA, err := eng.ClaimRewards(NewOpContext(context.Background(), end), []assets.ID{lpToken}, "a", "")
	if err != nil {
		t.Fatalf("ClaimRewards(a): %v", err)
	}
	respB, err := eng.ClaimRewards(NewOpContext(context.Background(), end), []assets.ID{lpToken}, "b", "")
	if err != nil {
		t.Fatalf("ClaimRewards(b): %v", err)
	}

	mintedA := mintedAmount(respA)
	mintedB := mintedAmount(respB)

	// A earns the whole first half (500_000) plus a quarter of the second
	// half (1_000/(1_000+3_000) * 500_000 = 125_000); B earns the remaining
	// three quarters of the second half (375_000). Floor rounding allows a
	// few units of slack either way.
	wantA := decimal.AmountFromUint64(625_000)
	wantB := decimal.AmountFromUint64(375_000)
	if diffExceeds(mintedA, wantA, 2) {
		t.Fatalf("mintedA = %s, want ~%s", mintedA.String(), wantA.String())
	}
	if diffExceeds(mintedB, wantB, 2) {
		t.Fatalf("mintedB = %s, want ~%s", mintedB.String(), wantB.String())
	}
}

func mintedAmount(resp *Response) decimal.Amount {
	minted := decimal.ZeroAmount()
	for _, msg := range resp.OutMsgs {
		if msg.Kind == OutMsgMint {
			minted = msg.Amount
		}
	}
	return minted
}

func diffExceeds(got, want decimal.Amount, tolerance uint64) bool {
	var diff decimal.Amount
	var err error
	if got.Cmp(want) > 0 {
		diff, err = got.Sub(want)
	} else {
		diff, err = want.Sub(got)
	}
	if err != nil {
		return true
	}
	return diff.Cmp(decimal.AmountFromUint64(tolerance)) > 0
}

// TestScenarioScheduleHandoverAtEpochBoundary: two successive Incentivize
// calls queue back-to-back schedules; a single staker's claim after both
// have fully elapsed pays out a nonzero share of their combined total,
// bounded above by that total.
func TestScenarioScheduleHandoverAtEpochBoundary(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	lpToken := mustNative(t, "lp-a")
	rewardAsset := mustNative(t, "ureward")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	factory.register(lpToken, "xyk")

	start := schedule.EpochsStart
	if _, err := eng.SetupPools(NewOpContext(context.Background(), start), "owner", []PoolAllocation{{Pool: lpToken, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}
	if _, err := eng.Deposit(NewOpContext(context.Background(), start), lpToken, "alice", decimal.AmountFromUint64(1), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	firstTotal := schedule.EpochLength
	firstFunds := []Fund{{Asset: rewardAsset, Amount: decimal.AmountFromUint64(firstTotal)}}
	if _, err := eng.Incentivize(NewOpContext(context.Background(), start+schedule.EpochLength/2), "anyone", lpToken, rewardAsset, decimal.AmountFromUint64(firstTotal), 1, firstFunds); err != nil {
		t.Fatalf("first Incentivize: %v", err)
	}
	secondTotal := schedule.EpochLength * 2
	secondFunds := []Fund{{Asset: rewardAsset, Amount: decimal.AmountFromUint64(secondTotal)}}
	if _, err := eng.Incentivize(NewOpContext(context.Background(), start+schedule.EpochLength), "anyone", lpToken, rewardAsset, decimal.AmountFromUint64(secondTotal), 1, secondFunds); err != nil {
		t.Fatalf("second Incentivize: %v", err)
	}

	resp, err := eng.ClaimRewards(NewOpContext(context.Background(), start+3*schedule.EpochLength), []assets.ID{lpToken}, "alice", "")
	if err != nil {
		t.Fatalf("ClaimRewards: %v", err)
	}
	externalPaid := decimal.ZeroAmount()
	for _, msg := range resp.OutMsgs {
		if msg.Kind == OutMsgTransfer && msg.Asset.Equal(rewardAsset) {
			externalPaid = msg.Amount
		}
	}
	combined, err := decimal.AmountFromUint64(firstTotal).Add(decimal.AmountFromUint64(secondTotal))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if externalPaid.Cmp(combined) > 0 {
		t.Fatalf("external paid %s exceeds combined schedule total %s", externalPaid.String(), combined.String())
	}
	if externalPaid.IsZero() {
		t.Fatalf("expected a nonzero external payout spanning both schedules")
	}
}

// TestScenarioBlockedTokenEviction: blocking a token used by an active pool
// evicts it and hands the remaining active pool the full protocol rate.
func TestScenarioBlockedTokenEviction(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	poolP := mustNative(t, "lp-p")
	poolQ := mustNative(t, "lp-q")
	tokenX := mustNative(t, "token-x")
	tokenY := mustNative(t, "token-y")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	factory.register(poolP, "xyk", tokenX, tokenY)
	factory.register(poolQ, "xyk")

	start := schedule.EpochsStart
	ctx := NewOpContext(context.Background(), start)
	if _, err := eng.SetupPools(ctx, "owner", []PoolAllocation{
		{Pool: poolP, AllocPoints: decimal.AmountFromUint64(100)},
		{Pool: poolQ, AllocPoints: decimal.AmountFromUint64(50)},
	}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}

	if _, err := eng.UpdateBlockedTokensList(ctx, "owner", []assets.ID{tokenX}, nil); err != nil {
		t.Fatalf("UpdateBlockedTokensList: %v", err)
	}

	active, err := eng.ActivePools(context.Background())
	if err != nil {
		t.Fatalf("ActivePools: %v", err)
	}
	if len(active) != 1 || !active[0].Pool.Equal(poolQ) {
		t.Fatalf("expected only poolQ active, got %+v", active)
	}

	q, ok, err := eng.Pool(context.Background(), poolQ)
	if err != nil || !ok {
		t.Fatalf("Pool(q): ok=%v err=%v", ok, err)
	}
	protocolSlot := q.SlotFor(RewardRef{Kind: RefProtocol})
	if protocolSlot == nil || protocolSlot.RPS.Cmp(decimal.FromUint64(1000)) != 0 {
		t.Fatalf("expected poolQ to carry the full protocol rate after eviction")
	}
}
