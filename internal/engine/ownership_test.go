package engine

import (
	"context"
	"testing"
)

func TestOwnershipProposeAndClaim(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)

	ctx := NewOpContext(context.Background(), 1000)
	if _, err := eng.ProposeNewOwner(ctx, "owner", "newowner", 100); err != nil {
		t.Fatalf("ProposeNewOwner: %v", err)
	}

	claimCtx := NewOpContext(context.Background(), 1050)
	if _, err := eng.ClaimOwnership(claimCtx, "newowner"); err != nil {
		t.Fatalf("ClaimOwnership: %v", err)
	}

	// The old owner no longer has authority.
	if _, err := eng.ProposeNewOwner(claimCtx, "owner", "someoneelse", 100); err == nil {
		t.Fatalf("expected old owner to lose authority after claim")
	}
}

func TestOwnershipClaimRejectsExpiredProposal(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)

	ctx := NewOpContext(context.Background(), 1000)
	if _, err := eng.ProposeNewOwner(ctx, "owner", "newowner", 100); err != nil {
		t.Fatalf("ProposeNewOwner: %v", err)
	}

	lateCtx := NewOpContext(context.Background(), 1200)
	if _, err := eng.ClaimOwnership(lateCtx, "newowner"); err == nil {
		t.Fatalf("expected expired-proposal error")
	}
}

func TestOwnershipProposeRejectsTTLTooLong(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)

	ctx := NewOpContext(context.Background(), 1000)
	if _, err := eng.ProposeNewOwner(ctx, "owner", "newowner", MaxProposalTTL+1); err == nil {
		t.Fatalf("expected ttl-too-long error")
	}
}

func TestOwnershipDropRequiresPendingProposal(t *testing.T) {
	protocolAsset := mustNative(t, "uincentive")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)

	ctx := NewOpContext(context.Background(), 1000)
	if _, err := eng.DropOwnershipProposal(ctx, "owner"); err == nil {
		t.Fatalf("expected no-proposal error")
	}
}
