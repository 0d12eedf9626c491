package engine

import (
	"context"
	"testing"

	"incentives/internal/assets"
	"incentives/internal/decimal"
)

func TestDepositRejectsUnregisteredPool(t *testing.T) {
	protocolAsset, _ := assets.Native("uincentive")
	eng, _ := newTestEngine(t, "owner", "factory", protocolAsset)
	pool, _ := assets.Contract("0x0000000000000000000000000000000000000001")

	_, err := eng.Deposit(NewOpContext(context.Background(), 100), pool, "alice", decimal.AmountFromUint64(100), "")
	if err != ErrPoolNotRegistered {
		t.Fatalf("err = %v, want ErrPoolNotRegistered", err)
	}
}

func TestDepositAndWithdrawRoundTrip(t *testing.T) {
	protocolAsset, _ := assets.Native("uincentive")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	pool, _ := assets.Contract("0x0000000000000000000000000000000000000001")
	factory.register(pool, "xyk")

	if _, err := eng.SetupPools(NewOpContext(context.Background(), 0), "owner", []PoolAllocation{{Pool: pool, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}

	if _, err := eng.Deposit(NewOpContext(context.Background(), 0), pool, "alice", decimal.AmountFromUint64(1000), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	resp, err := eng.Withdraw(NewOpContext(context.Background(), 100), pool, "alice", decimal.AmountFromUint64(1000), "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	var sawPoolTransfer bool
	for _, msg := range resp.OutMsgs {
		if msg.Kind == OutMsgTransfer && msg.Asset.Equal(pool) && msg.Recipient == "alice" {
			sawPoolTransfer = true
			if msg.Amount.String() != "1000" {
				t.Fatalf("transfer amount = %s, want 1000", msg.Amount.String())
			}
		}
	}
	if !sawPoolTransfer {
		t.Fatalf("expected a pool-token transfer back to alice, got %+v", resp.OutMsgs)
	}
}

func TestWithdrawRejectsAmountExceedingBalance(t *testing.T) {
	protocolAsset, _ := assets.Native("uincentive")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	pool, _ := assets.Contract("0x0000000000000000000000000000000000000001")
	factory.register(pool, "xyk")

	if _, err := eng.SetupPools(NewOpContext(context.Background(), 0), "owner", []PoolAllocation{{Pool: pool, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}
	if _, err := eng.Deposit(NewOpContext(context.Background(), 0), pool, "alice", decimal.AmountFromUint64(100), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	_, err := eng.Withdraw(NewOpContext(context.Background(), 0), pool, "alice", decimal.AmountFromUint64(200), "")
	if err != ErrAmountExceedsBalance {
		t.Fatalf("err = %v, want ErrAmountExceedsBalance", err)
	}
}

func TestDepositOnBehalfOfRequiresTrader(t *testing.T) {
	protocolAsset, _ := assets.Native("uincentive")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	pool, _ := assets.Contract("0x0000000000000000000000000000000000000001")
	factory.register(pool, "xyk")
	if _, err := eng.SetupPools(NewOpContext(context.Background(), 0), "owner", []PoolAllocation{{Pool: pool, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}

	_, err := eng.Deposit(NewOpContext(context.Background(), 0), pool, "bob", decimal.AmountFromUint64(100), "alice")
	if err != ErrUnauthorized {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDepositAccruesProtocolRewardsOverTime(t *testing.T) {
	protocolAsset, _ := assets.Native("uincentive")
	eng, factory := newTestEngine(t, "owner", "factory", protocolAsset)
	pool, _ := assets.Contract("0x0000000000000000000000000000000000000001")
	factory.register(pool, "xyk")

	if _, err := eng.SetupPools(NewOpContext(context.Background(), 0), "owner", []PoolAllocation{{Pool: pool, AllocPoints: decimal.AmountFromUint64(1)}}); err != nil {
		t.Fatalf("SetupPools: %v", err)
	}
	if _, err := eng.Deposit(NewOpContext(context.Background(), 0), pool, "alice", decimal.AmountFromUint64(1000), ""); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	resp, err := eng.Withdraw(NewOpContext(context.Background(), 10), pool, "alice", decimal.AmountFromUint64(0), "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	var sawMint bool
	for _, msg := range resp.OutMsgs {
		if msg.Kind == OutMsgMint && msg.Asset.Equal(protocolAsset) && msg.Recipient == "alice" {
			sawMint = true
			if msg.Amount.IsZero() {
				t.Fatalf("expected nonzero protocol mint after 10s as sole staker")
			}
		}
	}
	if !sawMint {
		t.Fatalf("expected a protocol mint message, got %+v", resp.OutMsgs)
	}
}
