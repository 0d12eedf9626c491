// Package engine implements the reward index engine: per-pool reward-per-
// share accumulators, per-user index snapshots, external-schedule lifecycle,
// active-pool allocation, orphan-reward recovery, and the two-phase
// ownership transfer protocol.
package engine

import (
	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
)

// RefKind discriminates a protocol emission slot from an external reward
// slot.
type RefKind uint8

const (
	// RefProtocol is the single internally-minted emission.
	RefProtocol RefKind = iota
	// RefExternal is a third-party reward stream.
	RefExternal
)

// RewardRef identifies one reward stream. Two External refs with the same
// AssetId are matching regardless of any other state; the engine stores at
// most one slot per matching ref per pool.
type RewardRef struct {
	Kind  RefKind
	Asset assets.ID
}

// Matches reports whether two refs identify the same slot.
func (r RewardRef) Matches(other RewardRef) bool {
	return r.Kind == other.Kind && r.Asset.Equal(other.Asset)
}

// Key returns a canonical string usable as a map key, e.g. for
// UserPosition.Snapshots.
func (r RewardRef) Key() string {
	tag := "P:"
	if r.Kind == RefExternal {
		tag = "E:"
	}
	return tag + string(r.Asset.Bytes())
}

// RewardSlot is one (pool, RewardRef) reward-accounting record.
type RewardSlot struct {
	Ref RewardRef

	// RPS is the currently active reward-per-second rate.
	RPS decimal.Decimal
	// Index is the cumulative reward-per-staked-unit accumulator.
	// Monotonically non-decreasing.
	Index decimal.Decimal
	// Orphaned accumulates rewards that accrued while total_staked == 0.
	Orphaned decimal.Decimal

	// NextUpdateTS is set only for External slots with a live schedule: the
	// timestamp the current schedule ends and the next queued one (if any)
	// takes over.
	NextUpdateTS *uint64
	// Queue holds schedules not yet active, ordered by StartTS.
	Queue []schedule.Schedule
}

// IsLive reports whether the slot has a currently active (non-zero) rate or
// any queued schedule still to come.
func (s *RewardSlot) IsLive() bool {
	return !s.RPS.IsZero() || len(s.Queue) > 0
}

// PoolState is the per-pool accounting record.
type PoolState struct {
	Pool         assets.ID
	TotalStaked  decimal.Amount
	LastUpdateTS uint64
	Rewards      []*RewardSlot
}

// SlotFor returns the slot matching ref, or nil if absent.
func (p *PoolState) SlotFor(ref RewardRef) *RewardSlot {
	for _, s := range p.Rewards {
		if s.Ref.Matches(ref) {
			return s
		}
	}
	return nil
}

// RemoveSlot drops the slot matching ref from the pool, if present.
func (p *PoolState) RemoveSlot(ref RewardRef) {
	for i, s := range p.Rewards {
		if s.Ref.Matches(ref) {
			p.Rewards = append(p.Rewards[:i], p.Rewards[i+1:]...)
			return
		}
	}
}

// UserPosition is the per-(user, pool) stake and reward-snapshot record.
type UserPosition struct {
	User      string
	Pool      assets.ID
	Amount    decimal.Amount
	Snapshots map[string]decimal.Decimal
}

// IsEmpty reports whether the position can be deleted: zero stake and every
// snapshot drained by a finalized claim.
func (u *UserPosition) IsEmpty() bool {
	return u.Amount.IsZero() && len(u.Snapshots) == 0
}

// ActivePoolEntry is one member of the process-wide active set.
type ActivePoolEntry struct {
	Pool        assets.ID
	AllocPoints decimal.Amount
}

// IncentivizationFee describes the optional fee charged to register a new
// external reward stream.
type IncentivizationFee struct {
	Asset    assets.ID
	Amount   decimal.Amount
	Receiver string
}

// GlobalConfig is the engine's singleton configuration record.
type GlobalConfig struct {
	Owner               string
	GeneratorController string // empty if unset
	Factory             string
	Trader              string // empty if unset; the delegate allowed to act on behalf of other users
	ProtocolAsset       assets.ID
	ProtocolPerSecond   decimal.Amount
	TotalAllocPoints    decimal.Amount
	IncentivizationFee  *IncentivizationFee
}

// OwnershipProposal is the pending half of the two-phase ownership handoff.
type OwnershipProposal struct {
	ProposedOwner string
	ExpiresAt     uint64
}

// OutMsgKind discriminates the outgoing message types the engine can emit.
// The engine never executes these itself; it returns them on the Response
// for the host to dispatch.
type OutMsgKind uint8

const (
	// OutMsgTransfer is a plain balance transfer (native bank send or
	// contract token transfer) from the engine's holdings.
	OutMsgTransfer OutMsgKind = iota
	// OutMsgTransferFrom pulls funds from a sender into the engine, used
	// when registering a contract-denominated external reward schedule.
	OutMsgTransferFrom
	// OutMsgMint mints the protocol reward asset to a recipient. Always
	// placed last in a Response's message list so a transfer failure
	// cannot let a mint commit without its matching user credit.
	OutMsgMint
)

// OutMsg is one outgoing instruction attached to an operation's Response.
type OutMsg struct {
	Kind      OutMsgKind
	Asset     assets.ID
	Amount    decimal.Amount
	Recipient string
	Sender    string // only set for OutMsgTransferFrom
}

// Response is returned by every mutating engine operation: the state
// changes have already been committed to the store, and OutMsgs lists the
// side-effecting messages the host must still dispatch.
type Response struct {
	OutMsgs []OutMsg
}
