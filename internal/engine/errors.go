package engine

import "errors"

// Sentinel errors for the reward index engine, named after the abstract
// error kinds in the operation design.
var (
	ErrUnauthorized            = errors.New("engine: unauthorized")
	ErrDuplicated              = errors.New("engine: duplicated entry")
	ErrBlockedToken            = errors.New("engine: token is blocked")
	ErrBlockedPairType         = errors.New("engine: pair type is blocked")
	ErrPoolNotRegistered       = errors.New("engine: pool is not a registered pair")
	ErrTooManyRewards          = errors.New("engine: pool already holds the maximum number of reward slots")
	ErrDurationOutOfRange      = errors.New("engine: duration out of range")
	ErrRpsTooLow               = errors.New("engine: reward rate too low")
	ErrAmountExceedsBalance    = errors.New("engine: amount exceeds balance")
	ErrZeroAllocPoint          = errors.New("engine: total allocation points is zero")
	ErrProtocolNotNative       = errors.New("engine: protocol reward asset must be native")
	ErrNoOrphanedRewards       = errors.New("engine: no orphaned rewards for this asset")
	ErrIncentivizationFeeOwed  = errors.New("engine: incentivization fee missing from funds")
	ErrFundsMismatch           = errors.New("engine: attached funds do not match the declared reward amount")
	ErrScheduleExists           = errors.New("engine: an active schedule already exists for this reward")
	ErrProposalTTLTooLong      = errors.New("engine: proposal ttl exceeds the maximum")
	ErrNoProposal              = errors.New("engine: no ownership proposal pending")
	ErrProposalExpired         = errors.New("engine: ownership proposal expired")
	ErrSameOwnerProposed       = errors.New("engine: new owner is already the current owner or already proposed")
	ErrOverflow                = errors.New("engine: numeric overflow")
)
