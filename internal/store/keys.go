package store

import "incentives/internal/assets"

// Key prefixes for the logical storage layout. Each prefix is followed by a
// colon and the relevant AssetId/address bytes, mirroring the specified
// persistent key -> value table.
var (
	KeyConfig              = []byte("config")
	PrefixActivePools      = []byte("active_pools:")
	PrefixPoolInfo         = []byte("pool_info:")
	PrefixUserInfo         = []byte("user_info:")
	PrefixBlockedTokens    = []byte("blocked_tokens:")
	PrefixOrphanedRewards  = []byte("orphaned_rewards:")
	KeyOwnershipProposal   = []byte("ownership_proposal")
	PrefixUserLockedBal    = []byte("user_locked_balance:")
	KeyLockState           = []byte("lock_state")
	PrefixSlopeChanges     = []byte("slope_changes:")
	PrefixUserLockHistory  = []byte("user_lock_history:")
	PrefixLockStateHistory = []byte("lock_state_history:")
)

// PoolInfoKey builds the storage key for a pool's PoolState.
func PoolInfoKey(pool assets.ID) []byte {
	return append(append([]byte{}, PrefixPoolInfo...), pool.Bytes()...)
}

// UserInfoKey builds the storage key for a (user, pool) UserPosition.
func UserInfoKey(user string, pool assets.ID) []byte {
	key := append(append([]byte{}, PrefixUserInfo...), []byte(user)...)
	key = append(key, ':')
	return append(key, pool.Bytes()...)
}

// BlockedTokenKey builds the membership key for an asset in the blocklist.
func BlockedTokenKey(asset assets.ID) []byte {
	return append(append([]byte{}, PrefixBlockedTokens...), asset.Bytes()...)
}

// OrphanedRewardKey builds the key for the global orphan bucket entry of an
// asset.
func OrphanedRewardKey(asset assets.ID) []byte {
	return append(append([]byte{}, PrefixOrphanedRewards...), asset.Bytes()...)
}

// UserLockedBalanceKey builds the key for a user's current lock record.
func UserLockedBalanceKey(user string) []byte {
	return append(append([]byte{}, PrefixUserLockedBal...), []byte(user)...)
}

// SlopeChangeKey builds the key for the slope-change ledger entry at a given
// future week boundary.
func SlopeChangeKey(weekTS uint64) []byte {
	return append(append([]byte{}, PrefixSlopeChanges...), uint64Bytes(weekTS)...)
}

// UserLockHistoryKey builds the key for a user's lock snapshot at a given
// timestamp, used for historical voting-power queries.
func UserLockHistoryKey(user string, ts uint64) []byte {
	key := append(append([]byte{}, PrefixUserLockHistory...), []byte(user)...)
	key = append(key, ':')
	return append(key, uint64Bytes(ts)...)
}

// UserLockHistoryPrefix builds the iteration prefix for every snapshot of
// one user's lock history, in ascending timestamp order.
func UserLockHistoryPrefix(user string) []byte {
	key := append(append([]byte{}, PrefixUserLockHistory...), []byte(user)...)
	return append(key, ':')
}

// LockStateHistoryKey builds the key for a global lock-state snapshot at a
// given timestamp.
func LockStateHistoryKey(ts uint64) []byte {
	return append(append([]byte{}, PrefixLockStateHistory...), uint64Bytes(ts)...)
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
