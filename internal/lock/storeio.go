package lock

import (
	"encoding/json"
	"fmt"

	"incentives/internal/decimal"
	"incentives/internal/store"
)

type globalStateDTO struct {
	TotalDeposit     json.RawMessage `json:"total_deposit"`
	Bias             json.RawMessage `json:"bias"`
	Slope            json.RawMessage `json:"slope"`
	LastCheckpointTS uint64          `json:"last_checkpoint_ts"`
}

func encodeGlobalState(s GlobalState) ([]byte, error) {
	deposit, err := json.Marshal(s.TotalDeposit)
	if err != nil {
		return nil, err
	}
	bias, err := json.Marshal(s.Bias)
	if err != nil {
		return nil, err
	}
	slope, err := json.Marshal(s.Slope)
	if err != nil {
		return nil, err
	}
	return json.Marshal(globalStateDTO{TotalDeposit: deposit, Bias: bias, Slope: slope, LastCheckpointTS: s.LastCheckpointTS})
}

func decodeGlobalState(data []byte) (GlobalState, error) {
	var dto globalStateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return GlobalState{}, fmt.Errorf("lock: decode state: %w", err)
	}
	var s GlobalState
	s.LastCheckpointTS = dto.LastCheckpointTS
	if err := json.Unmarshal(dto.TotalDeposit, &s.TotalDeposit); err != nil {
		return GlobalState{}, err
	}
	if err := json.Unmarshal(dto.Bias, &s.Bias); err != nil {
		return GlobalState{}, err
	}
	if err := json.Unmarshal(dto.Slope, &s.Slope); err != nil {
		return GlobalState{}, err
	}
	return s, nil
}

func loadGlobalState(tx store.Tx) (GlobalState, error) {
	raw, ok, err := tx.Get(store.KeyLockState)
	if err != nil {
		return GlobalState{}, err
	}
	if !ok {
		return GlobalState{TotalDeposit: decimal.ZeroAmount(), Bias: decimal.Zero(), Slope: decimal.Zero()}, nil
	}
	return decodeGlobalState(raw)
}

func saveGlobalState(tx store.Tx, s GlobalState) error {
	raw, err := encodeGlobalState(s)
	if err != nil {
		return err
	}
	return tx.Set(store.KeyLockState, raw)
}

func snapshotGlobalState(tx store.Tx, s GlobalState, ts uint64) error {
	raw, err := encodeGlobalState(s)
	if err != nil {
		return err
	}
	return tx.Set(store.LockStateHistoryKey(ts), raw)
}

func loadGlobalStateHistoryAtOrBefore(tx store.Tx, ts uint64) (GlobalState, bool, error) {
	kvs, err := tx.Iterate(store.PrefixLockStateHistory)
	if err != nil {
		return GlobalState{}, false, err
	}
	var best []byte
	for _, kv := range kvs {
		snapTS := decodeUint64Suffix(kv.Key, store.PrefixLockStateHistory)
		if snapTS > ts {
			break
		}
		best = kv.Value
	}
	if best == nil {
		return GlobalState{}, false, nil
	}
	s, err := decodeGlobalState(best)
	return s, true, err
}

type userLockDTO struct {
	Deposit       json.RawMessage `json:"deposit"`
	StartLockTime uint64          `json:"start_lock_time"`
	EndLockTime   uint64          `json:"end_lock_time"`
	Timestamp     uint64          `json:"timestamp"`
}

func encodeUserLock(u UserLock) ([]byte, error) {
	deposit, err := json.Marshal(u.Deposit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(userLockDTO{Deposit: deposit, StartLockTime: u.StartLockTime, EndLockTime: u.EndLockTime, Timestamp: u.Timestamp})
}

func decodeUserLock(data []byte) (UserLock, error) {
	var dto userLockDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return UserLock{}, fmt.Errorf("lock: decode user lock: %w", err)
	}
	var u UserLock
	u.StartLockTime = dto.StartLockTime
	u.EndLockTime = dto.EndLockTime
	u.Timestamp = dto.Timestamp
	if err := json.Unmarshal(dto.Deposit, &u.Deposit); err != nil {
		return UserLock{}, err
	}
	return u, nil
}

func loadUserLock(tx store.Tx, user string) (UserLock, bool, error) {
	raw, ok, err := tx.Get(store.UserLockedBalanceKey(user))
	if err != nil || !ok {
		return UserLock{}, ok, err
	}
	u, err := decodeUserLock(raw)
	return u, true, err
}

func saveUserLock(tx store.Tx, user string, u UserLock) error {
	if !u.Exists() {
		return tx.Delete(store.UserLockedBalanceKey(user))
	}
	raw, err := encodeUserLock(u)
	if err != nil {
		return err
	}
	return tx.Set(store.UserLockedBalanceKey(user), raw)
}

func snapshotUserLock(tx store.Tx, user string, u UserLock, ts uint64) error {
	raw, err := encodeUserLock(u)
	if err != nil {
		return err
	}
	return tx.Set(store.UserLockHistoryKey(user, ts), raw)
}

func loadUserLockHistoryAtOrBefore(tx store.Tx, user string, ts uint64) (UserLock, bool, error) {
	kvs, err := tx.Iterate(store.UserLockHistoryPrefix(user))
	if err != nil {
		return UserLock{}, false, err
	}
	prefix := store.UserLockHistoryPrefix(user)
	var best []byte
	for _, kv := range kvs {
		snapTS := decodeUint64Suffix(kv.Key, prefix)
		if snapTS > ts {
			break
		}
		best = kv.Value
	}
	if best == nil {
		return UserLock{}, false, nil
	}
	u, err := decodeUserLock(best)
	return u, true, err
}

func loadSlopeChange(tx store.Tx, weekTS uint64) (decimal.Decimal, bool, error) {
	raw, ok, err := tx.Get(store.SlopeChangeKey(weekTS))
	if err != nil || !ok {
		return decimal.Zero(), ok, err
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero(), false, err
	}
	return d, true, nil
}

func addSlopeChange(tx store.Tx, weekTS uint64, delta decimal.Decimal) error {
	existing, _, err := loadSlopeChange(tx, weekTS)
	if err != nil {
		return err
	}
	sum, err := existing.Add(delta)
	if err != nil {
		return ErrOverflow
	}
	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return tx.Set(store.SlopeChangeKey(weekTS), raw)
}

func subSlopeChange(tx store.Tx, weekTS uint64, delta decimal.Decimal) error {
	existing, ok, err := loadSlopeChange(tx, weekTS)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	remaining := subClamp(existing, delta)
	if remaining.IsZero() {
		return tx.Delete(store.SlopeChangeKey(weekTS))
	}
	raw, err := json.Marshal(remaining)
	if err != nil {
		return err
	}
	return tx.Set(store.SlopeChangeKey(weekTS), raw)
}

// decodeUint64Suffix parses the big-endian uint64 that follows prefix in
// key, used to recover a history snapshot's timestamp from its storage key.
func decodeUint64Suffix(key, prefix []byte) uint64 {
	suffix := key[len(prefix):]
	var v uint64
	for _, b := range suffix {
		v = v<<8 | uint64(b)
	}
	return v
}
