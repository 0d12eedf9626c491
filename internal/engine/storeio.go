package engine

import (
	"encoding/json"
	"fmt"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/schedule"
	"incentives/internal/store"
)

// rewardSlotDTO and poolStateDTO mirror RewardSlot/PoolState for JSON
// persistence; RewardRef.Asset needs its Kind alongside RefKind so the
// round trip is unambiguous.
type rewardSlotDTO struct {
	RefKind  RefKind             `json:"ref_kind"`
	Asset    assets.ID           `json:"asset"`
	RPS      json.RawMessage     `json:"rps"`
	Index    json.RawMessage     `json:"index"`
	Orphaned json.RawMessage     `json:"orphaned"`
	NextTS   *uint64             `json:"next_update_ts,omitempty"`
	Queue    []schedule.Schedule `json:"queue,omitempty"`
}

type poolStateDTO struct {
	Pool         assets.ID       `json:"pool"`
	TotalStaked  json.RawMessage `json:"total_staked"`
	LastUpdateTS uint64          `json:"last_update_ts"`
	Rewards      []rewardSlotDTO `json:"rewards"`
}

func encodePoolState(p *PoolState) ([]byte, error) {
	dto := poolStateDTO{Pool: p.Pool, LastUpdateTS: p.LastUpdateTS}
	staked, err := json.Marshal(p.TotalStaked)
	if err != nil {
		return nil, err
	}
	dto.TotalStaked = staked

	for _, s := range p.Rewards {
		rps, err := json.Marshal(s.RPS)
		if err != nil {
			return nil, err
		}
		index, err := json.Marshal(s.Index)
		if err != nil {
			return nil, err
		}
		orphaned, err := json.Marshal(s.Orphaned)
		if err != nil {
			return nil, err
		}
		dto.Rewards = append(dto.Rewards, rewardSlotDTO{
			RefKind:  s.Ref.Kind,
			Asset:    s.Ref.Asset,
			RPS:      rps,
			Index:    index,
			Orphaned: orphaned,
			NextTS:   s.NextUpdateTS,
			Queue:    s.Queue,
		})
	}
	return json.Marshal(dto)
}

func decodePoolState(data []byte) (*PoolState, error) {
	var dto poolStateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("engine: decode pool state: %w", err)
	}
	p := &PoolState{Pool: dto.Pool, LastUpdateTS: dto.LastUpdateTS}
	if err := json.Unmarshal(dto.TotalStaked, &p.TotalStaked); err != nil {
		return nil, err
	}
	for _, sDTO := range dto.Rewards {
		slot := &RewardSlot{
			Ref:          RewardRef{Kind: sDTO.RefKind, Asset: sDTO.Asset},
			NextUpdateTS: sDTO.NextTS,
			Queue:        sDTO.Queue,
		}
		if err := json.Unmarshal(sDTO.RPS, &slot.RPS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sDTO.Index, &slot.Index); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(sDTO.Orphaned, &slot.Orphaned); err != nil {
			return nil, err
		}
		p.Rewards = append(p.Rewards, slot)
	}
	return p, nil
}

func loadPool(tx store.Tx, pool assets.ID) (*PoolState, bool, error) {
	raw, ok, err := tx.Get(store.PoolInfoKey(pool))
	if err != nil || !ok {
		return nil, ok, err
	}
	p, err := decodePoolState(raw)
	return p, true, err
}

func savePool(tx store.Tx, p *PoolState) error {
	raw, err := encodePoolState(p)
	if err != nil {
		return err
	}
	return tx.Set(store.PoolInfoKey(p.Pool), raw)
}

type userPositionDTO struct {
	User      string                     `json:"user"`
	Pool      assets.ID                  `json:"pool"`
	Amount    json.RawMessage            `json:"amount"`
	Snapshots map[string]json.RawMessage `json:"snapshots"`
}

func encodeUserPosition(u *UserPosition) ([]byte, error) {
	amount, err := json.Marshal(u.Amount)
	if err != nil {
		return nil, err
	}
	dto := userPositionDTO{User: u.User, Pool: u.Pool, Amount: amount, Snapshots: make(map[string]json.RawMessage, len(u.Snapshots))}
	for k, v := range u.Snapshots {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		dto.Snapshots[k] = raw
	}
	return json.Marshal(dto)
}

func decodeUserPosition(data []byte) (*UserPosition, error) {
	var dto userPositionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("engine: decode user position: %w", err)
	}
	u := &UserPosition{User: dto.User, Pool: dto.Pool, Snapshots: make(map[string]decimal.Decimal, len(dto.Snapshots))}
	if err := json.Unmarshal(dto.Amount, &u.Amount); err != nil {
		return nil, err
	}
	for k, raw := range dto.Snapshots {
		var v decimal.Decimal
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		u.Snapshots[k] = v
	}
	return u, nil
}

func loadUser(tx store.Tx, user string, pool assets.ID) (*UserPosition, bool, error) {
	raw, ok, err := tx.Get(store.UserInfoKey(user, pool))
	if err != nil || !ok {
		return nil, ok, err
	}
	u, err := decodeUserPosition(raw)
	return u, true, err
}

func saveUser(tx store.Tx, u *UserPosition) error {
	if u.IsEmpty() {
		return tx.Delete(store.UserInfoKey(u.User, u.Pool))
	}
	raw, err := encodeUserPosition(u)
	if err != nil {
		return err
	}
	return tx.Set(store.UserInfoKey(u.User, u.Pool), raw)
}

type configDTO struct {
	Owner               string              `json:"owner"`
	GeneratorController string              `json:"generator_controller,omitempty"`
	Factory             string              `json:"factory"`
	Trader              string              `json:"trader,omitempty"`
	ProtocolAsset       assets.ID           `json:"protocol_asset"`
	ProtocolPerSecond   json.RawMessage     `json:"protocol_per_second"`
	TotalAllocPoints    json.RawMessage     `json:"total_alloc_points"`
	IncentivizationFee  *incentivizationFeeDTO `json:"incentivization_fee,omitempty"`
}

type incentivizationFeeDTO struct {
	Asset    assets.ID       `json:"asset"`
	Amount   json.RawMessage `json:"amount"`
	Receiver string          `json:"receiver"`
}

func loadConfig(tx store.Tx) (*GlobalConfig, error) {
	raw, ok, err := tx.Get(store.KeyConfig)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("engine: config not initialized")
	}
	var dto configDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("engine: decode config: %w", err)
	}
	cfg := &GlobalConfig{
		Owner:               dto.Owner,
		GeneratorController: dto.GeneratorController,
		Factory:             dto.Factory,
		Trader:              dto.Trader,
		ProtocolAsset:       dto.ProtocolAsset,
	}
	if err := json.Unmarshal(dto.ProtocolPerSecond, &cfg.ProtocolPerSecond); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dto.TotalAllocPoints, &cfg.TotalAllocPoints); err != nil {
		return nil, err
	}
	if dto.IncentivizationFee != nil {
		fee := &IncentivizationFee{Asset: dto.IncentivizationFee.Asset, Receiver: dto.IncentivizationFee.Receiver}
		if err := json.Unmarshal(dto.IncentivizationFee.Amount, &fee.Amount); err != nil {
			return nil, err
		}
		cfg.IncentivizationFee = fee
	}
	return cfg, nil
}

func saveConfig(tx store.Tx, cfg *GlobalConfig) error {
	perSecond, err := json.Marshal(cfg.ProtocolPerSecond)
	if err != nil {
		return err
	}
	totalAlloc, err := json.Marshal(cfg.TotalAllocPoints)
	if err != nil {
		return err
	}
	dto := configDTO{
		Owner:               cfg.Owner,
		GeneratorController: cfg.GeneratorController,
		Factory:             cfg.Factory,
		Trader:              cfg.Trader,
		ProtocolAsset:       cfg.ProtocolAsset,
		ProtocolPerSecond:   perSecond,
		TotalAllocPoints:    totalAlloc,
	}
	if cfg.IncentivizationFee != nil {
		amount, err := json.Marshal(cfg.IncentivizationFee.Amount)
		if err != nil {
			return err
		}
		dto.IncentivizationFee = &incentivizationFeeDTO{
			Asset:    cfg.IncentivizationFee.Asset,
			Amount:   amount,
			Receiver: cfg.IncentivizationFee.Receiver,
		}
	}
	raw, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	return tx.Set(store.KeyConfig, raw)
}

type activePoolEntryDTO struct {
	Pool        assets.ID       `json:"pool"`
	AllocPoints json.RawMessage `json:"alloc_points"`
}

func loadActivePools(tx store.Tx) ([]ActivePoolEntry, error) {
	kvs, err := tx.Iterate(store.PrefixActivePools)
	if err != nil {
		return nil, err
	}
	out := make([]ActivePoolEntry, 0, len(kvs))
	for _, kv := range kvs {
		var dto activePoolEntryDTO
		if err := json.Unmarshal(kv.Value, &dto); err != nil {
			return nil, fmt.Errorf("engine: decode active pool entry: %w", err)
		}
		var alloc decimal.Amount
		if err := json.Unmarshal(dto.AllocPoints, &alloc); err != nil {
			return nil, err
		}
		out = append(out, ActivePoolEntry{Pool: dto.Pool, AllocPoints: alloc})
	}
	return out, nil
}

// replaceActivePools atomically clears and rewrites the active set.
func replaceActivePools(tx store.Tx, entries []ActivePoolEntry) error {
	existing, err := tx.Iterate(store.PrefixActivePools)
	if err != nil {
		return err
	}
	for _, kv := range existing {
		if err := tx.Delete(kv.Key); err != nil {
			return err
		}
	}
	for _, e := range entries {
		alloc, err := json.Marshal(e.AllocPoints)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(activePoolEntryDTO{Pool: e.Pool, AllocPoints: alloc})
		if err != nil {
			return err
		}
		key := append(append([]byte{}, store.PrefixActivePools...), e.Pool.Bytes()...)
		if err := tx.Set(key, raw); err != nil {
			return err
		}
	}
	return nil
}

func isBlockedToken(tx store.Tx, asset assets.ID) (bool, error) {
	_, ok, err := tx.Get(store.BlockedTokenKey(asset))
	return ok, err
}

func setBlockedToken(tx store.Tx, asset assets.ID, blocked bool) error {
	key := store.BlockedTokenKey(asset)
	if blocked {
		return tx.Set(key, []byte("true"))
	}
	return tx.Delete(key)
}

func addOrphanedReward(tx store.Tx, asset assets.ID, amount decimal.Amount) error {
	key := store.OrphanedRewardKey(asset)
	raw, ok, err := tx.Get(key)
	if err != nil {
		return err
	}
	existing := decimal.ZeroAmount()
	if ok {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}
	}
	sum, err := existing.Add(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	encoded, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return tx.Set(key, encoded)
}

// orphanedRewardEntry is one (asset, amount) row of the global orphan
// bucket, used by ClaimOrphanedRewards pagination.
type orphanedRewardEntry struct {
	Asset  assets.ID
	Amount decimal.Amount
}

// listOrphanedRewards returns up to limit orphan-bucket entries in key
// order.
func listOrphanedRewards(tx store.Tx, limit int) ([]orphanedRewardEntry, error) {
	kvs, err := tx.Iterate(store.PrefixOrphanedRewards)
	if err != nil {
		return nil, err
	}
	out := make([]orphanedRewardEntry, 0, limit)
	for _, kv := range kvs {
		if len(out) >= limit {
			break
		}
		asset, err := assets.FromBytes(kv.Key[len(store.PrefixOrphanedRewards):])
		if err != nil {
			return nil, fmt.Errorf("engine: decode orphaned reward key: %w", err)
		}
		var amount decimal.Amount
		if err := json.Unmarshal(kv.Value, &amount); err != nil {
			return nil, err
		}
		out = append(out, orphanedRewardEntry{Asset: asset, Amount: amount})
	}
	return out, nil
}

func drainOrphanedReward(tx store.Tx, asset assets.ID) (decimal.Amount, error) {
	key := store.OrphanedRewardKey(asset)
	raw, ok, err := tx.Get(key)
	if err != nil || !ok {
		return decimal.ZeroAmount(), err
	}
	var amount decimal.Amount
	if err := json.Unmarshal(raw, &amount); err != nil {
		return decimal.ZeroAmount(), err
	}
	return amount, tx.Delete(key)
}

type ownershipProposalDTO struct {
	ProposedOwner string `json:"proposed_owner"`
	ExpiresAt     uint64 `json:"expires_at"`
}

func loadOwnershipProposal(tx store.Tx) (*OwnershipProposal, bool, error) {
	raw, ok, err := tx.Get(store.KeyOwnershipProposal)
	if err != nil || !ok {
		return nil, ok, err
	}
	var dto ownershipProposalDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, false, err
	}
	return &OwnershipProposal{ProposedOwner: dto.ProposedOwner, ExpiresAt: dto.ExpiresAt}, true, nil
}

func saveOwnershipProposal(tx store.Tx, p *OwnershipProposal) error {
	raw, err := json.Marshal(ownershipProposalDTO{ProposedOwner: p.ProposedOwner, ExpiresAt: p.ExpiresAt})
	if err != nil {
		return err
	}
	return tx.Set(store.KeyOwnershipProposal, raw)
}

func deleteOwnershipProposal(tx store.Tx) error {
	return tx.Delete(store.KeyOwnershipProposal)
}
