package server

import (
	"context"
	"math/big"

	"incentives/internal/assets"
	"incentives/internal/engine"
)

const secondsPerYear = 365 * 24 * 60 * 60

// PoolAPR summarizes one reward stream's annualized yield against a pool's
// current total staked amount.
type PoolAPR struct {
	Reward      string  `json:"reward"`
	AprPercent  float64 `json:"apr_percent"`
	RpsPerYear  string  `json:"rps_per_year"`
	TotalStaked string  `json:"total_staked"`
}

// estimatePoolAPR computes a simple per-reward-stream APR estimate: each
// live slot's current reward-per-second rate, annualized and divided by the
// pool's total staked amount. It does not account for upcoming queued
// schedules or orphaned-rewards catch-up, only the rate in effect right
// now - a point-in-time estimate, not a forecast.
func (s *Server) estimatePoolAPR(ctx context.Context, pool assets.ID) ([]PoolAPR, error) {
	state, ok, err := s.engine.Pool(ctx, pool)
	if err != nil {
		return nil, err
	}
	if !ok || state.TotalStaked.IsZero() {
		return nil, nil
	}

	totalStaked := new(big.Float).SetInt(state.TotalStaked.Uint256().ToBig())

	out := make([]PoolAPR, 0, len(state.Rewards))
	for _, slot := range state.Rewards {
		if slot.RPS.IsZero() {
			continue
		}
		label := slot.Ref.Asset.String()
		if slot.Ref.Kind == engine.RefProtocol {
			label = "protocol:" + label
		}

		rpsYear := new(big.Float).SetInt(slot.RPS.Mantissa().ToBig())
		rpsYear.Mul(rpsYear, big.NewFloat(secondsPerYear))
		scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
		rpsYear.Quo(rpsYear, scale)

		apr := new(big.Float).Quo(rpsYear, totalStaked)
		apr.Mul(apr, big.NewFloat(100))
		aprFloat, _ := apr.Float64()

		out = append(out, PoolAPR{
			Reward:      label,
			AprPercent:  aprFloat,
			RpsPerYear:  rpsYear.Text('f', 0),
			TotalStaked: state.TotalStaked.String(),
		})
	}
	return out, nil
}
