package server

import (
	"errors"
	"net/http"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/engine"
	"incentives/internal/lock"

	"github.com/gin-gonic/gin"
)

type poolAllocationRequest struct {
	Pool        assets.ID      `json:"pool"`
	AllocPoints decimal.Amount `json:"alloc_points"`
}

type setupPoolsRequest struct {
	Entries []poolAllocationRequest `json:"entries"`
}

// setupPoolsHandler replaces the active pool set.
// @Summary      Replace the active pool set
// @Tags         Pools
// @Accept       json
// @Produce      json
// @Param        request  body  setupPoolsRequest  true  "active set"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /pools/setup [post]
func (s *Server) setupPoolsHandler(c *gin.Context) {
	var req setupPoolsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	entries := make([]engine.PoolAllocation, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = engine.PoolAllocation{Pool: e.Pool, AllocPoints: e.AllocPoints}
	}

	resp, err := s.engine.SetupPools(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), entries)
	respondEngine(c, resp, err)
}

type setTokensPerSecondRequest struct {
	PerSecond decimal.Amount `json:"per_second"`
}

// setTokensPerSecondHandler sets the process-wide protocol emission rate.
// @Summary      Set the protocol emission rate
// @Tags         Pools
// @Accept       json
// @Produce      json
// @Param        request  body  setTokensPerSecondRequest  true  "new rate"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/tokens-per-second [post]
func (s *Server) setTokensPerSecondHandler(c *gin.Context) {
	var req setTokensPerSecondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.SetTokensPerSecond(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.PerSecond)
	respondEngine(c, resp, err)
}

type poolRequest struct {
	Pool assets.ID `json:"pool"`
}

// deactivatePoolHandler removes one pool from the active set.
// @Summary      Deactivate a pool
// @Tags         Pools
// @Accept       json
// @Produce      json
// @Param        request  body  poolRequest  true  "pool"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/deactivate [post]
func (s *Server) deactivatePoolHandler(c *gin.Context) {
	var req poolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.DeactivatePool(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.Pool)
	respondEngine(c, resp, err)
}

// deactivateBlockedPoolsHandler reconciles the active set against the
// current blocklist.
// @Summary      Evict every active pool that touches a blocked token
// @Tags         Pools
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/deactivate-blocked [post]
func (s *Server) deactivateBlockedPoolsHandler(c *gin.Context) {
	resp, err := s.engine.DeactivateBlockedPools(engine.NewOpContext(c.Request.Context(), s.now(c)))
	respondEngine(c, resp, err)
}

// activePoolsHandler lists the current active set.
// @Summary      List the active pool set
// @Tags         Pools
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/active [get]
func (s *Server) activePoolsHandler(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	entries, err := s.engine.ActivePools(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_pools": entries})
}

// poolStateHandler returns a pool's current accounting state.
// @Summary      Get a pool's accounting state
// @Tags         Pools
// @Produce      json
// @Param        kind     query  int     true  "asset kind: 0 native, 1 contract"
// @Param        payload  query  string  true  "asset payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /pools/state [get]
func (s *Server) poolStateHandler(c *gin.Context) {
	pool, err := assetFromQuery(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	state, ok, err := s.engine.Pool(ctx, pool)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pool not found"})
		return
	}
	label, _ := s.lookupPoolLabel(pool.String())
	c.JSON(http.StatusOK, gin.H{"pool": state, "label": label})
}

// poolAPRHandler estimates the pool's current per-reward-stream APR.
// @Summary      Estimate a pool's current APR per reward stream
// @Tags         Pools
// @Produce      json
// @Param        kind     query  int     true  "asset kind: 0 native, 1 contract"
// @Param        payload  query  string  true  "asset payload"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/apr [get]
func (s *Server) poolAPRHandler(c *gin.Context) {
	pool, err := assetFromQuery(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	aprs, err := s.estimatePoolAPR(ctx, pool)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": pool.String(), "apr": aprs})
}

type depositWithdrawRequest struct {
	Pool        assets.ID      `json:"pool"`
	Amount      decimal.Amount `json:"amount"`
	OnBehalfOf  string         `json:"on_behalf_of"`
}

// depositHandler stakes LP tokens into a pool.
// @Summary      Deposit into a pool
// @Tags         Staking
// @Accept       json
// @Produce      json
// @Param        request  body  depositWithdrawRequest  true  "deposit"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/deposit [post]
func (s *Server) depositHandler(c *gin.Context) {
	var req depositWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.Deposit(engine.NewOpContext(c.Request.Context(), s.now(c)), req.Pool, s.caller(c), req.Amount, req.OnBehalfOf)
	respondEngine(c, resp, err)
}

// withdrawHandler unstakes LP tokens from a pool.
// @Summary      Withdraw from a pool
// @Tags         Staking
// @Accept       json
// @Produce      json
// @Param        request  body  depositWithdrawRequest  true  "withdraw"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/withdraw [post]
func (s *Server) withdrawHandler(c *gin.Context) {
	var req depositWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.Withdraw(engine.NewOpContext(c.Request.Context(), s.now(c)), req.Pool, s.caller(c), req.Amount, req.OnBehalfOf)
	respondEngine(c, resp, err)
}

type fundRequest struct {
	Asset  assets.ID      `json:"asset"`
	Amount decimal.Amount `json:"amount"`
}

type incentivizeRequest struct {
	Pool            assets.ID      `json:"pool"`
	RewardAsset     assets.ID      `json:"reward_asset"`
	RewardAmount    decimal.Amount `json:"reward_amount"`
	DurationPeriods uint64         `json:"duration_periods"`
	Funds           []fundRequest  `json:"funds"`
}

// incentivizeHandler registers or extends an external reward stream.
// @Summary      Incentivize a pool with an external reward
// @Tags         Rewards
// @Accept       json
// @Produce      json
// @Param        request  body  incentivizeRequest  true  "incentivize"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/incentivize [post]
func (s *Server) incentivizeHandler(c *gin.Context) {
	var req incentivizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	funds := make([]engine.Fund, len(req.Funds))
	for i, f := range req.Funds {
		funds[i] = engine.Fund{Asset: f.Asset, Amount: f.Amount}
	}
	resp, err := s.engine.Incentivize(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.Pool, req.RewardAsset, req.RewardAmount, req.DurationPeriods, funds)
	respondEngine(c, resp, err)
}

type removeRewardRequest struct {
	Pool           assets.ID `json:"pool"`
	Reward         assets.ID `json:"reward"`
	BypassUpcoming bool      `json:"bypass_upcoming"`
	Receiver       string    `json:"receiver"`
}

// removeRewardHandler removes an external reward slot and pays its
// unclaimed balance to receiver.
// @Summary      Remove an external reward from a pool
// @Tags         Rewards
// @Accept       json
// @Produce      json
// @Param        request  body  removeRewardRequest  true  "remove reward"
// @Success      200  {object}  map[string]interface{}
// @Router       /pools/remove-reward [post]
func (s *Server) removeRewardHandler(c *gin.Context) {
	var req removeRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.RemoveRewardFromPool(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.Pool, req.Reward, req.BypassUpcoming, req.Receiver)
	respondEngine(c, resp, err)
}

type blockedTokensRequest struct {
	Add    []assets.ID `json:"add"`
	Remove []assets.ID `json:"remove"`
}

// updateBlockedTokensHandler updates the global token blocklist.
// @Summary      Update the blocked-token list
// @Tags         Pools
// @Accept       json
// @Produce      json
// @Param        request  body  blockedTokensRequest  true  "blocklist delta"
// @Success      200  {object}  map[string]interface{}
// @Router       /blocked-tokens [post]
func (s *Server) updateBlockedTokensHandler(c *gin.Context) {
	var req blockedTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.UpdateBlockedTokensList(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.Add, req.Remove)
	respondEngine(c, resp, err)
}

type claimRewardsRequest struct {
	Pools      []assets.ID `json:"pools"`
	OnBehalfOf string      `json:"on_behalf_of"`
}

// claimRewardsHandler claims accrued rewards across one or more pools.
// @Summary      Claim rewards across pools
// @Tags         Rewards
// @Accept       json
// @Produce      json
// @Param        request  body  claimRewardsRequest  true  "pools to claim"
// @Success      200  {object}  map[string]interface{}
// @Router       /rewards/claim [post]
func (s *Server) claimRewardsHandler(c *gin.Context) {
	var req claimRewardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.ClaimRewards(engine.NewOpContext(c.Request.Context(), s.now(c)), req.Pools, s.caller(c), req.OnBehalfOf)
	respondEngine(c, resp, err)
}

type claimOrphanedRewardsRequest struct {
	Limit    int    `json:"limit"`
	Receiver string `json:"receiver"`
}

// claimOrphanedRewardsHandler drains the global orphan bucket to receiver.
// @Summary      Claim orphaned rewards
// @Tags         Rewards
// @Accept       json
// @Produce      json
// @Param        request  body  claimOrphanedRewardsRequest  true  "claim orphaned"
// @Success      200  {object}  map[string]interface{}
// @Router       /orphaned-rewards/claim [post]
func (s *Server) claimOrphanedRewardsHandler(c *gin.Context) {
	var req claimOrphanedRewardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.ClaimOrphanedRewards(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.Limit, req.Receiver)
	respondEngine(c, resp, err)
}

// statusForError maps a sentinel error from the engine or lock packages to
// the HTTP status that reflects its kind: authorization failures are 403,
// missing resources are 404, numeric overflow is 500, and everything else
// (request validation) is 400.
func statusForError(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorized), errors.Is(err, lock.ErrContractForbidden):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrPoolNotRegistered),
		errors.Is(err, engine.ErrNoOrphanedRewards),
		errors.Is(err, engine.ErrNoProposal),
		errors.Is(err, lock.ErrLockDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrOverflow), errors.Is(err, lock.ErrOverflow):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func respondEngine(c *gin.Context, resp *engine.Response, err error) {
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"out_msgs": resp.OutMsgs})
}

// respondEngineError reports an error from the lock engine, which has no
// Response payload to echo back on success.
func respondEngineError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func assetFromQuery(c *gin.Context) (assets.ID, error) {
	kind := c.Query("kind")
	payload := c.Query("payload")
	if kind == "0" {
		return assets.Native(payload)
	}
	return assets.Contract(payload)
}
