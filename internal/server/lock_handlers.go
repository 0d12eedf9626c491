package server

import (
	"net/http"

	"incentives/internal/decimal"

	"github.com/gin-gonic/gin"
)

type createLockRequest struct {
	Amount      decimal.Amount `json:"amount"`
	EndLockTime uint64         `json:"end_lock_time"`
}

// createLockHandler opens a new lock for the caller.
// @Summary      Create a vote lock
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        request  body  createLockRequest  true  "lock"
// @Success      200  {object}  map[string]interface{}
// @Router       /lock [post]
func (s *Server) createLockHandler(c *gin.Context) {
	var req createLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.lockEngine.CreateLock(ctx, s.caller(c), req.Amount, req.EndLockTime, s.now(c)); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type increaseLockAmountRequest struct {
	Extra decimal.Amount `json:"extra"`
}

// increaseLockAmountHandler adds to the caller's live lock.
// @Summary      Increase a vote lock's deposit
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        request  body  increaseLockAmountRequest  true  "extra deposit"
// @Success      200  {object}  map[string]interface{}
// @Router       /lock/increase-amount [post]
func (s *Server) increaseLockAmountHandler(c *gin.Context) {
	var req increaseLockAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.lockEngine.IncreaseLockAmount(ctx, s.caller(c), req.Extra, s.now(c)); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type increaseEndLockTimeRequest struct {
	EndLockTime uint64 `json:"end_lock_time"`
}

// increaseEndLockTimeHandler extends the caller's live lock to a later end
// time.
// @Summary      Extend a vote lock's end time
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        request  body  increaseEndLockTimeRequest  true  "new end time"
// @Success      200  {object}  map[string]interface{}
// @Router       /lock/increase-end-time [post]
func (s *Server) increaseEndLockTimeHandler(c *gin.Context) {
	var req increaseEndLockTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.lockEngine.IncreaseEndLockTime(ctx, s.caller(c), req.EndLockTime, s.now(c)); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// withdrawLockHandler pays out the caller's decayed (or, past end time,
// entire) lock balance.
// @Summary      Withdraw from a vote lock
// @Tags         Lock
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /lock/withdraw [post]
func (s *Server) withdrawLockHandler(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	payout, err := s.lockEngine.Withdraw(ctx, s.caller(c), s.now(c))
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payout": payout.String()})
}

// lockCheckpointHandler advances the global lock accumulator without an
// associated user event.
// @Summary      Checkpoint the global lock accumulator
// @Tags         Lock
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /lock/checkpoint [post]
func (s *Server) lockCheckpointHandler(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.lockEngine.Checkpoint(ctx, s.now(c)); err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userLockHandler returns a user's current lock record.
// @Summary      Get a user's vote lock
// @Tags         Lock
// @Produce      json
// @Param        user  path  string  true  "user address"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /lock/{user} [get]
func (s *Server) userLockHandler(c *gin.Context) {
	user := c.Param("user")
	ctx, cancel := s.requestContext(c)
	defer cancel()
	lock, ok, err := s.lockEngine.UserLock(ctx, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no lock for this user"})
		return
	}
	power, err := lock.VotingPower(s.now(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deposit":         lock.Deposit.String(),
		"start_lock_time": lock.StartLockTime,
		"end_lock_time":   lock.EndLockTime,
		"voting_power":    power.String(),
	})
}

// lockGlobalStateHandler returns the process-wide lock accumulator as of
// its last checkpoint.
// @Summary      Get the global lock accumulator
// @Tags         Lock
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /lock/global/state [get]
func (s *Server) lockGlobalStateHandler(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	state, err := s.lockEngine.GlobalState(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := state.EvaluateLockedBalance(state.LastCheckpointTS)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_checkpoint_ts": state.LastCheckpointTS,
		"total_deposit":      state.TotalDeposit.String(),
		"total_locked":       total.String(),
	})
}
