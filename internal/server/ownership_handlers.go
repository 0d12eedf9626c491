package server

import (
	"incentives/internal/engine"

	"github.com/gin-gonic/gin"
)

type proposeOwnerRequest struct {
	NewOwner  string `json:"new_owner"`
	ExpiresIn uint64 `json:"expires_in"`
}

// proposeOwnerHandler starts the two-phase ownership handoff.
// @Summary      Propose a new owner
// @Tags         Ownership
// @Accept       json
// @Produce      json
// @Param        request  body  proposeOwnerRequest  true  "proposal"
// @Success      200  {object}  map[string]interface{}
// @Router       /ownership/propose [post]
func (s *Server) proposeOwnerHandler(c *gin.Context) {
	var req proposeOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	resp, err := s.engine.ProposeNewOwner(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c), req.NewOwner, req.ExpiresIn)
	respondEngine(c, resp, err)
}

// dropProposalHandler cancels a pending ownership proposal.
// @Summary      Drop the pending ownership proposal
// @Tags         Ownership
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ownership/drop [post]
func (s *Server) dropProposalHandler(c *gin.Context) {
	resp, err := s.engine.DropOwnershipProposal(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c))
	respondEngine(c, resp, err)
}

// claimOwnershipHandler completes the ownership handoff for the proposed
// new owner.
// @Summary      Claim ownership
// @Tags         Ownership
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /ownership/claim [post]
func (s *Server) claimOwnershipHandler(c *gin.Context) {
	resp, err := s.engine.ClaimOwnership(engine.NewOpContext(c.Request.Context(), s.now(c)), s.caller(c))
	respondEngine(c, resp, err)
}
