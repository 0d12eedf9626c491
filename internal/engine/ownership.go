package engine

import "fmt"

// MaxProposalTTL bounds how far in the future an ownership proposal may
// expire, in seconds.
const MaxProposalTTL uint64 = 1_209_600

// ProposeNewOwner starts the two-phase ownership handoff. Only the current
// owner may call it; re-proposing the already-proposed address, or
// requesting an expiry beyond MaxProposalTTL, is rejected.
func (e *Engine) ProposeNewOwner(ctx opContext, caller string, newOwner string, expiresIn uint64) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}
		if expiresIn > MaxProposalTTL {
			return nil, ErrProposalTTLTooLong
		}
		if newOwner == cfg.Owner {
			return nil, ErrSameOwnerProposed
		}
		existing, ok, err := tx.loadOwnershipProposal()
		if err != nil {
			return nil, err
		}
		if ok && existing.ProposedOwner == newOwner {
			return nil, ErrSameOwnerProposed
		}
		proposal := &OwnershipProposal{ProposedOwner: newOwner, ExpiresAt: ctx.now + expiresIn}
		if err := tx.saveOwnershipProposal(proposal); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// DropOwnershipProposal cancels a pending proposal, current owner only.
func (e *Engine) DropOwnershipProposal(ctx opContext, caller string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		if caller != cfg.Owner {
			return nil, ErrUnauthorized
		}
		if _, ok, err := tx.loadOwnershipProposal(); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrNoProposal
		}
		if err := tx.deleteOwnershipProposal(); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}

// ClaimOwnership completes the handoff: only the proposed owner may call
// it, and only before the proposal expires.
func (e *Engine) ClaimOwnership(ctx opContext, caller string) (*Response, error) {
	return e.withTx(ctx, func(tx *txScope) (*Response, error) {
		cfg, err := tx.loadConfig()
		if err != nil {
			return nil, err
		}
		proposal, ok, err := tx.loadOwnershipProposal()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoProposal
		}
		if caller != proposal.ProposedOwner {
			return nil, ErrUnauthorized
		}
		if ctx.now > proposal.ExpiresAt {
			return nil, fmt.Errorf("%w: expired at %d, now %d", ErrProposalExpired, proposal.ExpiresAt, ctx.now)
		}
		cfg.Owner = proposal.ProposedOwner
		if err := tx.saveConfig(cfg); err != nil {
			return nil, err
		}
		if err := tx.deleteOwnershipProposal(); err != nil {
			return nil, err
		}
		return &Response{}, nil
	})
}
