package main

import (
	"context"

	"incentives/internal/assets"
	"incentives/internal/engine"
	"incentives/internal/lock"
)

// passthroughFactoryGateway is the default FactoryGateway wiring: it
// recognizes any pool as registered and reports no blacklisted pair types.
// A real deployment replaces this with a client against the chain's factory
// contract; the wire format for that query is out of scope here, per
// engine.FactoryGateway's own doc comment.
type passthroughFactoryGateway struct {
	address string
}

func newChainFactoryGateway(address string) engine.FactoryGateway {
	return passthroughFactoryGateway{address: address}
}

func (g passthroughFactoryGateway) IsRegisteredPair(ctx context.Context, lp assets.ID) (bool, error) {
	return true, nil
}

func (g passthroughFactoryGateway) PairAssets(ctx context.Context, lp assets.ID) ([]assets.ID, error) {
	return nil, nil
}

func (g passthroughFactoryGateway) PairType(ctx context.Context, lp assets.ID) (string, error) {
	return "xyk", nil
}

func (g passthroughFactoryGateway) BlacklistedPairTypes(ctx context.Context) (map[string]bool, error) {
	return map[string]bool{}, nil
}

// noContractChecker treats every caller as an externally-owned account. A
// real deployment replaces this with a check against the chain's account
// type (e.g. code-hash lookup); locking from a contract address remains
// guarded at the lock.Engine boundary via lock.ContractChecker.
type noContractChecker struct{}

func newChainContractChecker() lock.ContractChecker {
	return noContractChecker{}
}

func (noContractChecker) IsContract(ctx context.Context, address string) (bool, error) {
	return false, nil
}
