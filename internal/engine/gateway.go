package engine

import (
	"context"

	"incentives/internal/assets"
)

// FactoryGateway is the thin external collaborator standing in for the
// factory/pair-registry contract: pool registration and pair-type
// blacklisting are authoritative there, not in this engine. Message
// serialization and the actual query wire format are out of scope; this
// interface is the boundary between the two.
type FactoryGateway interface {
	// IsRegisteredPair reports whether lp is a known LP token for a pair the
	// factory recognizes.
	IsRegisteredPair(ctx context.Context, lp assets.ID) (bool, error)
	// PairAssets returns the underlying assets of the pair lp represents,
	// used when evicting pools that contain a newly blocked token.
	PairAssets(ctx context.Context, lp assets.ID) ([]assets.ID, error)
	// PairType returns the factory's classification for lp (e.g. "xyk",
	// "stable", "custom-<name>").
	PairType(ctx context.Context, lp assets.ID) (string, error)
	// BlacklistedPairTypes returns the set of pair types the factory
	// currently forbids from earning incentives.
	BlacklistedPairTypes(ctx context.Context) (map[string]bool, error)
}
