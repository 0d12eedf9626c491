package engine

import (
	"context"
	"testing"

	"incentives/internal/assets"
	"incentives/internal/decimal"
	"incentives/internal/store"
)

// fakeFactory is a minimal FactoryGateway double for tests: every pool is
// registered and no pair type is blacklisted unless the test says so.
type fakeFactory struct {
	registered map[string]bool
	pairAssets map[string][]assets.ID
	pairType   map[string]string
	blacklist  map[string]bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		registered: make(map[string]bool),
		pairAssets: make(map[string][]assets.ID),
		pairType:   make(map[string]string),
		blacklist:  make(map[string]bool),
	}
}

func (f *fakeFactory) register(pool assets.ID, pairType string, underlying ...assets.ID) {
	key := string(pool.Bytes())
	f.registered[key] = true
	f.pairType[key] = pairType
	f.pairAssets[key] = underlying
}

func (f *fakeFactory) IsRegisteredPair(ctx context.Context, lp assets.ID) (bool, error) {
	return f.registered[string(lp.Bytes())], nil
}

func (f *fakeFactory) PairAssets(ctx context.Context, lp assets.ID) ([]assets.ID, error) {
	return f.pairAssets[string(lp.Bytes())], nil
}

func (f *fakeFactory) PairType(ctx context.Context, lp assets.ID) (string, error) {
	return f.pairType[string(lp.Bytes())], nil
}

func (f *fakeFactory) BlacklistedPairTypes(ctx context.Context) (map[string]bool, error) {
	return f.blacklist, nil
}

func newTestEngine(t *testing.T, owner, factoryAddr string, protocolAsset assets.ID) (*Engine, *fakeFactory) {
	t.Helper()
	s := store.NewMemStore()
	factory := newFakeFactory()
	eng := New(s, factory)

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		return saveConfig(tx, &GlobalConfig{
			Owner:             owner,
			Factory:           factoryAddr,
			ProtocolAsset:     protocolAsset,
			ProtocolPerSecond: decimal.AmountFromUint64(1000),
			TotalAllocPoints:  decimal.ZeroAmount(),
		})
	})
	if err != nil {
		t.Fatalf("seed config: %v", err)
	}
	return eng, factory
}
