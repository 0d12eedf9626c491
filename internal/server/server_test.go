package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"incentives/internal/assets"
	"incentives/internal/config"
	"incentives/internal/engine"
	"incentives/internal/lock"
	"incentives/internal/store"

	"github.com/gin-gonic/gin"
)

type stubFactory struct{}

func (stubFactory) IsRegisteredPair(ctx context.Context, lp assets.ID) (bool, error) { return true, nil }
func (stubFactory) PairAssets(ctx context.Context, lp assets.ID) ([]assets.ID, error) {
	return nil, nil
}
func (stubFactory) PairType(ctx context.Context, lp assets.ID) (string, error) { return "xyk", nil }
func (stubFactory) BlacklistedPairTypes(ctx context.Context) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := engine.New(store.NewMemStore(), stubFactory{})
	lockEng := lock.New(store.NewMemStore(), nil)
	cfg := config.DefaultConfig()
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	cfg.EnableSwagger = false

	return NewServer(cfg, eng, lockEng, "")
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestActivePoolsHandlerEmpty(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pools/active", nil)
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCreateLockHandler(t *testing.T) {
	s := newTestServer(t)

	body := `{"amount":"1000000000000000000","end_lock_time":1700000000}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lock?now=1690000000&caller=alice", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}
