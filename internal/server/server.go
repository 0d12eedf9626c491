// Package server exposes the reward and lock engines over HTTP: one route
// per operation in the engine's public surface, wrapped in the same
// logging, rate-limiting, and recovery middleware stack regardless of
// which engine a route talks to.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"incentives/internal/config"
	"incentives/internal/engine"
	"incentives/internal/lock"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Incentives Engine API
// @version         1.0
// @description     REST API for the LP staking reward engine and the time-weighted vote-lock engine.
// @BasePath        /
// @schemes         http https
// @produce         json
// @consumes        json

// Server is the HTTP front for Engine and the lock Engine.
type Server struct {
	config     *config.Config
	engine     *engine.Engine
	lockEngine *lock.Engine
	router     *gin.Engine
	httpServer *http.Server
	poolLabels map[string]string
	rateLimit  *ipRateLimiter
}

// NewServer creates a new HTTP server over the given engines.
func NewServer(cfg *config.Config, eng *engine.Engine, lockEng *lock.Engine, poolLabelsFile string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())

	poolLabels, err := loadPoolLabels(poolLabelsFile)
	if err != nil {
		slog.Warn("failed to load pool labels", "path", poolLabelsFile, "error", err)
	}

	s := &Server{
		config:     cfg,
		engine:     eng,
		lockEngine: lockEng,
		router:     router,
		poolLabels: poolLabels,
		rateLimit:  newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	router.Use(s.rateLimit.middleware())
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	pools := s.router.Group("/pools")
	{
		pools.POST("/setup", s.setupPoolsHandler)
		pools.POST("/tokens-per-second", s.setTokensPerSecondHandler)
		pools.POST("/deactivate", s.deactivatePoolHandler)
		pools.POST("/deactivate-blocked", s.deactivateBlockedPoolsHandler)
		pools.GET("/active", s.activePoolsHandler)
		pools.GET("/state", s.poolStateHandler)
		pools.GET("/apr", s.poolAPRHandler)
		pools.POST("/deposit", s.depositHandler)
		pools.POST("/withdraw", s.withdrawHandler)
		pools.POST("/incentivize", s.incentivizeHandler)
		pools.POST("/remove-reward", s.removeRewardHandler)
	}

	s.router.POST("/blocked-tokens", s.updateBlockedTokensHandler)
	s.router.POST("/rewards/claim", s.claimRewardsHandler)
	s.router.POST("/orphaned-rewards/claim", s.claimOrphanedRewardsHandler)

	ownership := s.router.Group("/ownership")
	{
		ownership.POST("/propose", s.proposeOwnerHandler)
		ownership.POST("/drop", s.dropProposalHandler)
		ownership.POST("/claim", s.claimOwnershipHandler)
	}

	lockGroup := s.router.Group("/lock")
	{
		lockGroup.POST("", s.createLockHandler)
		lockGroup.POST("/increase-amount", s.increaseLockAmountHandler)
		lockGroup.POST("/increase-end-time", s.increaseEndLockTimeHandler)
		lockGroup.POST("/withdraw", s.withdrawLockHandler)
		lockGroup.POST("/checkpoint", s.lockCheckpointHandler)
		lockGroup.GET("/:user", s.userLockHandler)
		lockGroup.GET("/global/state", s.lockGlobalStateHandler)
	}

	if s.config.EnableSwagger {
		s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddress(),
		Handler: s.router,
	}

	slog.Info("starting HTTP server", "address", s.httpServer.Addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles health check requests.
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// now resolves the block timestamp every mutating operation advances state
// to. A client may override it via the "now" query parameter for testing
// against a non-wallclock host time; production traffic omits it and gets
// the server's wallclock.
func (s *Server) now(c *gin.Context) uint64 {
	if raw := c.Query("now"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return parsed
		}
	}
	return uint64(time.Now().Unix())
}

// caller resolves the identity a mutating request acts as. Production
// deployments are expected to populate this from an authenticated session
// or a verified wallet signature upstream of this handler; for now it is
// read directly from the request, matching the engine's sender/caller
// parameters being plain opaque strings.
func (s *Server) caller(c *gin.Context) string {
	if v := c.GetHeader("X-Caller"); v != "" {
		return v
	}
	return c.Query("caller")
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		slog.Info("http request", "method", c.Request.Method, "path", path, "query", query, "status", statusCode, "latency", latency, "ip", c.ClientIP())
	}
}
