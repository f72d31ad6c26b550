// Package httpapi mounts the relay's public and admin HTTP surface on gin,
// grounded on coinbase-x402's examples/go/facilitator gin wiring and
// Aigen6-preworker's router (CORS, /metrics, NoRoute).
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/humandebri/jpycpay/internal/admin"
	"github.com/humandebri/jpycpay/internal/relay"
	"github.com/humandebri/jpycpay/internal/store"
)

// Server holds every collaborator the route handlers need.
type Server struct {
	Store       *store.Store
	Coordinator *relay.Coordinator
	Admin       *admin.Surface
	Log         zerolog.Logger

	engine *gin.Engine
}

// New builds the gin.Engine and registers every SPEC_FULL.md route. The
// admin group carries adminAuth(); the public group does not.
func New(s *store.Store, coordinator *relay.Coordinator, adminSurface *admin.Surface, log zerolog.Logger) *Server {
	srv := &Server{Store: s, Coordinator: coordinator, Admin: adminSurface, Log: log}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/v1")
	v1.POST("/submit", srv.handleSubmit)
	v1.GET("/info", srv.handleInfo)
	v1.GET("/logs", srv.handleLogs)
	v1.GET("/relayer-address", srv.handleRelayerAddress)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(adminAuth())
	adminGroup.POST("/rpc-target", srv.handleSetRPCTarget)
	adminGroup.POST("/chain-id", srv.handleSetChainID)
	adminGroup.POST("/threshold", srv.handleSetThreshold)
	adminGroup.POST("/derivation-path", srv.handleSetDerivationPath)
	adminGroup.POST("/relayer-address", srv.handleSetRelayerAddress)
	adminGroup.POST("/pause", srv.handlePause)
	adminGroup.POST("/assets", srv.handleAddAsset)
	adminGroup.POST("/assets/:id/deprecate", srv.handleDeprecateAsset)
	adminGroup.POST("/assets/:id/disable", srv.handleDisableAsset)
	adminGroup.POST("/derive-relayer-address", srv.handleDeriveRelayerAddress)
	adminGroup.POST("/refresh-gas-balance", srv.handleRefreshGasBalance)
	adminGroup.POST("/admins", srv.handleAddAdmin)
	adminGroup.DELETE("/admins", srv.handleRemoveAdmin)
	adminGroup.GET("/admins", srv.handleListAdmins)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	srv.engine = engine
	return srv
}

// Handler returns the underlying http.Handler, suitable for http.Server or
// httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts listening on addr, blocking until the server stops or errors.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// corsMiddleware allows cross-origin reads of the public API, the way
// Aigen6-preworker's router permits dashboard access from a separate
// origin. The admin group still requires X-Relay-Admin-Key regardless of
// origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Relay-Admin-Key, Idempotency-Key")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
