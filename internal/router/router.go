package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jeeace/backend/internal/config"
	"github.com/jeeace/backend/internal/handler"
	"github.com/jeeace/backend/internal/middleware"
	"github.com/jeeace/backend/internal/response"
	"github.com/jeeace/backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Test    *handler.TestHandler
	Session *handler.SessionHandler
	History *handler.HistoryHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades skip it.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile route
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.GetProfile)
	}

	// ─── 2. Test Configuration Group (JWT) ─────────────────────────────
	testsAPI := router.Group("/api/v1")
	testsAPI.Use(middleware.RequireJWT(authService))
	{
		testsAPI.GET("/subjects", handlers.Test.ListSubjects)
		testsAPI.POST("/tests/generate", handlers.Test.GenerateTest)
	}

	// ─── 3. Session Group (JWT) ────────────────────────────────────────
	sessionsAPI := router.Group("/api/v1/sessions")
	sessionsAPI.Use(middleware.RequireJWT(authService))
	{
		sessionsAPI.POST("", handlers.Session.Start)
		sessionsAPI.GET("/:id", handlers.Session.GetState)
		sessionsAPI.PUT("/:id/answers", handlers.Session.PutAnswer)
		sessionsAPI.PUT("/:id/cursor", handlers.Session.PutCursor)
		sessionsAPI.POST("/:id/submit", handlers.Session.Submit)
		sessionsAPI.GET("/:id/report", handlers.Session.GetReport)
	}

	// ─── 4. History Group (JWT) ────────────────────────────────────────
	historyAPI := router.Group("/api/v1/history")
	historyAPI.Use(middleware.RequireJWT(authService))
	{
		historyAPI.GET("", handlers.History.List)
	}

	// ─── 5. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
