package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/savecircle/savecircle-backend/internal/core/services"
	"github.com/savecircle/savecircle-backend/internal/middleware"
	"github.com/savecircle/savecircle-backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	svc *services.Container,
	rateLimit gin.HandlerFunc,
) {
	// Health check and Prometheus scrape endpoints stay outside auth.
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway callbacks authenticate via HMAC signature, not JWT.
	registerWebhookRoutes(r, svc.Wallet, cfg.PaystackSecretKey)

	setupAPIV1Routes(r, cfg, svc, rateLimit)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	svc *services.Container,
	rateLimit gin.HandlerFunc,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	walletHandler := newWalletHandler(svc.Wallet, svc.Contribution, svc.Release, svc.Withdrawal)
	registerWalletRoutes(v1, walletHandler, rateLimit)
	registerWithdrawalReviewRoutes(v1, svc.Withdrawal)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
