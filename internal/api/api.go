// internal/api/api.go
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/api/handlers"
	"github.com/eroudini/AiMerchant-sub000/internal/api/middleware"
	"github.com/eroudini/AiMerchant-sub000/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	RecommendationService *service.RecommendationService
	AutoActionService     *service.AutoActionService
}

type RouterConfig struct {
	AllowedOrigins   []string
	DefaultAccountID string
	// RunRateLimit and RunRateBurst throttle POST /auto-action/run per account.
	RunRateLimit int
	RunRateBurst int
}

// NewRouter builds the HTTP API. Background work started for the router,
// such as rate limiter sweeps, stops when ctx is cancelled.
func NewRouter(ctx context.Context, services *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Account(cfg.DefaultAccountID))
	router.Use(middleware.Logger())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AccountHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.RecommendationService != nil {
			actionsHandler := handlers.NewActionsHandler(services.RecommendationService)
			actionsGroup := apiGroup.Group("/actions")
			{
				actionsGroup.POST("/recommendations/generate", actionsHandler.GenerateRecommendations)
				actionsGroup.GET("/recommendations", actionsHandler.ListRecommendations)
				actionsGroup.POST("/execute", actionsHandler.Execute)
			}
		}

		if services.AutoActionService != nil {
			autoActionHandler := handlers.NewAutoActionHandler(services.AutoActionService)
			limiter := middleware.NewRateLimiter(ctx, cfg.RunRateLimit, cfg.RunRateBurst)
			apiGroup.POST("/auto-action/run", limiter.Limit(), autoActionHandler.Run)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
