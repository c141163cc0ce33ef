package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	// Metrics отдаёт /metrics; nil — ручка не регистрируется.
	Metrics  http.Handler
	Observer middleware.RequestObserver

	RateLimit      int
	RateBurst      int
	RateCacheSize  int
	RateVisitorTTL time.Duration
}

func NewRouter(ctx context.Context, h *Handler, log *zap.Logger, rc RouterConfig) *gin.Engine {
	if rc.RateLimit <= 0 {
		rc.RateLimit, rc.RateBurst = 50, 100
	}
	if rc.RateCacheSize <= 0 {
		rc.RateCacheSize = 10_000
	}
	if rc.RateVisitorTTL <= 0 {
		rc.RateVisitorTTL = time.Hour
	}

	corsConfig := cors.Config{
		AllowOrigins: rc.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: rc.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	// Без списка origin разрешаем всех, но без cookie: иначе cors.New паникует.
	if len(rc.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	if rc.Observer != nil {
		router.Use(middleware.RequestMetrics(rc.Observer))
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	if rc.Metrics != nil {
		router.GET("/metrics", gin.WrapH(rc.Metrics))
	}

	api := router.Group("/api/v1", middleware.NewHTTPRateLimitPerIP(ctx, rc.RateLimit, rc.RateBurst, rc.RateCacheSize, rc.RateVisitorTTL))
	h.Mount(api)
	return router
}
