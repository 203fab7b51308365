package routes

import (
	"net/http"

	"movapp-backend/internal/config"
	"movapp-backend/internal/delivery/http/handler"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether the database answers.
type HealthChecker interface {
	Health() error
}

func SetupRoutes(cfg *config.Config, db HealthChecker, svc *Services, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: request ID first so every later log line carries it.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.Environment))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(limiter))
	router.Use(middleware.MetricsMiddleware())

	health := healthHandler(db)
	router.GET("/health", health)
	router.GET("/status-api", health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(svc.Sessions)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	paymentHandler := handler.NewPaymentHandler(svc.Orders, svc.Webhooks)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		orderHandler.RegisterRoutes(v1, middleware.OptionalAuthMiddleware(svc.Tokens))
		paymentHandler.RegisterRoutes(v1)
		notificationHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(svc.Tokens))
		{
			authHandler.RegisterAccountRoutes(protected)
			orderHandler.RegisterProtectedRoutes(protected)
			notificationHandler.RegisterProtectedRoutes(protected)
		}
	}

	logger.Info("All routes initialized")
	return router
}

func healthHandler(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	}
}
