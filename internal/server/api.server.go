package serverApp

import (
	"context"
	"net/http"
	"sync"
	"time"

	checkoutHandler "storefront-checkout/internal/handler/checkout"
	database "storefront-checkout/internal/pkg/db"
	"storefront-checkout/internal/pkg/middleware"
	"storefront-checkout/internal/pkg/rabbitmq"
	"storefront-checkout/internal/pkg/redis"
	"storefront-checkout/internal/repository"
	checkoutRepo "storefront-checkout/internal/repository/checkout"
	checkoutService "storefront-checkout/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

// Setup initializes the HTTP server with middleware and routes
func Setup(
	engine *gin.Engine,
	ctx context.Context,
	wg *sync.WaitGroup,
	db *database.Database,
	redisClient redis.IRedis,
	rb *rabbitmq.ConnectionManager,
	registry *checkoutService.Registry,
	corsOrigins []string,
) {
	InitMiddleware(engine, corsOrigins)

	engine.GET("/health", Health(db, redisClient, rb, registry))

	e := engine.Group(BasePath())
	InitRoutes(e, ctx, wg, db, registry)
}

// BasePath returns the base API path
func BasePath() string {
	return "/api"
}

// InitMiddleware initializes global middleware
func InitMiddleware(e *gin.Engine, corsOrigins []string) {
	e.Use(middleware.CorsMiddleware(corsOrigins...))
	e.Use(middleware.RequestInit())
	e.Use(middleware.ResponseInit())
}

// Health reports the backing services. Redis and RabbitMQ are optional and
// show as "disabled" when not configured.
func Health(db *database.Database, redisClient redis.IRedis, rb *rabbitmq.ConnectionManager, registry *checkoutService.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		rabbitmqHealth := "disabled"
		redisHealth := "disabled"
		databaseHealth := "unhealthy"

		if db != nil && !db.IsCloseConnection() {
			databaseHealth = "healthy"
		}

		if rb != nil {
			rabbitmqHealth = "unhealthy"
			if !rb.IsClosed() {
				rabbitmqHealth = "healthy"
			}
		}

		if redisClient != nil {
			redisHealth = "unhealthy"
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			if redisClient.Ping(ctx) == nil {
				redisHealth = "healthy"
			}
			cancel()
		}

		status := http.StatusOK
		if databaseHealth != "healthy" {
			status = http.StatusServiceUnavailable
		}

		sessions := 0
		if registry != nil {
			sessions = registry.Len()
		}

		c.JSON(status, gin.H{
			"status": status,
			"service": gin.H{
				"rabbitmq": gin.H{
					"status": rabbitmqHealth,
				},
				"redis": gin.H{
					"status": redisHealth,
				},
				"database": gin.H{
					"status": databaseHealth,
				},
			},
			"sessions": sessions,
		})
	}
}

func InitRoutes(
	e *gin.RouterGroup,
	ctx context.Context,
	wg *sync.WaitGroup,
	db *database.Database,
	registry *checkoutService.Registry,
) {
	// setup repo
	rp := repository.IRepository{
		Checkout: checkoutRepo.NewRepo(db),
	}

	// === Checkout ===
	CheckoutService := checkoutService.NewService(ctx, rp, registry)
	CheckoutHandler := checkoutHandler.NewHandler(ctx, CheckoutService)
	CheckoutHandler.NewRoutes(e)
}
