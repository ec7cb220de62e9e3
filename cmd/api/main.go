package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "storefront-checkout/configs"
	database "storefront-checkout/internal/pkg/db"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/logger"
	"storefront-checkout/internal/pkg/rabbitmq"
	"storefront-checkout/internal/pkg/realtime"
	"storefront-checkout/internal/pkg/redis"
	"storefront-checkout/internal/pkg/storeapi"
	"storefront-checkout/internal/pkg/validation"
	serverApp "storefront-checkout/internal/server"
	checkoutRepo "storefront-checkout/internal/repository/checkout"
	checkoutService "storefront-checkout/internal/service/checkout"
	"storefront-checkout/internal/service/pricing"

	"github.com/gin-gonic/gin"
)

func main() {
	logger.Setup()

	env, err := config.GetEnv()
	if err != nil {
		logger.Error.Println("Error getting environment", err)
		panic(err)
	}

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	// Setup Redis (optional)
	redisClient, err := setupRedis(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up Redis", err)
		cancel()
		return
	}

	// Setup RabbitMQ (optional)
	rabbit, err := setupRabbitMQ(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up RabbitMQ", err)
		cancel()
		return
	}

	// Setup Database
	db, err := setupDB(env, redisClient)
	if err != nil {
		logger.Error.Println("Error setting up Database", err)
		cancel()
		return
	}

	dto := &config.SetupServerDto{
		Env:    env,
		Ctx:    &ctx,
		Cancel: cancel,
		Db:     db,
		Wg:     &wg,
		Rb:     rabbit,
	}
	if redisClient != nil {
		dto.Rds = redisClient
	}
	if rabbit != nil {
		dto.Publisher = rabbitmq.NewPublisher(rabbit, rabbitmq.DefaultExchangeConfig(env.EventsExchange))
	}

	// Setup Server
	setupServer(dto)
}

func setupRedis(ctx context.Context, env *config.Config) (*redis.Client, error) {
	if env.RedisHost == "" {
		logger.Info.Println("REDIS_HOST not set, running without redis")
		return nil, nil
	}
	return redis.Setup(ctx, &redis.Config{
		Host:     env.RedisHost,
		Username: env.RedisUser,
		Port:     env.RedisPort,
		Password: env.RedisPass,
		PoolSize: env.RedisPoolSize,
	})
}

func setupRabbitMQ(ctx context.Context, env *config.Config) (*rabbitmq.ConnectionManager, error) {
	if env.RabbitHost == "" {
		logger.Info.Println("RABBIT_HOST not set, checkout events are not published")
		return nil, nil
	}
	return rabbitmq.NewConnectionManager(ctx, &rabbitmq.Config{
		Username: env.RabbitUser,
		Password: env.RabbitPass,
		Host:     env.RabbitHost,
		Port:     env.RabbitPort,
	})
}

func setupDB(env *config.Config, rds *redis.Client) (*database.Database, error) {
	return database.Setup(&database.Config{
		Host:      env.DBHost,
		Port:      env.DBPort,
		User:      env.DBUser,
		Password:  env.DBPass,
		Database:  env.DBName,
		SSLMode:   "disable",
		Driver:    database.DriverEnum(env.DBDriver),
		Cache:     env.DBCache,
		Rds:       rds,
		CacheTime: time.Minute,
	})
}

func setupRegistry(env *config.Config, db *database.Database, payload *config.SetupServerDto, pool checkoutService.Pool) *checkoutService.Registry {
	store := storeapi.NewClient(&storeapi.Config{
		BaseURL:  env.StoreAPIURL,
		Timeout:  env.StoreAPITimeout(),
		ProxyURL: env.StoreProxyURL,
	})

	settings := pricing.NewSettingsProvider(store, payload.Rds, env.DeliveryCacheTTL(), pricing.Settings{
		MinimumFreeDeliverySum: env.MinFreeDeliverySum,
		FeePerUnitDistance:     env.DeliveryFeePerKm,
		FreeDistanceUnits:      env.DeliveryFreeDistanceKm,
	})

	dialer := realtime.NewWebsocketDialer(15 * time.Second)

	deps := &checkoutService.Deps{
		Store:    store,
		Settings: settings,
		Ledger:   checkoutRepo.NewRepo(db),
		Pool:     pool,
		NewConnection: func() checkoutService.Connection {
			// backoff state is per channel
			return realtime.NewManager(dialer, &realtime.Options{
				Backoff: &realtime.Backoff{
					Min:         time.Duration(env.ReconnectDelaySec) * time.Second,
					Max:         time.Duration(env.ReconnectMaxDelaySec) * time.Second,
					Factor:      env.ReconnectFactor,
					MaxAttempts: env.ReconnectMaxAttempts,
				},
			})
		},
		Options: &checkoutService.Options{
			Endpoint:     env.StoreWSURL,
			OrderTimeout: env.OrderTimeout(),
			StepTimeout:  env.PaymentStepTimeout(),
			DefaultLocation: checkoutService.Location{
				Longitude: env.DeliveryLongitude,
				Latitude:  env.DeliveryLatitude,
			},
		},
	}
	if payload.Publisher != nil {
		deps.Publisher = payload.Publisher
	}

	return checkoutService.NewRegistry(deps, env.SessionIdleTTL())
}

func setupServer(payload *config.SetupServerDto) {
	rds := payload.Rds
	env := payload.Env
	ctx := payload.Ctx
	cancel := payload.Cancel
	wg := payload.Wg
	rb := payload.Rb
	db := payload.Db

	err := validation.Setup()
	if err != nil {
		logger.Error.Println("Failed to setup validation")
		panic(err)
	}

	pool, err := serverApp.NewWorkerPool(env.WorkerPoolSize)
	if err != nil {
		panic(err)
	}

	registry := setupRegistry(env, db, payload, pool)

	defer func() {
		registry.CloseAll()
		cancel()
		wg.Wait()
		pool.Release()
		if payload.Publisher != nil {
			_ = payload.Publisher.Close()
		}
		if rb != nil {
			_ = rb.Close()
		}
		if rds != nil {
			_ = rds.Close()
		}
		_ = db.Close()
	}()

	if env.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(gin.Recovery())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", env.AppPort),
		Handler: e,
	}

	serverApp.Setup(e, *ctx, wg, db, rds, rb, registry, helper.ParseCommaSeperatedString(env.CorsAllowedOrigins))
	serverApp.InitWorker(*ctx, wg, registry)

	go func() {
		logger.HTTP.Println("========= Server Started =========")
		logger.HTTP.Println("=========", env.AppPort, "=========")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Println("Server error:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.HTTP.Println("========= Server Shutting Down =========")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
