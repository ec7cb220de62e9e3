package config

import (
	"context"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	database "storefront-checkout/internal/pkg/db"
	"storefront-checkout/internal/pkg/rabbitmq"
	"storefront-checkout/internal/pkg/redis"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	AppEnv  enum.EnvEnum `env:"APP_ENV" envDefault:"development"`
	AppPort int          `env:"APP_PORT" envDefault:"8080"`

	// comma separated; empty allows any origin
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	StoreAPIURL        string `env:"STORE_API_URL"`
	StoreWSURL         string `env:"STORE_WS_URL"`
	StoreAPITimeoutSec int    `env:"STORE_API_TIMEOUT_SEC" envDefault:"30"`
	StoreProxyURL      string `env:"STORE_PROXY_URL" envDefault:""`

	ReconnectDelaySec    int     `env:"RECONNECT_DELAY_SEC" envDefault:"5"`
	ReconnectMaxDelaySec int     `env:"RECONNECT_MAX_DELAY_SEC" envDefault:"5"`
	ReconnectFactor      float64 `env:"RECONNECT_FACTOR" envDefault:"1"`
	ReconnectMaxAttempts int     `env:"RECONNECT_MAX_ATTEMPTS" envDefault:"0"`

	OrderTimeoutSec       int `env:"ORDER_TIMEOUT_SEC" envDefault:"30"`
	PaymentStepTimeoutSec int `env:"PAYMENT_STEP_TIMEOUT_SEC" envDefault:"60"`
	SessionIdleTTLSec     int `env:"SESSION_IDLE_TTL_SEC" envDefault:"1800"`
	WorkerPoolSize        int `env:"WORKER_POOL_SIZE" envDefault:"256"`

	MinFreeDeliverySum     int64   `env:"MIN_FREE_DELIVERY_SUM" envDefault:"200000"`
	DeliveryFeePerKm       int64   `env:"DELIVERY_FEE_PER_KM" envDefault:"3000"`
	DeliveryFreeDistanceKm int64   `env:"DELIVERY_FREE_DISTANCE_KM" envDefault:"3"`
	DeliveryLongitude      float64 `env:"DELIVERY_LONGITUDE" envDefault:"25.552"`
	DeliveryLatitude       float64 `env:"DELIVERY_LATITUDE" envDefault:"54.548"`
	DeliveryCacheTTLSec    int     `env:"DELIVERY_CACHE_TTL_SEC" envDefault:"300"`

	RedisHost     string `env:"REDIS_HOST" envDefault:""`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisUser     string `env:"REDIS_USER" envDefault:"default"`
	RedisPass     string `env:"REDIS_PASS" envDefault:""`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	RabbitHost     string `env:"RABBIT_HOST" envDefault:""`
	RabbitPort     int    `env:"RABBIT_PORT" envDefault:"5672"`
	RabbitUser     string `env:"RABBIT_USER" envDefault:"guest"`
	RabbitPass     string `env:"RABBIT_PASS" envDefault:"guest"`
	EventsExchange string `env:"EVENTS_EXCHANGE" envDefault:"checkout.events"`

	DBDriver string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost   string `env:"DB_HOST" envDefault:"localhost"`
	DBPort   int    `env:"DB_PORT" envDefault:"5432"`
	DBUser   string `env:"DB_USER" envDefault:"postgres"`
	DBPass   string `env:"DB_PASS" envDefault:""`
	DBName   string `env:"DB_NAME" envDefault:"postgres"`
	DBCache  bool   `env:"DB_CACHE" envDefault:"false"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *Config) StoreAPITimeout() time.Duration    { return seconds(c.StoreAPITimeoutSec) }
func (c *Config) OrderTimeout() time.Duration       { return seconds(c.OrderTimeoutSec) }
func (c *Config) PaymentStepTimeout() time.Duration { return seconds(c.PaymentStepTimeoutSec) }
func (c *Config) SessionIdleTTL() time.Duration     { return seconds(c.SessionIdleTTLSec) }
func (c *Config) DeliveryCacheTTL() time.Duration   { return seconds(c.DeliveryCacheTTLSec) }

// SetupServerDto contains dependencies for server setup
type SetupServerDto struct {
	Ctx       *context.Context
	Cancel    context.CancelFunc
	Wg        *sync.WaitGroup
	Env       *Config
	Db        *database.Database
	Rds       redis.IRedis
	Rb        *rabbitmq.ConnectionManager
	Publisher *rabbitmq.Publisher
}
