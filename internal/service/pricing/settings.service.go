package pricing

import (
	"context"
	"time"

	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/logger"
	"storefront-checkout/internal/pkg/redis"
	"storefront-checkout/internal/pkg/storeapi"
)

const settingsCacheKey = "checkout:delivery:settings"

type DeliverySource interface {
	GetDelivery(ctx context.Context) (*storeapi.Delivery, error)
}

type ISettingsProvider interface {
	Settings(ctx context.Context) Settings
}

// SettingsProvider resolves the delivery settings: the minimum free-delivery
// sum comes from the store (cached in redis), the distance fee from config.
type SettingsProvider struct {
	source   DeliverySource
	rds      redis.IRedis
	ttl      time.Duration
	defaults Settings
}

func NewSettingsProvider(source DeliverySource, rds redis.IRedis, ttl time.Duration, defaults Settings) *SettingsProvider {
	return &SettingsProvider{
		source:   source,
		rds:      rds,
		ttl:      ttl,
		defaults: defaults,
	}
}

// Settings never fails: when both the cache and the store are unavailable the
// configured defaults are used.
func (p *SettingsProvider) Settings(ctx context.Context) Settings {
	if cached, ok := p.fromCache(ctx); ok {
		return cached
	}

	settings := p.defaults
	delivery, err := p.source.GetDelivery(ctx)
	if err != nil {
		logger.Warning.Printf("Failed to load delivery settings, using defaults: %v", err)
		return settings
	}
	if delivery.MinimumSum != nil && *delivery.MinimumSum >= 0 {
		settings.MinimumFreeDeliverySum = *delivery.MinimumSum
	}

	if p.rds != nil && p.ttl > 0 {
		if err := p.rds.Set(ctx, settingsCacheKey, settings, p.ttl); err != nil {
			logger.Warning.Printf("Failed to cache delivery settings: %v", err)
		}
	}
	return settings
}

func (p *SettingsProvider) fromCache(ctx context.Context) (Settings, bool) {
	if p.rds == nil {
		return Settings{}, false
	}

	raw, err := p.rds.Get(ctx, settingsCacheKey)
	if err != nil {
		logger.Warning.Printf("Delivery settings cache unavailable: %v", err)
		return Settings{}, false
	}
	if raw == "" {
		return Settings{}, false
	}

	settings, err := helper.ByteToStruct[Settings]([]byte(raw))
	if err != nil {
		logger.Warning.Printf("Dropping malformed cached delivery settings: %v", err)
		return Settings{}, false
	}
	return *settings, true
}
