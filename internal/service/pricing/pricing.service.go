package pricing

import (
	"errors"
	"fmt"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"

	"github.com/samber/lo"
)

var ErrInvalidInput = errors.New("invalid pricing input")

// Settings are the delivery pricing knobs. All amounts are in so'm.
type Settings struct {
	MinimumFreeDeliverySum int64 `json:"minimum_free_delivery_sum"`
	FeePerUnitDistance     int64 `json:"fee_per_unit_distance"`
	FreeDistanceUnits      int64 `json:"free_distance_units"`
}

func DefaultSettings() Settings {
	return Settings{
		MinimumFreeDeliverySum: 200000,
		FeePerUnitDistance:     3000,
		FreeDistanceUnits:      3,
	}
}

type Totals struct {
	Subtotal     int64 `json:"subtotal"`
	DeliveryCost int64 `json:"delivery_cost"`
	Total        int64 `json:"total"`
}

// FreeDelivery reports whether a delivery order pays nothing for delivery.
func (t Totals) FreeDelivery() bool {
	return t.DeliveryCost == 0
}

// ComputeTotals prices a cart for a delivery selection. Pickup is always free;
// delivery is free from the minimum sum upwards and a flat distance fee below.
func ComputeTotals(cart types.CartSnapshot, delivery enum.DeliveryTypeEnum, settings Settings) (*Totals, error) {
	if !delivery.IsValid() {
		return nil, fmt.Errorf("%w: unknown delivery type %d", ErrInvalidInput, delivery)
	}
	if settings.MinimumFreeDeliverySum < 0 || settings.FeePerUnitDistance < 0 || settings.FreeDistanceUnits < 0 {
		return nil, fmt.Errorf("%w: negative delivery settings", ErrInvalidInput)
	}

	if bad, found := lo.Find(cart.Items, func(item types.CartItem) bool {
		return item.UnitPrice < 0 || item.Quantity < 0
	}); found {
		return nil, fmt.Errorf("%w: product %d has negative price or quantity", ErrInvalidInput, bad.ProductID)
	}

	subtotal := lo.SumBy(cart.Items, func(item types.CartItem) int64 {
		return item.UnitPrice * item.Quantity
	})

	var deliveryCost int64
	if delivery == enum.DELIVERY && subtotal < settings.MinimumFreeDeliverySum {
		deliveryCost = settings.FeePerUnitDistance * settings.FreeDistanceUnits
	}

	return &Totals{
		Subtotal:     subtotal,
		DeliveryCost: deliveryCost,
		Total:        subtotal + deliveryCost,
	}, nil
}
