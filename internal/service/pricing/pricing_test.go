package pricing

import (
	"testing"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartOf(items ...types.CartItem) types.CartSnapshot {
	return types.CartSnapshot{Items: items}
}

func TestComputeTotals(t *testing.T) {
	settings := DefaultSettings()

	tests := []struct {
		name     string
		cart     types.CartSnapshot
		delivery enum.DeliveryTypeEnum
		want     Totals
	}{
		{
			name:     "delivery below minimum pays distance fee",
			cart:     cartOf(types.CartItem{ProductID: 1, UnitPrice: 50000, Quantity: 3}),
			delivery: enum.DELIVERY,
			want:     Totals{Subtotal: 150000, DeliveryCost: 9000, Total: 159000},
		},
		{
			name: "delivery at or above minimum is free",
			cart: cartOf(
				types.CartItem{ProductID: 1, UnitPrice: 100000, Quantity: 2},
				types.CartItem{ProductID: 2, UnitPrice: 50000, Quantity: 1},
			),
			delivery: enum.DELIVERY,
			want:     Totals{Subtotal: 250000, DeliveryCost: 0, Total: 250000},
		},
		{
			name:     "exactly the minimum is free",
			cart:     cartOf(types.CartItem{ProductID: 1, UnitPrice: 200000, Quantity: 1}),
			delivery: enum.DELIVERY,
			want:     Totals{Subtotal: 200000, DeliveryCost: 0, Total: 200000},
		},
		{
			name:     "pickup never pays delivery",
			cart:     cartOf(types.CartItem{ProductID: 1, UnitPrice: 10000, Quantity: 1}),
			delivery: enum.PICKUP,
			want:     Totals{Subtotal: 10000, DeliveryCost: 0, Total: 10000},
		},
		{
			name:     "empty cart with delivery",
			cart:     cartOf(),
			delivery: enum.DELIVERY,
			want:     Totals{Subtotal: 0, DeliveryCost: 9000, Total: 9000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.cart, tt.delivery, settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestComputeTotalsInvalidInput(t *testing.T) {
	settings := DefaultSettings()

	_, err := ComputeTotals(cartOf(types.CartItem{ProductID: 1, UnitPrice: -1, Quantity: 1}), enum.PICKUP, settings)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeTotals(cartOf(types.CartItem{ProductID: 1, UnitPrice: 1, Quantity: -2}), enum.PICKUP, settings)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeTotals(cartOf(), enum.DeliveryTypeEnum(9), settings)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeTotals(cartOf(), enum.DELIVERY, Settings{MinimumFreeDeliverySum: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTotalsFreeDelivery(t *testing.T) {
	assert.True(t, Totals{DeliveryCost: 0}.FreeDelivery())
	assert.False(t, Totals{DeliveryCost: 9000}.FreeDelivery())
}
