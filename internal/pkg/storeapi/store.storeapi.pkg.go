package storeapi

import (
	"context"
	"math"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"

	"github.com/samber/lo"
)

// GetCart returns the caller's cart as an immutable snapshot.
func (c *Client) GetCart(ctx context.Context, credential string) (*types.CartSnapshot, error) {
	var data cartData
	if err := c.call(ctx, credential, helper.GET, "/cart", nil, &data); err != nil {
		return nil, err
	}

	return &types.CartSnapshot{
		Items: lo.Map(data.Cart, func(line CartLine, _ int) types.CartItem {
			return types.CartItem{
				ProductID: line.Product.ID,
				Name:      line.Product.Name,
				UnitPrice: line.Product.Price,
				Quantity:  line.Quantity,
			}
		}),
		CapturedAt: time.Now(),
	}, nil
}

func (c *Client) ClearCart(ctx context.Context, credential string) error {
	return c.call(ctx, credential, helper.DELETE, "/cart/delete-all", nil, nil)
}

func (c *Client) GetDelivery(ctx context.Context) (*Delivery, error) {
	var data Delivery
	if err := c.call(ctx, "", helper.GET, "/delivery", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) GetProfile(ctx context.Context, credential string) (*types.UserProfile, error) {
	var data userData
	if err := c.call(ctx, credential, helper.GET, "/users/me", nil, &data); err != nil {
		return nil, err
	}

	u := data.User
	return &types.UserProfile{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		CashbackBalance: int64(math.Round(u.CashbackBalance)),
	}, nil
}
