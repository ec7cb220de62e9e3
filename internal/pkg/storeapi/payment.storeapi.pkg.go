package storeapi

import (
	"context"
	"fmt"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
)

func (c *Client) CreateReceipt(ctx context.Context, credential string, amount, orderID int64) (*types.ReceiptHandle, error) {
	var data receiptData
	body := map[string]int64{"amount": amount, "order_id": orderID}
	if err := c.call(ctx, credential, helper.POST, "/receipts/receipts_create", body, &data); err != nil {
		return nil, err
	}
	if data.Receipt.ID == "" {
		return nil, fmt.Errorf("%w: receipt without id", ErrUnexpectedResponse)
	}
	return &types.ReceiptHandle{ReceiptID: data.Receipt.ID, Amount: amount, OrderID: orderID}, nil
}

// CreateCard tokenizes a card. expire must already be MM/YY.
func (c *Client) CreateCard(ctx context.Context, credential, cardNumber, expire string) (*Card, error) {
	var data cardData
	body := map[string]string{
		"card_number": cardNumber,
		"expire_date": expire,
		"expire":      expire,
	}
	if err := c.call(ctx, credential, helper.POST, "/cards/create_card", body, &data); err != nil {
		return nil, err
	}
	if data.Card.Token == "" {
		return nil, fmt.Errorf("%w: card without token", ErrUnexpectedResponse)
	}
	return &data.Card, nil
}

func (c *Client) GetVerifyCode(ctx context.Context, credential, token string) (*types.VerifyCodeInfo, error) {
	var data verifyCodeData
	if err := c.call(ctx, credential, helper.POST, "/cards/get_verify_code", map[string]string{"token": token}, &data); err != nil {
		return nil, err
	}
	return &types.VerifyCodeInfo{Phone: data.Phone, Wait: time.Duration(data.Wait) * time.Millisecond}, nil
}

func (c *Client) VerifyCard(ctx context.Context, credential, token, code string) error {
	return c.call(ctx, credential, helper.POST, "/cards/verify_card", map[string]string{"token": token, "code": code}, nil)
}

func (c *Client) PayReceipt(ctx context.Context, credential, token, receiptID string) error {
	return c.call(ctx, credential, helper.POST, "/receipts/receipts_pay", map[string]string{"token": token, "invoice_id": receiptID}, nil)
}

func (c *Client) CheckCard(ctx context.Context, credential, token string) (*Card, error) {
	var data cardData
	if err := c.call(ctx, credential, helper.POST, "/cards/check_card", map[string]string{"token": token}, &data); err != nil {
		return nil, err
	}
	return &data.Card, nil
}
