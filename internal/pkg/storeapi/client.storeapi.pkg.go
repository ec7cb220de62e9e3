package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/logger"

	"github.com/samber/lo"
)

// Client talks to the store REST API on behalf of one caller at a time; the
// caller's credential is passed per request.
type Client struct {
	http    *helper.HTTPClient
	baseURL string
}

type IClient interface {
	CreateReceipt(ctx context.Context, credential string, amount, orderID int64) (*types.ReceiptHandle, error)
	CreateCard(ctx context.Context, credential, cardNumber, expire string) (*Card, error)
	GetVerifyCode(ctx context.Context, credential, token string) (*types.VerifyCodeInfo, error)
	VerifyCard(ctx context.Context, credential, token, code string) error
	PayReceipt(ctx context.Context, credential, token, receiptID string) error
	CheckCard(ctx context.Context, credential, token string) (*Card, error)
	GetCart(ctx context.Context, credential string) (*types.CartSnapshot, error)
	ClearCart(ctx context.Context, credential string) error
	GetDelivery(ctx context.Context) (*Delivery, error)
	GetProfile(ctx context.Context, credential string) (*types.UserProfile, error)
}

func NewClient(cfg *Config) *Client {
	timeout := lo.Ternary(cfg.Timeout > 0, cfg.Timeout, 15*time.Second)
	return &Client{
		http: helper.NewHTTPClient(&helper.HTTPClientConfig{
			ProxyURL:       cfg.ProxyURL,
			SkipTLSVerify:  cfg.SkipTLSVerify,
			RequestTimeout: timeout,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// call performs one request and decodes the envelope's data into out, which
// may be nil when the caller only needs success.
func (c *Client) call(ctx context.Context, credential string, method helper.HTTPMethodEnum, path string, body any, out any) error {
	resp, err := c.http.Request(
		&helper.HTTPRequestPayload{Method: method, URL: c.baseURL + path, Body: body},
		&helper.HTTPRequestConfig{Ctx: ctx, Bearer: credential},
	)
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Path: path, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			fillEnvelopeError(apiErr, &env)
		}
		logger.Warning.Printf("Store API %s %s failed: %v", method, path, apiErr)
		return apiErr
	}

	if decodeErr != nil {
		// DELETE endpoints may answer with an empty body
		if len(strings.TrimSpace(string(resp.Body))) == 0 && out == nil {
			return nil
		}
		return fmt.Errorf("%w from %s: %v", ErrUnexpectedResponse, path, decodeErr)
	}

	if !env.Success {
		apiErr := &APIError{Path: path, Status: resp.StatusCode}
		fillEnvelopeError(apiErr, &env)
		logger.Warning.Printf("Store API %s %s rejected: %v", method, path, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w from %s: empty data", ErrUnexpectedResponse, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrUnexpectedResponse, path, err)
	}
	return nil
}

func fillEnvelopeError(apiErr *APIError, env *envelope) {
	if env.ErrMessage != nil {
		apiErr.Message = *env.ErrMessage
	}
	code := strings.Trim(string(env.ErrorCode), `"`)
	if code != "" && code != "null" {
		apiErr.Code = code
	}
}
