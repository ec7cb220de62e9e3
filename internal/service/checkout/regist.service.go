package checkout

import (
	"context"
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/repository"
	checkoutRepo "storefront-checkout/internal/repository/checkout"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/service/payment"
	"storefront-checkout/internal/service/pricing"
)

// Connection is the realtime channel a session owns.
type Connection interface {
	order.Channel
	Connect(ctx context.Context, endpoint, credential string) error
	Reconnect(ctx context.Context) error
	Close() error
}

// Store is the part of the store API a checkout needs.
type Store interface {
	payment.Gateway
	GetCart(ctx context.Context, credential string) (*types.CartSnapshot, error)
	ClearCart(ctx context.Context, credential string) error
	GetProfile(ctx context.Context, credential string) (*types.UserProfile, error)
}

type Location struct {
	Longitude float64
	Latitude  float64
}

type Options struct {
	Endpoint     string
	OrderTimeout time.Duration
	StepTimeout  time.Duration
	// DefaultLocation is sent for delivery orders that carry no coordinates.
	DefaultLocation Location
}

// Deps are shared by every session.
type Deps struct {
	Store         Store
	Settings      pricing.ISettingsProvider
	Ledger        checkoutRepo.IRepository
	Publisher     Publisher
	Pool          Pool
	NewConnection func() Connection
	Options       *Options
}

type Service struct {
	ctx      context.Context
	rp       repository.IRepository
	registry *Registry
}

type IService interface {
	OpenSession(ctx context.Context, user types.UserWithAuth) *types.Response
	GetSession(ctx context.Context, user types.UserWithAuth, id string) *types.Response
	CloseSession(ctx context.Context, user types.UserWithAuth, id string) *types.Response
	Reconnect(ctx context.Context, user types.UserWithAuth, id string) *types.Response
	Quote(ctx context.Context, user types.UserWithAuth, id string, delivery enum.DeliveryTypeEnum) *types.Response
	SubmitOrder(ctx context.Context, user types.UserWithAuth, id string, input *SubmitOrderInput) *types.Response
	SubmitCard(ctx context.Context, user types.UserWithAuth, id string, input *payment.CardInput) *types.Response
	ResendCode(ctx context.Context, user types.UserWithAuth, id string) *types.Response
	ConfirmPayment(ctx context.Context, user types.UserWithAuth, id string, input *payment.ConfirmInput) *types.Response
	AbortPayment(ctx context.Context, user types.UserWithAuth, id string, input *AbortPaymentInput) *types.Response
	Notifications(ctx context.Context, user types.UserWithAuth, id string) *types.Response
	History(ctx context.Context, user types.UserWithAuth, limit int) *types.Response
}

func NewService(ctx context.Context, rp repository.IRepository, registry *Registry) IService {
	return &Service{
		ctx:      ctx,
		rp:       rp,
		registry: registry,
	}
}

// Request DTOs

type SubmitOrderInput struct {
	PaymentType  enum.PaymentTypeEnum  `json:"payment_type" validate:"required,enum"`
	DeliveryType enum.DeliveryTypeEnum `json:"delivery_type" validate:"required,enum"`
	UseCashback  bool                  `json:"use_cashback"`
	FirstName    string                `json:"first_name" validate:"omitempty,max=100"`
	LastName     string                `json:"last_name" validate:"omitempty,max=100"`
	Phone        string                `json:"phone" validate:"omitempty,max=20"`
	Longitude    *float64              `json:"longitude" validate:"omitempty,longitude"`
	Latitude     *float64              `json:"latitude" validate:"omitempty,latitude"`
}

type AbortPaymentInput struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Response DTOs

type SubmitResult struct {
	AttemptID string                `json:"attempt_id"`
	Order     types.OrderRecord     `json:"order"`
	Totals    pricing.Totals        `json:"totals"`
	Payment   *payment.View         `json:"payment,omitempty"`
	Type      enum.PaymentTypeEnum  `json:"payment_type"`
	Delivery  enum.DeliveryTypeEnum `json:"delivery_type"`
}

type QuoteDisplay struct {
	Subtotal string `json:"subtotal"`
	Delivery string `json:"delivery"`
	Total    string `json:"total"`
}

type Quote struct {
	pricing.Totals
	DeliveryType           enum.DeliveryTypeEnum `json:"delivery_type"`
	FreeDelivery           bool                  `json:"free_delivery"`
	MinimumFreeDeliverySum int64                 `json:"minimum_free_delivery_sum"`
	Display                QuoteDisplay          `json:"display"`
}

type SessionView struct {
	ID            string                   `json:"id"`
	Connection    enum.ConnectionStateEnum `json:"connection"`
	Processing    bool                     `json:"processing"`
	Order         *types.OrderRecord       `json:"order,omitempty"`
	PaymentType   enum.PaymentTypeEnum     `json:"payment_type,omitempty"`
	Payment       *payment.View            `json:"payment,omitempty"`
	CartCleared   bool                     `json:"cart_cleared"`
	Notifications []Notification           `json:"notifications"`
}
