package payment

import (
	"context"
	"sync"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/storeapi"
)

// Gateway is the store's card and receipt API.
type Gateway interface {
	CreateReceipt(ctx context.Context, credential string, amount, orderID int64) (*types.ReceiptHandle, error)
	CreateCard(ctx context.Context, credential, cardNumber, expire string) (*storeapi.Card, error)
	GetVerifyCode(ctx context.Context, credential, token string) (*types.VerifyCodeInfo, error)
	VerifyCard(ctx context.Context, credential, token, code string) error
	PayReceipt(ctx context.Context, credential, token, receiptID string) error
}

type IPipeline interface {
	State() State
	Start(ctx context.Context, order types.OrderRecord, amount int64) error
	SubmitCard(ctx context.Context, input CardInput) (*types.VerifyCodeInfo, error)
	ResendCode(ctx context.Context) (*types.VerifyCodeInfo, error)
	Confirm(ctx context.Context, input ConfirmInput) error
	Abort(reason string) error
}

// Pipeline drives the online payment of one order: receipt, card token,
// one-time code, verification and payment. Steps never overlap.
type Pipeline struct {
	gw         Gateway
	credential string
	now        func() time.Time

	mu    sync.Mutex
	state State
	busy  bool
}

func NewPipeline(gw Gateway, credential string) *Pipeline {
	return &Pipeline{
		gw:         gw,
		credential: credential,
		now:        time.Now,
		state:      Idle{},
	}
}

// Request DTOs

type CardInput struct {
	CardNumber string `json:"card_number" validate:"required,cardnumber"`
	Expiry     string `json:"expiry" validate:"required,cardexpiry"`
}

type ConfirmInput struct {
	Code string `json:"code" validate:"required,numeric,min=4,max=8"`
}
