package types

import (
	"time"

	"storefront-checkout/internal/common/enum"
)

// CartItem is one cart line as captured at submit time.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// CartSnapshot is an immutable copy of the cart; the core never writes to it.
type CartSnapshot struct {
	Items      []CartItem `json:"items"`
	CapturedAt time.Time  `json:"captured_at"`
}

func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}

type Receiver struct {
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	Phone     string   `json:"phone" validate:"required"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

type OrderItem struct {
	Product  int64 `json:"product" validate:"required"`
	Price    int64 `json:"price" validate:"gte=0"`
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

// OrderRequest is the body of a create_order message.
type OrderRequest struct {
	Amount       int64                 `json:"amount" validate:"gte=0"`
	PaymentType  enum.PaymentTypeEnum  `json:"payment_type" validate:"required,enum"`
	DeliveryType enum.DeliveryTypeEnum `json:"delivery_type" validate:"required,enum"`
	UseCashback  bool                  `json:"use_cashback"`
	Receiver     Receiver              `json:"receiver" validate:"required"`
	Items        []OrderItem           `json:"items" validate:"required,min=1,dive"`
}

// OrderRecord is the server-assigned order carried by an order_created push.
type OrderRecord struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status,omitempty"`
}

// ReceiptHandle identifies the payment receipt (invoice) of an online order.
type ReceiptHandle struct {
	ReceiptID string `json:"receipt_id"`
	Amount    int64  `json:"amount"`
	OrderID   int64  `json:"order_id"`
}

// CardToken references a tokenized card. It is single use and never stored.
type CardToken struct {
	Token    string `json:"-"`
	Verified bool   `json:"verified"`
}

// VerifyCodeInfo describes where the one-time code went and how long the
// user has to wait before asking for another.
type VerifyCodeInfo struct {
	Phone string        `json:"phone"`
	Wait  time.Duration `json:"wait"`
}
