package storeapi

import (
	"encoding/json"
	"time"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	ProxyURL      string
	SkipTLSVerify bool
}

// envelope is the store's response wrapper.
type envelope struct {
	Success    bool            `json:"success"`
	ErrMessage *string         `json:"errMessage"`
	ErrorCode  json.RawMessage `json:"errorCode"`
	Data       json.RawMessage `json:"data"`
}

type receiptData struct {
	Receipt struct {
		ID string `json:"_id"`
	} `json:"receipt"`
}

type Card struct {
	Number    string `json:"number"`
	Expire    string `json:"expire"`
	Token     string `json:"token"`
	Recurrent bool   `json:"recurrent"`
	Verify    bool   `json:"verify"`
	Type      string `json:"type"`
}

type cardData struct {
	Card Card `json:"card"`
}

type verifyCodeData struct {
	Phone string `json:"phone"`
	Wait  int64  `json:"wait"`
}

type CartProduct struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price"`
}

type CartLine struct {
	ID       int64       `json:"id"`
	Product  CartProduct `json:"product"`
	Quantity int64       `json:"quantity"`
}

type cartData struct {
	Cart      []CartLine `json:"cart"`
	Total     int64      `json:"total"`
	CartItems int64      `json:"cartItems"`
}

type userData struct {
	User struct {
		ID              int64   `json:"id"`
		FirstName       string  `json:"first_name"`
		LastName        string  `json:"last_name"`
		Phone           string  `json:"phone"`
		CashbackBalance float64 `json:"cashback_balance"`
	} `json:"user"`
}

// Delivery is the store's delivery configuration (GET /delivery).
type Delivery struct {
	MinimumSum *int64 `json:"minimumSum"`
}
