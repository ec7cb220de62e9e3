package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONB is a custom type for GORM to handle JSONB columns
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("null")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return errors.New("unsupported type for JSONB")
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSONB: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// CheckoutAttempt is the ledger row of one order submission. It is written
// before the order message goes out and outlives the session, so neither a
// created-but-unpaid order nor an unconfirmed one is lost. OrderID stays nil
// until the server confirms the order. Card data is never written here.
type CheckoutAttempt struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionID    string     `json:"session_id" gorm:"type:varchar(36);index;not null"`
	UserID       int64      `json:"user_id" gorm:"index"`
	OrderID      *int64     `json:"order_id" gorm:"uniqueIndex"`
	OrderNumber  string     `json:"order_number" gorm:"type:varchar(100)"`
	Amount       int64      `json:"amount" gorm:"not null"`
	PaymentType  string     `json:"payment_type" gorm:"type:varchar(20);not null"`
	DeliveryType string     `json:"delivery_type" gorm:"type:varchar(20);not null"`
	UseCashback  bool       `json:"use_cashback"`
	Items        JSONB      `json:"items" gorm:"type:jsonb"`
	ReceiptID    string     `json:"receipt_id" gorm:"type:varchar(100)"`
	Status       string     `json:"status" gorm:"type:varchar(50);not null;default:'submitted';index"`
	PaymentState string     `json:"payment_state" gorm:"type:varchar(50)"`
	FailedStep   string     `json:"failed_step" gorm:"type:varchar(50)"`
	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	PaidAt       *time.Time `json:"paid_at"`
}

func (CheckoutAttempt) TableName() string {
	return "checkout_attempts"
}

func (c *CheckoutAttempt) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
