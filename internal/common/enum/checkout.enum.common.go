package enum

import "github.com/go-playground/validator/v10"

/*----------- CheckoutStatusEnum -----------*/

// CheckoutStatusEnum is the ledger status of an order submission.
type CheckoutStatusEnum string

const (
	STATUS_SUBMITTED       CheckoutStatusEnum = "submitted"
	STATUS_NOT_SENT        CheckoutStatusEnum = "not_sent"
	STATUS_CREATED         CheckoutStatusEnum = "created"
	STATUS_CASH_CONFIRMED  CheckoutStatusEnum = "cash_confirmed"
	STATUS_PAYMENT_PENDING CheckoutStatusEnum = "payment_pending"
	STATUS_PAID            CheckoutStatusEnum = "paid"
	STATUS_PAYMENT_FAILED  CheckoutStatusEnum = "payment_failed"
	STATUS_OUTCOME_UNKNOWN CheckoutStatusEnum = "outcome_unknown"
)

func (e CheckoutStatusEnum) ToString() string {
	return string(e)
}

func (e CheckoutStatusEnum) IsValid() bool {
	switch e {
	case STATUS_SUBMITTED, STATUS_NOT_SENT, STATUS_CREATED, STATUS_CASH_CONFIRMED, STATUS_PAYMENT_PENDING, STATUS_PAID, STATUS_PAYMENT_FAILED, STATUS_OUTCOME_UNKNOWN:
		return true
	}
	return false
}

/*----------- NotificationKindEnum -----------*/

type NotificationKindEnum string

const (
	NOTIFY_SUCCESS NotificationKindEnum = "success"
	NOTIFY_INFO    NotificationKindEnum = "info"
	NOTIFY_WARNING NotificationKindEnum = "warning"
	NOTIFY_ERROR   NotificationKindEnum = "error"
)

func (e NotificationKindEnum) ToString() string {
	return string(e)
}

func (e NotificationKindEnum) IsValid() bool {
	switch e {
	case NOTIFY_SUCCESS, NOTIFY_INFO, NOTIFY_WARNING, NOTIFY_ERROR:
		return true
	}
	return false
}

type validEnum interface {
	IsValid() bool
}

// ValidateEnum backs the `enum` validation tag: the field must implement
// IsValid and report true.
func ValidateEnum(fl validator.FieldLevel) bool {
	if v, ok := fl.Field().Interface().(validEnum); ok {
		return v.IsValid()
	}
	return false
}
