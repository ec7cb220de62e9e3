package payment

import (
	"errors"
	"fmt"

	"storefront-checkout/internal/common/enum"
)

var (
	ErrIllegalTransition = errors.New("illegal payment transition")
	ErrResendTooSoon     = errors.New("verification code was sent recently")
	ErrStepInProgress    = errors.New("a payment step is already in progress")
)

// ExternalServiceError is a failed call to the store's payment API.
type ExternalServiceError struct {
	Step    enum.PaymentStepEnum
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Step.ToString(), e.Message)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func external(step enum.PaymentStepEnum, err error) *ExternalServiceError {
	return &ExternalServiceError{Step: step, Message: err.Error(), Err: err}
}

func illegal(from enum.PaymentStateEnum, op string) error {
	return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, op, from.ToString())
}
