package checkout

import "errors"

var (
	ErrAlreadyProcessing = errors.New("an order is already being processed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoPayment         = errors.New("no online payment in progress")
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrSessionClosed     = errors.New("checkout session is closed")
	ErrCredentialExpired = errors.New("credential has expired")
	ErrWorkerUnavailable = errors.New("payment worker unavailable")
)
