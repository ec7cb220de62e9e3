package order

import "errors"

var (
	ErrSubmissionInFlight = errors.New("an order submission is already in flight")
	ErrCorrelationTimeout = errors.New("no order confirmation received in time")
	// ErrConnectionLost means the order may or may not exist on the server.
	ErrConnectionLost = errors.New("connection lost before the order was confirmed")
)
