package types

import "time"

// UserWithAuth is the authenticated caller: the store user id read from the
// bearer credential plus the credential itself, which is forwarded to the
// store API and the realtime channel.
type UserWithAuth struct {
	ID         int64     `json:"id" validate:"required"`
	Credential string    `json:"-" validate:"required"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// UserProfile is the store's view of the current user (GET /users/me).
type UserProfile struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	CashbackBalance int64  `json:"cashback_balance"`
}
