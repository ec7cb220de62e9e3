package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"

	"github.com/golang-jwt/jwt/v5"
)

const (
	UserDataKey = "user_data"
)

var (
	ErrMissingCredential = errors.New("credential not found")
	ErrExpiredCredential = errors.New("credential expired")
	ErrMissingUser       = errors.New("user id not found in credential claims")
)

// userIDClaims lists the claim names the store has used for the user id.
var userIDClaims = []string{"user_id", "id", "sub"}

// Inspect reads the caller out of a store-issued bearer credential. The store
// owns the signing key, so the signature is not verified here; the store API
// and the realtime channel reject forged credentials themselves.
func Inspect(credential string, now time.Time) (*types.UserWithAuth, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if credential == "" {
		return nil, ErrMissingCredential
	}

	token, _, err := jwt.NewParser().ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("malformed credential: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}

	user := &types.UserWithAuth{Credential: credential}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("malformed expiry: %w", err)
	}
	if exp != nil {
		if !exp.After(now) {
			return nil, ErrExpiredCredential
		}
		user.ExpiresAt = exp.Time
	}

	id, err := userID(claims)
	if err != nil {
		return nil, err
	}
	user.ID = id

	return user, nil
}

func userID(claims jwt.MapClaims) (int64, error) {
	if nested, ok := claims[UserDataKey].(map[string]any); ok {
		if id, err := userID(nested); err == nil {
			return id, nil
		}
	}

	for _, key := range userIDClaims {
		switch v := claims[key].(type) {
		case float64:
			if v > 0 {
				return int64(v), nil
			}
		case string:
			if id, err := helper.StringToInt64(v); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, ErrMissingUser
}
