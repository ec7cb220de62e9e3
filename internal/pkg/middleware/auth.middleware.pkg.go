package middleware

import (
	"net/http"
	"time"

	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const AuthKey = "auth"

// AuthMiddleware reads the store credential from the Authorization header and
// rejects missing or expired credentials before any session is touched.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		send := c.MustGet("send").(func(r *types.Response))

		token := c.GetHeader("Authorization")
		if token == "" {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"}))
			return
		}

		user, err := jwt.Inspect(token, time.Now())
		if err != nil {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "invalid token", Error: err}))
			return
		}

		c.Set(AuthKey, *user)
		c.Next()
	}
}

// GetAuth returns the caller stored by AuthMiddleware.
func GetAuth(c *gin.Context) (types.UserWithAuth, bool) {
	v, ok := c.Get(AuthKey)
	if !ok {
		return types.UserWithAuth{}, false
	}
	user, ok := v.(types.UserWithAuth)
	return user, ok
}
