package middleware

import (
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"

	"github.com/gin-gonic/gin"
)

// ResponseInit installs the "send" function handlers use to write a service
// response and stop the chain.
func ResponseInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("send", func(r *types.Response) {
			r = helper.ParseResponse(r)
			c.AbortWithStatusJSON(r.Code, helper.ToResponseAPI(r))
		})
		c.Next()
	}
}
