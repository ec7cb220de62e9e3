package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// CorsMiddleware allows every origin when origins is empty, otherwise only the
// listed ones.
func CorsMiddleware(origins ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allow := "*"
		if len(origins) > 0 {
			origin := c.GetHeader("Origin")
			allow = lo.Ternary(lo.Contains(origins, origin), origin, "")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if allow != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allow)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-Id")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
