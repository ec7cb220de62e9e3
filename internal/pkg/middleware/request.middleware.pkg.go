package middleware

import (
	"time"

	"storefront-checkout/internal/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-Id"

// RequestInit tags each request with an id and writes an access log line.
func RequestInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id, _ = gonanoid.New()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		logger.HTTP.Printf("%s %s %s %d %s", id, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
