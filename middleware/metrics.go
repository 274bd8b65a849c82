package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"newsroom-cms/services"
)

// Metrics records count, latency and error rate per route into the shared
// metrics service.
func Metrics(m *services.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		operation := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			operation = c.Request.Method + " unmatched"
		}
		m.Record(operation, time.Since(start), c.Writer.Status() >= 400)
	}
}
