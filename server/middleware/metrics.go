package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plasma-umass/llm-utils/observability"
)

// Metrics records the duration of every request by method, route template
// and status. A nil m makes it a no-op.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
