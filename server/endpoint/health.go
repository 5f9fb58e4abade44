package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plasma-umass/llm-utils/observability"
	"github.com/plasma-umass/llm-utils/version"
)

// DefaultHealthTimeout bounds a health check when none is given.
const DefaultHealthTimeout = 2 * time.Second

// Health returns a handler that reports service health including component
// statuses. A down component answers 503.
func Health(serviceName string, timeout time.Duration, checkers ...observability.HealthChecker) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return func(c *gin.Context) {
		report := observability.Check(c.Request.Context(), serviceName, version.Version, timeout, checkers...)

		httpStatus := http.StatusOK
		if report.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":     report.Status,
			"service":    report.Service,
			"version":    report.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": report.Components,
		})
	}
}
