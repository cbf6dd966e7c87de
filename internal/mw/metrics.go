package mw

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"powerpulse-backend/internal/metrics"
)

// Metrics records request counts and latency per route. The route template
// is used as the label, not the raw URL, to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}
