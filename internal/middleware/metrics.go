package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openedu/videovault/pkg/metrics"
)

// Metrics observes per-request latency labelled by method, route and status.
// Unmatched paths share one label value so probes cannot inflate cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
