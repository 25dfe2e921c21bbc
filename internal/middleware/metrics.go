package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/service"
)

// Metrics records method, route template, status and latency for every
// handled request. The scrape and probe endpoints are excluded so they do
// not dominate the histogram.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		if route == "/metrics" || route == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
