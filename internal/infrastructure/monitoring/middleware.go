package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(c.Request.Method, route, status, time.Since(start))
	}
}

// Timer measures a generation call.
type Timer struct {
	start   time.Time
	metrics *Metrics
	kind    string
	model   string
}

// NewTimer starts timing a generation call.
func NewTimer(metrics *Metrics, kind, model string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		kind:    kind,
		model:   model,
	}
}

// Stop records the call with its outcome and returns the elapsed time.
func (t *Timer) Stop(failed bool) time.Duration {
	elapsed := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordGeneration(t.kind, t.model, failed, elapsed)
	}
	return elapsed
}
