/*
Package monitoring provides Prometheus metrics for the planner service.

# Metrics

- HTTP requests by route template and status
- Generation calls by kind (analysis, step, chat, ...), model and outcome
- Plan saves, loads and exports
- Live, created and expired sessions
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "analysis", model)
	// ... call the generation API ...
	timer.Stop(failed)
*/
package monitoring
