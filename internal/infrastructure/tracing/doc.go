/*
Package tracing provides lightweight request tracing backed by zap.

Each HTTP request gets a trace (reusing an incoming X-Trace-ID header when
present) and each generation call opens a child span. Finished spans are
written to the log: successful spans at debug level, failed spans at warn.

# Usage

	tracer := tracing.New("planner", logger.Logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "generate")
	defer span.Finish()
	span.SetTag("model", model)
*/
package tracing
