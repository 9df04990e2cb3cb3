package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/infrastructure/monitoring"
	"github.com/isoplan/planner/internal/infrastructure/tracing"
)

// ErrorPrefix starts every failure reply.
const ErrorPrefix = "Ett fel uppstod: "

// Kinds label dispatches in traces and metrics.
const (
	KindAnalysis        = "analysis"
	KindRecommendations = "recommendations"
	KindActionPlan      = "action_plan"
	KindText            = "text"
	KindVision          = "vision"
	KindChat            = "chat"
	KindPing            = "ping"
)

// Reply is the display-ready outcome of a dispatch. When Failed is set,
// Text holds the error message instead of generated content.
type Reply struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// Models names the default model per request type.
type Models struct {
	Text   string
	Vision string
}

// Dispatcher turns one prompt into one Reply. It never returns an error.
type Dispatcher struct {
	generator Generator
	models    Models
	tracer    *tracing.Tracer
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher. tracer, metrics and logger may be nil.
func NewDispatcher(generator Generator, models Models, tracer *tracing.Tracer, metrics *monitoring.Metrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = tracing.New("planner", logger)
	}
	return &Dispatcher{
		generator: generator,
		models:    models,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Models returns the configured defaults.
func (d *Dispatcher) Models() Models {
	return d.models
}

// Dispatch performs exactly one generation call for req.
func (d *Dispatcher) Dispatch(ctx context.Context, kind string, req Request) Reply {
	if req.Model == "" {
		req.Model = d.models.Text
		if req.Image != nil && d.models.Vision != "" {
			req.Model = d.models.Vision
		}
	}

	span, ctx := d.tracer.StartSpan(ctx, "ai.dispatch")
	span.SetTag("kind", kind)
	span.SetTag("model", req.Model)
	timer := monitoring.NewTimer(d.metrics, kind, req.Model)

	text, err := d.call(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}

	elapsed := timer.Stop(err != nil)
	if err != nil {
		span.SetError(err)
		span.Finish()
		d.logger.Warn("Generation failed",
			zap.String("kind", kind),
			zap.String("model", req.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return Reply{Text: ErrorPrefix + err.Error(), Failed: true}
	}

	span.Finish()
	return Reply{Text: text}
}

// call invokes the generator, converting a panic into an error.
func (d *Dispatcher) call(ctx context.Context, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()

	if d.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}
	if req.Model == "" {
		return "", ErrNoModel
	}
	return d.generator.Generate(ctx, req)
}
