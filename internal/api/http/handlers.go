package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/api/middleware"
	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/domain/session"
	"github.com/isoplan/planner/internal/infrastructure/monitoring"
	"github.com/isoplan/planner/internal/infrastructure/storage"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// User-facing messages.
const (
	msgEmptyPrompt = "Skriv en prompt först!"
	msgNoImage     = "Ladda upp en bild först!"
	msgSaveFailed  = "Kunde inte spara data: "
	msgSaved       = "Data sparad!"
)

var (
	errInvalidInput = errors.New("invalid input")
	errNoSession    = errors.New("no session resolved for request")
)

// Options wires the handler dependencies.
type Options struct {
	Sessions     *session.Manager
	Store        *storage.Store
	Dispatcher   *ai.Dispatcher
	Metrics      *monitoring.Metrics
	Logger       *zap.Logger
	ExportPrefix string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions     *session.Manager
	store        *storage.Store
	dispatcher   *ai.Dispatcher
	metrics      *monitoring.Metrics
	logger       *zap.Logger
	exportPrefix string
	now          func() time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.ExportPrefix
	if prefix == "" {
		prefix = "iso27001_plan"
	}
	return &Handlers{
		sessions:     opts.Sessions,
		store:        opts.Store,
		dispatcher:   opts.Dispatcher,
		metrics:      opts.Metrics,
		logger:       logger,
		exportPrefix: prefix,
		now:          time.Now,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "ISO 27001 Certification Planner",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	models := h.dispatcher.Models()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Stats(),
		"storage":  gin.H{"path": h.store.Path()},
		"generator": gin.H{
			"model":        models.Text,
			"vision_model": models.Vision,
		},
	})
}

// Catalog lists the fixed checklist categories, steps and activity enums
func (h *Handlers) Catalog(c *gin.Context) {
	catalog := plan.DefaultCatalog()
	c.JSON(http.StatusOK, gin.H{
		"categories": catalog.Categories,
		"steps":      catalog.Steps,
		"priorities": plan.Priorities,
		"statuses":   plan.Statuses,
	})
}

// EndSession discards the caller's session and expires its cookie.
// Unsaved changes are lost.
func (h *Handlers) EndSession(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s == nil {
		h.fail(c, errNoSession)
		return
	}
	h.sessions.Delete(s.ID)
	middleware.ClearSession(c)
	h.logger.Debug("Session ended", zap.String("session_id", s.ID))
	c.Status(http.StatusNoContent)
}

// withState runs fn against the state of the request's session.
func withState(c *gin.Context, fn func(st *session.State) error) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return errNoSession
	}
	return s.Do(fn)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidInput, fmt.Sprintf(format, args...))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plan.ErrUnknownCategory),
		errors.Is(err, plan.ErrUnknownItem),
		errors.Is(err, plan.ErrUnknownStep),
		errors.Is(err, plan.ErrActivityIndex):
		return http.StatusNotFound
	case errors.Is(err, plan.ErrInvalidPriority),
		errors.Is(err, plan.ErrInvalidStatus),
		errors.Is(err, plan.ErrInvalidOrgSize),
		errors.Is(err, plan.ErrInvalidDate),
		errors.Is(err, errInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
