package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/isoplan/planner/internal/ai"
	apihttp "github.com/isoplan/planner/internal/api/http"
	"github.com/isoplan/planner/internal/api/middleware"
	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/domain/session"
	"github.com/isoplan/planner/internal/infrastructure/config"
	"github.com/isoplan/planner/internal/infrastructure/logging"
	"github.com/isoplan/planner/internal/infrastructure/monitoring"
	"github.com/isoplan/planner/internal/infrastructure/storage"
	"github.com/isoplan/planner/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	sessions   *session.Manager
	dispatcher *ai.Dispatcher
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewGenerator builds the generation backend selected by configuration.
func NewGenerator(ctx context.Context, cfg config.GeminiConfig) (ai.Generator, error) {
	switch cfg.Backend {
	case "rest":
		return ai.NewGeminiREST(cfg.APIKey, cfg.BaseURL), nil
	case "sdk", "":
		return ai.NewGeminiSDK(ctx, cfg.APIKey, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}

// NewDispatcher wraps a generator with the configured models.
func NewDispatcher(cfg *config.Config, gen ai.Generator, tracer *tracing.Tracer, metrics *monitoring.Metrics, logger *logging.Logger) *ai.Dispatcher {
	models := ai.Models{Text: cfg.Gemini.Model, Vision: cfg.Gemini.VisionModel}
	return ai.NewDispatcher(gen, models, tracer, metrics, logger.Named("ai").Logger)
}

// NewServer creates a new server instance with the configured generator
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	gen, err := NewGenerator(ctx, cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return New(cfg, logger, gen), nil
}

// New assembles the server around an existing generator.
func New(cfg *config.Config, logger *logging.Logger, gen ai.Generator) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(zap.String("service", "planner"), zap.String("version", apihttp.Version))

	logger.Info("Initializing ISO 27001 planner",
		zap.String("addr", cfg.Addr()),
		zap.String("data_file", cfg.Storage.DataFile),
		zap.String("generator_backend", cfg.Gemini.Backend),
		zap.String("model", cfg.Gemini.Model),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("planner", logger.Logger)

	store := storage.NewStore(cfg.Storage.DataFile, logger.Named("storage").Logger)
	loader := func() *plan.Document {
		doc, source := store.Load()
		metrics.RecordLoad(string(source))
		return doc
	}
	sessions := session.NewManager(loader, session.Config{
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
		MaxSessions:   cfg.Session.MaxSessions,
	}, metrics, logger.Named("session").Logger)

	dispatcher := NewDispatcher(cfg, gen, tracer, metrics, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(apihttp.Options{
		Sessions:     sessions,
		Store:        store,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger.Named("http").Logger,
		ExportPrefix: cfg.Storage.ExportPrefix,
	})
	handlers.Register(router, middleware.Session(sessions, cfg.Session.TTL))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP and sweeps idle sessions until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.sessions.Run(ctx)
	})

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Sync()
	return err
}
