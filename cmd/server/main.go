package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/domain/prompts"
	"github.com/isoplan/planner/internal/infrastructure/config"
	"github.com/isoplan/planner/internal/infrastructure/logging"
	"github.com/isoplan/planner/internal/infrastructure/server"
	"github.com/isoplan/planner/internal/infrastructure/tracing"
)

// serveFlags override the environment when set.
type serveFlags struct {
	port     string
	host     string
	dataFile string
	dev      bool
}

func main() {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "ISO 27001 certification planner",
		Long:          "Plan an ISO 27001 certification: checklists, implementation steps, an action plan and AI-assisted analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var flags serveFlags
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	f := serveCmd.Flags()
	f.StringVar(&flags.port, "port", "", "Server port (overrides PORT)")
	f.StringVar(&flags.host, "host", "", "Listen host (overrides HOST)")
	f.StringVar(&flags.dataFile, "data-file", "", "Plan data file (overrides DATA_FILE)")
	f.BoolVar(&flags.dev, "dev", false, "Development mode: colored debug logs")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the generation API answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd.Context())
		},
	}

	root.AddCommand(serveCmd, pingCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, err
		}
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.port != "" {
		cfg.Server.Port = flags.port
	}
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.dataFile != "" {
		cfg.Storage.DataFile = flags.dataFile
	}
	if flags.dev {
		cfg.Logging.Development = true
	}

	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	defer logger.Sync()

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create server", zap.Error(err))
		return err
	}
	return srv.Run(ctx)
}

func runPing(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	defer logger.Sync()

	gen, err := server.NewGenerator(ctx, cfg.Gemini)
	if err != nil {
		return err
	}
	dispatcher := server.NewDispatcher(cfg, gen, tracing.New("planner", logger.Logger), nil, logger)
	return ping(ctx, dispatcher, os.Stdout)
}

// ping sends the test prompt once and prints the answer to out.
func ping(ctx context.Context, dispatcher *ai.Dispatcher, out io.Writer) error {
	reply := dispatcher.Dispatch(ctx, ai.KindPing, ai.Request{Prompt: prompts.Ping})
	if reply.Failed {
		return fmt.Errorf("Kunde inte ansluta till API:et. Fel: %s", reply.Text)
	}
	fmt.Fprintln(out, "✅ API-anslutning fungerar!")
	fmt.Fprintln(out, reply.Text)
	return nil
}
