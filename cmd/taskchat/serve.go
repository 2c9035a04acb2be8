package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/taskchat/internal/agent"
	"github.com/HendryAvila/taskchat/internal/api"
	"github.com/HendryAvila/taskchat/internal/config"
	"github.com/HendryAvila/taskchat/internal/server"
	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		defer closeLog()
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	sessions, err := toolSessions(cfg, st, logger)
	if err != nil {
		return err
	}

	// Without a model the CRUD routes still work; chat turns report
	// the missing configuration per request.
	var invoker agent.Invoker
	if model, err := agent.NewModel(cfg); err != nil {
		logger.Warn("chat disabled", "error", err)
	} else {
		invoker = agent.NewRunner(model, sessions, cfg.AgentMaxSteps, logger)
	}

	orch := agent.NewOrchestrator(cfg, st, invoker, logger)
	srv := api.NewServer(cfg, st, st, orch, logger)

	logger.Info("starting taskchat",
		"version", server.Version,
		"provider", cfg.LLMProvider,
		"model", cfg.Model,
		"tool_transport", cfg.ToolTransport,
	)
	return srv.Run(ctx)
}

// toolSessions picks how the agent reaches the task tools.
func toolSessions(cfg *config.Config, st *store.Store, logger *slog.Logger) (agent.SessionFactory, error) {
	switch cfg.ToolTransport {
	case config.TransportInProcess:
		return agent.InProcessSessions{Server: server.New(st, logger)}, nil
	default:
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating executable for stdio tools: %w", err)
		}
		return agent.StdioSessions{
			Command: exe,
			Args:    []string{"mcp"},
			Env:     []string{"DATABASE_URL=" + cfg.DatabaseURL},
			Logger:  logger.With("component", "tool-server"),
		}, nil
	}
}
