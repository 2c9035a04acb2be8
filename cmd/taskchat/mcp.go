package main

import (
	"context"
	"fmt"

	"github.com/HendryAvila/taskchat/internal/config"
	"github.com/HendryAvila/taskchat/internal/server"
	"github.com/HendryAvila/taskchat/internal/store"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the task tools over MCP stdio",
	Long: `Serve the task tools, the todo_agent prompt and the task resource over
MCP on stdin/stdout. Logs go to stderr only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// No log file: the parent's serve process may own it.
		logger, _ := config.SetupLogger("", cfg.LogLevel)

		st, err := store.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		return mcpserver.ServeStdio(server.New(st, logger))
	},
}
