// Package server wires the task tools, prompts and resources into an MCP
// server instance.
//
// This is the composition root for the tool side: it receives the
// concrete store and injects it into the handlers that depend on
// interfaces. No business logic lives here, only wiring.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/HendryAvila/taskchat/internal/prompts"
	"github.com/HendryAvila/taskchat/internal/resources"
	"github.com/HendryAvila/taskchat/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Name is the MCP server name announced during initialize.
const Name = "taskchat"

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all task tools, prompts and resources
// registered. The same server backs `taskchat mcp` (stdio) and the
// in-process transport used by the chat agent.
func New(tasks tools.TaskStore, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(prompts.Instructions()),
	)

	// --- Register task tools ---

	for _, tool := range tools.All(tasks) {
		def := tool.Definition()
		s.AddTool(def, logged(logger, def.Name, tool.Handle))
	}

	// --- Register prompts ---

	agentPrompt := prompts.NewAgentPrompt()
	s.AddPrompt(agentPrompt.Definition(), agentPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(tasks)
	s.AddResourceTemplate(resourceHandler.TasksTemplate(), resourceHandler.HandleTasks)

	return s
}

// logged wraps a tool handler with a debug line per call and a warning
// for tool-level and Go errors.
func logged(logger *slog.Logger, name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := next(ctx, req)

		attrs := []any{"tool", name, "duration", time.Since(start)}
		switch {
		case err != nil:
			logger.Warn("tool call failed", append(attrs, "error", err)...)
		case res != nil && res.IsError:
			logger.Debug("tool call rejected", attrs...)
		default:
			logger.Debug("tool call", attrs...)
		}
		return res, err
	}
}
