package agent

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolSession is an initialized MCP client session. *client.Client
// satisfies it.
type ToolSession interface {
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// SessionFactory opens one tool session per turn.
type SessionFactory interface {
	Open(ctx context.Context) (ToolSession, error)
}

// clientInfo is announced to the tool server during initialize.
var clientInfo = mcp.Implementation{Name: "taskchat-agent", Version: "1"}

// ─── In-process ──────────────────────────────────────────────────────────────

// InProcessSessions binds each session directly to an MCP server running
// in this process.
type InProcessSessions struct {
	Server *server.MCPServer
}

func (f InProcessSessions) Open(ctx context.Context) (ToolSession, error) {
	c, err := client.NewInProcessClient(f.Server)
	if err != nil {
		return nil, fmt.Errorf("create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("start in-process client: %w", err)
	}
	if err := initialize(ctx, c); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// ─── Stdio ───────────────────────────────────────────────────────────────────

// StdioSessions spawns Command (normally `taskchat mcp`) per session and
// talks MCP over its stdin/stdout. Env is appended to the parent
// environment. The child's stderr is forwarded to Logger.
type StdioSessions struct {
	Command string
	Args    []string
	Env     []string
	Logger  *slog.Logger
}

func (f StdioSessions) Open(ctx context.Context) (ToolSession, error) {
	c, err := client.NewStdioMCPClient(f.Command, f.Env, f.Args...)
	if err != nil {
		return nil, fmt.Errorf("spawn tool server %s: %w", f.Command, err)
	}

	if stderr, ok := client.GetStderr(c); ok {
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		go func() {
			sc := bufio.NewScanner(stderr)
			for sc.Scan() {
				logger.Debug("tool server", "line", sc.Text())
			}
		}()
	}

	if err := initialize(ctx, c); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func initialize(ctx context.Context, c *client.Client) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = clientInfo
	if _, err := c.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initialize tool session: %w", err)
	}
	return nil
}
