package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// AgentPrompt handles the todo_agent MCP prompt.
// It hands an external MCP client the same instructions the built-in
// chat agent runs with, bound to one user.
type AgentPrompt struct{}

// NewAgentPrompt creates an AgentPrompt.
func NewAgentPrompt() *AgentPrompt {
	return &AgentPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *AgentPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("todo_agent",
		mcp.WithPromptDescription(
			"Act as the todo chatbot for one user: manage their tasks only through the task tools.",
		),
		mcp.WithArgument("user_id",
			mcp.ArgumentDescription("Owner whose tasks the conversation manages"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the todo_agent prompt request.
func (p *AgentPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	userID := strings.TrimSpace(req.Params.Arguments["user_id"])
	if userID == "" {
		return nil, fmt.Errorf("user_id argument is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Todo chatbot for %s", userID),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(Instructions() + "\n\nUSER_ID: " + userID),
			},
		},
	}, nil
}
