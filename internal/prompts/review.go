package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the todo_review MCP prompt.
// It asks the AI to walk the user through what is still open.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("todo_review",
		mcp.WithPromptDescription(
			"Review a user's pending tasks and suggest what to finish or drop next.",
		),
		mcp.WithArgument("user_id",
			mcp.ArgumentDescription("Owner whose tasks to review"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the todo_review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	userID := strings.TrimSpace(req.Params.Arguments["user_id"])
	if userID == "" {
		return nil, fmt.Errorf("user_id argument is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review pending tasks for %s", userID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Call `list_tasks` with user_id='%s' and status='pending'.\n\n"+
						"Then:\n"+
						"1. Show every pending task as `#<id> <title>`\n"+
						"2. Point out tasks that look stale or duplicated\n"+
						"3. Ask which ids to complete or delete, and use the tools for whatever I confirm",
					userID,
				)),
			},
		},
	}, nil
}
