package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// CompleteTaskTool handles the complete_task MCP tool.
// Completing an already completed task succeeds.
type CompleteTaskTool struct {
	store TaskStore
}

// NewCompleteTaskTool creates a CompleteTaskTool with the given task store.
func NewCompleteTaskTool(store TaskStore) *CompleteTaskTool {
	return &CompleteTaskTool{store: store}
}

// Definition returns the MCP tool definition for complete_task.
func (t *CompleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription(
			"Mark a task as completed by its numeric id. Never guess the id from a title; "+
				"call list_tasks first if the id is unknown.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Owner of the task, taken from the USER_ID line of the prompt"),
		),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("Numeric id of the task"),
		),
	)
}

// Handle processes the complete_task tool call.
func (t *CompleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, fail := userIDArg(req)
	if fail != nil {
		return fail, nil
	}
	id, fail := taskIDArg(req)
	if fail != nil {
		return fail, nil
	}

	task, err := t.store.CompleteTask(ctx, userID, id)
	if err != nil {
		return storeFailure("completing task", err)
	}
	return success(toolResponse{Task: task})
}
