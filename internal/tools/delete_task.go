package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteTaskTool handles the delete_task MCP tool.
type DeleteTaskTool struct {
	store TaskStore
}

// NewDeleteTaskTool creates a DeleteTaskTool with the given task store.
func NewDeleteTaskTool(store TaskStore) *DeleteTaskTool {
	return &DeleteTaskTool{store: store}
}

// Definition returns the MCP tool definition for delete_task.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription(
			"Permanently delete a task by its numeric id. Never guess the id from a title; "+
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

// Handle processes the delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, fail := userIDArg(req)
	if fail != nil {
		return fail, nil
	}
	id, fail := taskIDArg(req)
	if fail != nil {
		return fail, nil
	}

	if err := t.store.DeleteTask(ctx, userID, id); err != nil {
		return storeFailure("deleting task", err)
	}
	return success(toolResponse{})
}
