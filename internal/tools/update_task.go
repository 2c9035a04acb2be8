package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// UpdateTaskTool handles the update_task MCP tool. Only the fields that
// are supplied are changed.
type UpdateTaskTool struct {
	store TaskStore
}

// NewUpdateTaskTool creates an UpdateTaskTool with the given task store.
func NewUpdateTaskTool(store TaskStore) *UpdateTaskTool {
	return &UpdateTaskTool{store: store}
}

// Definition returns the MCP tool definition for update_task.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription(
			"Change the title and/or description of a task by its numeric id. "+
				"Omitted fields keep their current value.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Owner of the task, taken from the USER_ID line of the prompt"),
		),
		mcp.WithNumber("task_id",
			mcp.Required(),
			mcp.Description("Numeric id of the task"),
		),
		mcp.WithString("title",
			mcp.Description("New title; must not be blank when supplied"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
	)
}

// Handle processes the update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, fail := userIDArg(req)
	if fail != nil {
		return fail, nil
	}
	id, fail := taskIDArg(req)
	if fail != nil {
		return fail, nil
	}

	task, err := t.store.UpdateTask(ctx, userID, id, optionalString(req, "title"), optionalString(req, "description"))
	if err != nil {
		return storeFailure("updating task", err)
	}
	return success(toolResponse{Task: task})
}
