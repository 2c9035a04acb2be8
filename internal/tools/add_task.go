package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// AddTaskTool handles the add_task MCP tool.
type AddTaskTool struct {
	store TaskStore
}

// NewAddTaskTool creates an AddTaskTool with the given task store.
func NewAddTaskTool(store TaskStore) *AddTaskTool {
	return &AddTaskTool{store: store}
}

// Definition returns the MCP tool definition for add_task.
func (t *AddTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription(
			"Create a new task for the user. Returns the created task including its numeric id.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Owner of the task, taken from the USER_ID line of the prompt"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title; must not be blank"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description"),
		),
	)
}

// Handle processes the add_task tool call.
func (t *AddTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, fail := userIDArg(req)
	if fail != nil {
		return fail, nil
	}

	task, err := t.store.AddTask(ctx, userID, req.GetString("title", ""), optionalString(req, "description"))
	if err != nil {
		return storeFailure("adding task", err)
	}
	return success(toolResponse{Task: task})
}
