package tools

import (
	"context"

	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListTasksTool handles the list_tasks MCP tool.
type ListTasksTool struct {
	store TaskStore
}

// NewListTasksTool creates a ListTasksTool with the given task store.
func NewListTasksTool(store TaskStore) *ListTasksTool {
	return &ListTasksTool{store: store}
}

// Definition returns the MCP tool definition for list_tasks.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription(
			"List the user's tasks in creation order. Every task carries its numeric id; "+
				"show ids to the user and use them for complete, delete and update.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Owner of the tasks, taken from the USER_ID line of the prompt"),
		),
		mcp.WithString("status",
			mcp.Description("Optional filter: pending (also incomplete, open) or completed (also done, closed). Omit for all tasks."),
		),
	)
}

// Handle processes the list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, fail := userIDArg(req)
	if fail != nil {
		return fail, nil
	}

	filter := store.ParseStatusFilter(req.GetString("status", ""))
	tasks, err := t.store.ListTasks(ctx, userID, filter)
	if err != nil {
		return storeFailure("listing tasks", err)
	}
	return listResult(tasks)
}
