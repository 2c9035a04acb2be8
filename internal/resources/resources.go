// Package resources implements MCP resource handlers for taskchat.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (todo://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// TaskURITemplate addresses one user's task list.
const TaskURITemplate = "todo://users/{user_id}/tasks"

const (
	taskURIPrefix = "todo://users/"
	taskURISuffix = "/tasks"
)

// TaskLister is the read side of the task store.
type TaskLister interface {
	ListTasks(ctx context.Context, owner string, filter store.StatusFilter) ([]*store.Task, error)
}

// Handler manages task resource endpoints.
type Handler struct {
	tasks TaskLister
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(tasks TaskLister) *Handler {
	return &Handler{tasks: tasks}
}

// TasksTemplate returns the MCP resource template for a user's tasks.
func (h *Handler) TasksTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		TaskURITemplate,
		"User tasks",
		mcp.WithTemplateDescription("All tasks of one user in creation order, as JSON"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleTasks returns the user's tasks as JSON.
func (h *Handler) HandleTasks(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	userID, err := userFromURI(req.Params.URI)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	tasks, err := h.tasks.ListTasks(ctx, userID, store.StatusAll)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tasks: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// userFromURI extracts the path-escaped user id from a task URI.
func userFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, taskURIPrefix) || !strings.HasSuffix(uri, taskURISuffix) {
		return "", fmt.Errorf("unsupported resource uri %q", uri)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(uri, taskURIPrefix), taskURISuffix)
	if raw == "" || strings.Contains(raw, "/") {
		return "", fmt.Errorf("resource uri %q has no user id", uri)
	}
	userID, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("resource uri %q: %w", uri, err)
	}
	return userID, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
