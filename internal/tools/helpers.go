// Package tools implements the MCP tool handlers the chat agent uses to
// read and mutate a user's tasks.
//
// Each tool is a struct that receives its dependencies through the
// constructor and exposes Definition() and Handle():
// - one file per tool
// - tools depend on the TaskStore interface, not on *store.Store
// - user_id is a required argument of every tool; the agent is told the
//   value in its prompt and the store scopes every query by it
//
// Results are JSON text. Domain failures (unknown id, empty title) are
// tool errors carrying {"ok":false,"error":...} so the model can read the
// reason and recover; only infrastructure faults become Go errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// TaskStore is the subset of the store the tools need.
type TaskStore interface {
	AddTask(ctx context.Context, owner, title string, description *string) (*store.Task, error)
	ListTasks(ctx context.Context, owner string, filter store.StatusFilter) ([]*store.Task, error)
	CompleteTask(ctx context.Context, owner string, id int64) (*store.Task, error)
	DeleteTask(ctx context.Context, owner string, id int64) error
	UpdateTask(ctx context.Context, owner string, id int64, title, description *string) (*store.Task, error)
}

// Tool is implemented by every handler in this package.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// All returns every task tool bound to ts, in registration order.
func All(ts TaskStore) []Tool {
	return []Tool{
		NewAddTaskTool(ts),
		NewListTasksTool(ts),
		NewCompleteTaskTool(ts),
		NewDeleteTaskTool(ts),
		NewUpdateTaskTool(ts),
	}
}

// ─── Arguments ───────────────────────────────────────────────────────────────

// userIDArg returns the trimmed user_id argument or a tool error result.
func userIDArg(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	userID := strings.TrimSpace(req.GetString("user_id", ""))
	if userID == "" {
		return "", failure("user_id is required")
	}
	return userID, nil
}

// taskIDArg extracts task_id. JSON numbers arrive as float64; some models
// send numeric strings, which are accepted too.
func taskIDArg(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	switch v := req.GetArguments()["task_id"].(type) {
	case float64:
		if v == math.Trunc(v) && v > 0 && v < math.MaxInt64 {
			return int64(v), nil
		}
	case string:
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
			return id, nil
		}
	case nil:
		return 0, failure("task_id is required")
	}
	return 0, failure("task_id must be a positive integer")
}

// optionalString returns nil when key is absent or null, so callers can
// tell "not supplied" apart from "set to empty".
func optionalString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// ─── Results ─────────────────────────────────────────────────────────────────

type toolResponse struct {
	OK    bool          `json:"ok"`
	Task  *store.Task   `json:"task,omitempty"`
	Tasks []*store.Task `json:"tasks,omitempty"`
	Error string        `json:"error,omitempty"`
}

func success(resp toolResponse) (*mcp.CallToolResult, error) {
	resp.OK = true
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// listResult always emits a tasks array, even when empty.
func listResult(tasks []*store.Task) (*mcp.CallToolResult, error) {
	if tasks == nil {
		tasks = []*store.Task{}
	}
	data, err := json.Marshal(struct {
		OK    bool          `json:"ok"`
		Tasks []*store.Task `json:"tasks"`
	}{OK: true, Tasks: tasks})
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func failure(msg string) *mcp.CallToolResult {
	data, _ := json.Marshal(toolResponse{Error: msg})
	return mcp.NewToolResultError(string(data))
}

// storeFailure turns domain errors into tool errors and passes anything
// else back as a Go error.
func storeFailure(op string, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrValidation) {
		return failure(domainMessage(err)), nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// domainMessage strips the sentinel suffix wording down to something a
// model can act on: "task id 7 not found", "title is required".
func domainMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, store.ErrValidation) {
		msg = strings.TrimSuffix(msg, ": "+store.ErrValidation.Error())
	}
	return msg
}
