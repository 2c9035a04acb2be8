package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/llms"
)

// ownerArg is the tool argument that scopes every task operation.
const ownerArg = "user_id"

// ToolCall records one tool invocation made by the model during a turn.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	IsError   bool           `json:"is_error"`
}

// RunResult is the outcome of one agent invocation.
type RunResult struct {
	Reply     string
	ToolCalls []ToolCall
}

// Runner drives a chat model through the tool-calling loop against an
// MCP tool session. The session is the model's only way to touch tasks.
type Runner struct {
	model    ChatModel
	sessions SessionFactory
	maxSteps int
	logger   *slog.Logger
}

// NewRunner creates a Runner. maxSteps bounds the number of model calls
// per turn.
func NewRunner(model ChatModel, sessions SessionFactory, maxSteps int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Runner{
		model:    model,
		sessions: sessions,
		maxSteps: maxSteps,
		logger:   logger.With("component", "runner"),
	}
}

// Run sends system and prompt to the model and executes the tool calls it
// asks for until it answers in plain text. Tool calls always run as owner,
// whatever user_id the model supplied.
func (r *Runner) Run(ctx context.Context, owner, system, prompt string) (*RunResult, error) {
	session, err := r.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	tools, scoped := convertTools(listed.Tools)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	result := &RunResult{}

	for step := 0; step < r.maxSteps; step++ {
		resp, err := r.model.GenerateContent(ctx, messages, llms.WithTools(tools))
		if err != nil {
			return nil, fmt.Errorf("generate (step %d): %w", step, err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("model returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			result.Reply = choice.Content
			return result, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			call, content := r.callTool(ctx, session, owner, scoped, tc.FunctionCall)
			result.ToolCalls = append(result.ToolCalls, call)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    content,
				}},
			})
		}
	}

	return nil, fmt.Errorf("%w after %d steps", errStepLimit, r.maxSteps)
}

// callTool executes one function call and returns its record plus the
// text fed back to the model. Failures become error payloads so the model
// can recover within the turn.
func (r *Runner) callTool(ctx context.Context, session ToolSession, owner string, scoped map[string]bool, fc *llms.FunctionCall) (ToolCall, string) {
	call := ToolCall{Name: fc.Name, Arguments: map[string]any{}}

	if raw := strings.TrimSpace(fc.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &call.Arguments); err != nil {
			call.IsError = true
			return call, errorPayload("arguments are not a JSON object")
		}
		// "null" decodes to a nil map.
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
	}
	if scoped[fc.Name] {
		call.Arguments[ownerArg] = owner
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = fc.Name
	req.Params.Arguments = call.Arguments

	res, err := session.CallTool(ctx, req)
	if err != nil {
		r.logger.Warn("tool call failed", "tool", fc.Name, "error", err)
		call.IsError = true
		return call, errorPayload(err.Error())
	}
	call.IsError = res.IsError
	r.logger.Debug("tool call", "tool", fc.Name, "is_error", res.IsError)
	return call, resultText(res)
}

// convertTools maps MCP tool definitions onto langchaingo function tools
// and reports which tools take an owner argument.
func convertTools(in []mcp.Tool) ([]llms.Tool, map[string]bool) {
	out := make([]llms.Tool, 0, len(in))
	scoped := make(map[string]bool, len(in))
	for _, t := range in {
		var params any = t.InputSchema
		if len(t.RawInputSchema) > 0 {
			params = t.RawInputSchema
		} else if _, ok := t.InputSchema.Properties[ownerArg]; ok {
			scoped[t.Name] = true
		}
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out, scoped
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func errorPayload(msg string) string {
	data, _ := json.Marshal(map[string]any{"ok": false, "error": msg})
	return string(data)
}
