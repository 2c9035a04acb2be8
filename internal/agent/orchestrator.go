// Package agent runs one chat turn: it resolves the conversation, builds
// the prompt from a bounded history window, lets the language model act
// through the MCP task tools and records both sides of the exchange.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HendryAvila/taskchat/internal/config"
	"github.com/HendryAvila/taskchat/internal/prompts"
	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/google/uuid"
)

// emptyReply replaces a blank model answer before it is stored.
const emptyReply = "OK"

// ConversationStore is the persistence the orchestrator needs. It has no
// task operations: tasks change only through the tool session.
type ConversationStore interface {
	GetConversation(ctx context.Context, owner string, id int64) (*store.Conversation, error)
	LatestConversation(ctx context.Context, owner string) (*store.Conversation, error)
	CreateConversation(ctx context.Context, owner string) (*store.Conversation, error)
	AppendMessage(ctx context.Context, owner string, conversationID int64, role store.Role, content string) (*store.Message, error)
	RecentMessages(ctx context.Context, owner string, conversationID int64, limit int) ([]*store.Message, error)
}

// Invoker runs the model for one turn. *Runner implements it.
type Invoker interface {
	Run(ctx context.Context, owner, system, prompt string) (*RunResult, error)
}

// TurnRequest is one user message addressed to the agent.
type TurnRequest struct {
	Owner          string
	Message        string
	ConversationID *int64
}

// TurnResult is what a completed turn produced. Reply is the raw model
// text as stored, before any client-facing rewriting.
type TurnResult struct {
	ConversationID int64
	Reply          string
	ToolCalls      []ToolCall
	Resolution     Resolution
}

// Orchestrator walks a turn through its states.
type Orchestrator struct {
	cfg           *config.Config
	conversations ConversationStore
	invoker       Invoker
	logger        *slog.Logger
}

// NewOrchestrator creates an Orchestrator. invoker may be nil when no
// model could be built; turns then fail with ErrConfiguration.
func NewOrchestrator(cfg *config.Config, conversations ConversationStore, invoker Invoker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:           cfg,
		conversations: conversations,
		invoker:       invoker,
		logger:        logger.With("component", "agent"),
	}
}

// Turn runs one chat turn. A missing credential fails before anything is
// stored. An agent failure leaves the user message stored and no reply.
func (o *Orchestrator) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if !o.cfg.HasCredential() {
		return nil, fmt.Errorf("%w: %s missing in env", ErrConfiguration, o.cfg.CredentialEnv())
	}
	if o.invoker == nil {
		return nil, fmt.Errorf("%w: no language model available", ErrConfiguration)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", store.ErrValidation)
	}

	log := o.logger.With("turn_id", uuid.NewString(), "user_id", req.Owner)
	enter := func(s TurnState) { log.Debug("turn state", "state", s.String()) }

	// --- RESOLVE_CONVERSATION ---
	enter(StateResolveConversation)
	conv, resolution, err := o.resolve(ctx, req.Owner, req.ConversationID)
	if err != nil {
		return nil, err
	}
	log = log.With("conversation_id", conv.ID)

	// --- LOAD_HISTORY ---
	enter(StateLoadHistory)
	history, err := o.conversations.RecentMessages(ctx, req.Owner, conv.ID, o.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// --- PERSIST_USER_MESSAGE ---
	enter(StatePersistUserMessage)
	if _, err := o.conversations.AppendMessage(ctx, req.Owner, conv.ID, store.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	// --- BUILD_PROMPT ---
	enter(StateBuildPrompt)
	prompt := BuildPrompt(req.Owner, history, req.Message)

	// --- INVOKE_AGENT ---
	enter(StateInvokeAgent)
	runCtx, cancel := context.WithTimeout(ctx, o.cfg.AgentTimeout)
	defer cancel()
	run, err := o.invoker.Run(runCtx, req.Owner, prompts.Instructions(), prompt)
	if err != nil {
		log.Warn("agent invocation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAgentInvocation, err)
	}
	reply := run.Reply
	if strings.TrimSpace(reply) == "" {
		reply = emptyReply
	}

	// --- PERSIST_ASSISTANT_MESSAGE ---
	enter(StatePersistAssistantMessage)
	if _, err := o.conversations.AppendMessage(ctx, req.Owner, conv.ID, store.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	enter(StateDone)
	log.Info("turn complete", "resolution", resolution.String(), "tool_calls", len(run.ToolCalls))

	return &TurnResult{
		ConversationID: conv.ID,
		Reply:          reply,
		ToolCalls:      run.ToolCalls,
		Resolution:     resolution,
	}, nil
}

// resolve finds the turn's conversation. An unknown or foreign id falls
// back to the latest conversation, then to a new one.
func (o *Orchestrator) resolve(ctx context.Context, owner string, id *int64) (*store.Conversation, Resolution, error) {
	if id != nil {
		conv, err := o.conversations.GetConversation(ctx, owner, *id)
		if err == nil {
			return conv, ResolveExplicitID, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, 0, fmt.Errorf("resolve conversation: %w", err)
		}
	}

	conv, err := o.conversations.LatestConversation(ctx, owner)
	if err == nil {
		return conv, ResolveLatest, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("resolve conversation: %w", err)
	}

	conv, err = o.conversations.CreateConversation(ctx, owner)
	if err != nil {
		return nil, 0, fmt.Errorf("create conversation: %w", err)
	}
	return conv, ResolveCreateNew, nil
}
