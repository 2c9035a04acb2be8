package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/HendryAvila/taskchat/internal/agent"
	"github.com/HendryAvila/taskchat/internal/reply"
	"github.com/HendryAvila/taskchat/internal/store"
	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id"`
}

type chatResponse struct {
	Reply          string           `json:"reply"`
	ConversationID int64            `json:"conversation_id"`
	ToolCalls      []agent.ToolCall `json:"tool_calls"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")

	var req chatRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.errorResponse(w, http.StatusBadRequest, "Message is required")
		return
	}

	// The orchestrator falls back silently on unknown ids; the HTTP
	// contract rejects them instead.
	if req.ConversationID != nil {
		if _, err := s.conversations.GetConversation(r.Context(), owner, *req.ConversationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.errorResponse(w, http.StatusNotFound, "Conversation not found")
				return
			}
			s.fail(w, r, err)
			return
		}
	}

	res, err := s.chat.Turn(r.Context(), agent.TurnRequest{
		Owner:          owner,
		Message:        message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	calls := make([]reply.ToolCall, len(res.ToolCalls))
	for i, c := range res.ToolCalls {
		calls[i] = reply.ToolCall{Name: c.Name}
	}
	toolCalls := res.ToolCalls
	if toolCalls == nil {
		toolCalls = []agent.ToolCall{}
	}

	s.jsonResponse(w, http.StatusOK, chatResponse{
		Reply:          reply.Sanitize(res.Reply, calls, message),
		ConversationID: res.ConversationID,
		ToolCalls:      toolCalls,
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "user_id")
	raw := chi.URLParam(r, "conversation_id")
	id, ok := pathID(raw)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Conversation id %s not found", raw))
		return
	}

	msgs, err := s.conversations.ListMessages(r.Context(), owner, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, msgs)
}
