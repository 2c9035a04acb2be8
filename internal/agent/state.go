package agent

// TurnState is a step of one chat turn. A turn walks the states in
// declaration order and stops early on the first error.
type TurnState int

const (
	StateResolveConversation TurnState = iota
	StateLoadHistory
	StatePersistUserMessage
	StateBuildPrompt
	StateInvokeAgent
	StatePersistAssistantMessage
	StateDone
)

func (s TurnState) String() string {
	switch s {
	case StateResolveConversation:
		return "RESOLVE_CONVERSATION"
	case StateLoadHistory:
		return "LOAD_HISTORY"
	case StatePersistUserMessage:
		return "PERSIST_USER_MESSAGE"
	case StateBuildPrompt:
		return "BUILD_PROMPT"
	case StateInvokeAgent:
		return "INVOKE_AGENT"
	case StatePersistAssistantMessage:
		return "PERSIST_ASSISTANT_MESSAGE"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Resolution records how a turn found its conversation.
type Resolution int

const (
	// ResolveExplicitID: the supplied id exists and belongs to the user.
	ResolveExplicitID Resolution = iota
	// ResolveLatest: no usable id was supplied; the user's newest
	// conversation was reused.
	ResolveLatest
	// ResolveCreateNew: the user had no conversation yet.
	ResolveCreateNew
)

func (r Resolution) String() string {
	switch r {
	case ResolveExplicitID:
		return "EXPLICIT_ID"
	case ResolveLatest:
		return "LATEST"
	case ResolveCreateNew:
		return "CREATE_NEW"
	default:
		return "UNKNOWN"
	}
}
