package agent

import "errors"

var (
	// ErrConfiguration means the model cannot be called at all, usually
	// because its credential is missing. Nothing is persisted.
	ErrConfiguration = errors.New("agent not configured")

	// ErrAgentInvocation wraps any failure of the model turn, including
	// timeouts. The user message of the turn stays persisted.
	ErrAgentInvocation = errors.New("agent invocation failed")

	errStepLimit = errors.New("tool step limit reached")
)
