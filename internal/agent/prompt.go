package agent

import (
	"strings"

	"github.com/HendryAvila/taskchat/internal/store"
)

// BuildPrompt serialises the turn for the model: the owner line, one line
// per history message, then the new user message.
//
//	USER_ID: alice
//	USER: add milk
//	ASSISTANT: Task added: milk
//	USER: list
func BuildPrompt(owner string, history []*store.Message, message string) string {
	lines := make([]string, 0, len(history)+2)
	lines = append(lines, "USER_ID: "+owner)
	for _, m := range history {
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
	}
	lines = append(lines, "USER: "+message)
	return strings.Join(lines, "\n")
}

func roleLabel(r store.Role) string {
	if r == store.RoleUser {
		return "USER"
	}
	return "ASSISTANT"
}
