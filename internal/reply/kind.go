package reply

import "strings"

// Kind is the mutation a turn performed, as far as the sanitizer can tell.
type Kind int

const (
	KindNone Kind = iota
	KindAdd
	KindComplete
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindComplete:
		return "complete"
	case KindDelete:
		return "delete"
	default:
		return "none"
	}
}

// toolKinds covers the tool names this server registers plus the common
// aliases other task servers use.
var toolKinds = map[string]Kind{
	"add_task":        KindAdd,
	"create_task":     KindAdd,
	"complete_task":   KindComplete,
	"toggle_complete": KindComplete,
	"delete_task":     KindDelete,
	"remove_task":     KindDelete,
	"list_tasks":      KindNone,
	"update_task":     KindNone,
}

// ToolKind maps a tool name onto a Kind. Known names match exactly;
// unknown names fall back to keyword probing.
func ToolKind(name string) Kind {
	n := strings.ToLower(strings.TrimSpace(name))
	if k, ok := toolKinds[n]; ok {
		return k
	}
	switch {
	case strings.Contains(n, "add"), strings.Contains(n, "create"):
		return KindAdd
	case strings.Contains(n, "complete"), strings.Contains(n, "toggle"):
		return KindComplete
	case strings.Contains(n, "delete"), strings.Contains(n, "remove"):
		return KindDelete
	default:
		return KindNone
	}
}

// CommandKind infers a Kind from keywords in the user's message, checked
// in the order add/create, complete, delete/remove.
func CommandKind(cmd string) Kind {
	lc := strings.ToLower(cmd)
	switch {
	case strings.Contains(lc, "add"), strings.Contains(lc, "create"):
		return KindAdd
	case strings.Contains(lc, "complete"):
		return KindComplete
	case strings.Contains(lc, "delete"), strings.Contains(lc, "remove"):
		return KindDelete
	default:
		return KindNone
	}
}

// Classify picks the turn's Kind: the first tool call that maps to a
// mutation wins, otherwise the command keywords decide.
func Classify(calls []ToolCall, cmd string) Kind {
	for _, c := range calls {
		if k := ToolKind(c.Name); k != KindNone {
			return k
		}
	}
	return CommandKind(cmd)
}
