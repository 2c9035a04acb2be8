// Package reply rewrites the model's free-text answer into a short,
// deterministic confirmation for the chat client.
//
// The rewrite is a fixed pipeline; each step works on the previous
// step's output:
//
//  1. blank reply becomes "OK"
//  2. cut at the first verbose preamble ("Here are your updated tasks", ...)
//  3. drop a trailing "Let me know if you need anything else"
//  4. unwrap **bold** and __bold__ spans
//  5. when a named tool was called, answer with a one-line confirmation
//     chosen by mutation kind
//  6. otherwise keep at most two lines and 240 runes
//  7. bare acknowledgements ("ok", "okay", ...) become an intent-specific
//     constant picked from the user's command prefix
package reply

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ToolCall is the part of a reported tool invocation the sanitizer reads.
type ToolCall struct {
	Name string
}

// Fixed replies.
const (
	ReplyEmpty     = "OK"
	ReplyAdded     = "Task added."
	ReplyCompleted = "Task completed."
	ReplyDeleted   = "Task deleted."
	ReplyDone      = "Done."

	addedWithTitle = "Task added: "
)

const (
	maxLines = 2
	maxRunes = 240
	ellipsis = "..."
)

// Sanitize runs the rewrite pipeline over raw. calls are the tool calls
// made during the turn, userText is the user's literal message.
func Sanitize(raw string, calls []ToolCall, userText string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ReplyEmpty
	}

	text = cutPreambles(text)
	text = stripFiller(text)
	text = stripEmphasis(text)

	cmd := strings.TrimSpace(userText)
	if hasNamedCall(calls) {
		switch Classify(calls, cmd) {
		case KindAdd:
			return addedReply(cmd)
		case KindComplete:
			return ReplyCompleted
		case KindDelete:
			return ReplyDeleted
		case KindNone:
		}
	}

	text = shorten(text)
	if isBareAck(text) {
		return ackFor(cmd)
	}
	return text
}

// ─── Preambles ───────────────────────────────────────────────────────────────

// Preamble is a phrase that introduces a task dump the client does not want.
type Preamble int

const (
	PreambleUpdatedTasksHere Preamble = iota // "Here are your updated tasks"
	PreambleUpdatedTasks                     // "Updated tasks"
	PreambleYourTasks                        // "Here are your tasks"
)

// Preambles lists every preamble in the order they are cut.
var Preambles = []Preamble{PreambleUpdatedTasksHere, PreambleUpdatedTasks, PreambleYourTasks}

// Phrase returns the literal phrase, matched case-insensitively on word
// boundaries.
func (p Preamble) Phrase() string {
	switch p {
	case PreambleUpdatedTasksHere:
		return "Here are your updated tasks"
	case PreambleUpdatedTasks:
		return "Updated tasks"
	case PreambleYourTasks:
		return "Here are your tasks"
	default:
		return ""
	}
}

var preamblePatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Preambles))
	for i, p := range Preambles {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p.Phrase()) + `\b[:\-]?`)
	}
	return out
}()

func cutPreambles(text string) string {
	for _, re := range preamblePatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[:loc[0]])
		}
	}
	return text
}

// ─── Filler and emphasis ─────────────────────────────────────────────────────

var (
	fillerPattern = regexp.MustCompile(`(?i)\s*Let me know if you need anything else[!.]?\s*$`)
	boldStars     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnders    = regexp.MustCompile(`__(.*?)__`)
)

func stripFiller(text string) string {
	return strings.TrimSpace(fillerPattern.ReplaceAllString(text, ""))
}

func stripEmphasis(text string) string {
	text = boldStars.ReplaceAllString(text, "$1")
	text = boldUnders.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// ─── Confirmations ───────────────────────────────────────────────────────────

var addCommand = regexp.MustCompile(`(?is)^add\s+(.+)$`)

// addedReply names the task when the command reads "add <title>".
func addedReply(cmd string) string {
	m := addCommand.FindStringSubmatch(cmd)
	if m == nil {
		return ReplyAdded
	}
	title := strings.TrimSpace(m[1])
	title = strings.Trim(title, `"`)
	title = strings.Trim(title, `'`)
	if title == "" {
		return ReplyAdded
	}
	return addedWithTitle + title
}

func hasNamedCall(calls []ToolCall) bool {
	for _, c := range calls {
		if strings.TrimSpace(c.Name) != "" {
			return true
		}
	}
	return false
}

// ─── Length limits ───────────────────────────────────────────────────────────

func shorten(text string) string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) > maxLines {
		text = strings.Join(lines[:maxLines], " ")
	}

	if utf8.RuneCountInString(text) > maxRunes {
		runes := []rune(text)
		text = strings.TrimRight(string(runes[:maxRunes-len(ellipsis)]), " \t\r\n") + ellipsis
	}
	return text
}

// ─── Acknowledgements ────────────────────────────────────────────────────────

var bareAcks = map[string]bool{
	"":          true,
	"ok":        true,
	"okay":      true,
	"ok ok":     true,
	"okay okay": true,
}

func isBareAck(text string) bool {
	return bareAcks[strings.ToLower(strings.TrimSpace(text))]
}

func ackFor(cmd string) string {
	lc := strings.ToLower(cmd)
	switch {
	case strings.HasPrefix(lc, "add "):
		return ReplyAdded
	case strings.HasPrefix(lc, "delete "):
		return ReplyDeleted
	case strings.HasPrefix(lc, "complete "):
		return ReplyCompleted
	default:
		return ReplyDone
	}
}
