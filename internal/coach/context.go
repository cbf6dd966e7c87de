// Package coach shapes conversation requests for the external coaching
// responder. It performs no inference itself.
package coach

import "strings"

// Chat role labels. The builder collapses every other label to RoleUser.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is the bounded payload handed to the responder.
type Context struct {
	HomeID   int64     `json:"home_id"`
	Messages []Message `json:"messages"`
}

// BuildContext truncates the history to the most recent maxTurns turns,
// preserving order, normalizes role labels, and attaches the home id.
func BuildContext(history []Message, homeID int64, maxTurns int) Context {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	messages := make([]Message, 0, len(history))
	for _, m := range history {
		role := RoleUser
		if strings.EqualFold(strings.TrimSpace(m.Role), RoleAssistant) {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}

	return Context{HomeID: homeID, Messages: messages}
}
