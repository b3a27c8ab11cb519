package chat

import "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"

// Message is the transcript entry exchanged with the frontend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FromTurns converts engine turns to wire messages, reporting system turns as "assistant".
func FromTurns(turns []negotiation.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, turn := range turns {
		role := string(turn.Role)
		if turn.Role == negotiation.RoleSystem {
			role = "assistant"
		}
		out = append(out, Message{Role: role, Content: turn.Content})
	}
	return out
}

// ToTurns converts wire messages to engine turns, dropping unknown roles.
func ToTurns(messages []Message) []negotiation.Turn {
	out := make([]negotiation.Turn, 0, len(messages))
	for _, msg := range messages {
		role, ok := negotiation.ParseRole(msg.Role)
		if !ok {
			continue
		}
		out = append(out, negotiation.Turn{Role: role, Content: msg.Content})
	}
	return out
}
