package negotiation

import "strings"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// ParseRole 解析外部传入的角色。"assistant" 与 "system" 视为同一方。
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser, true
	case "system", "assistant":
		return RoleSystem, true
	default:
		return "", false
	}
}

// Turn is a single message of the transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn builds a turn authored by the debtor.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// SystemTurn builds a turn authored by the negotiator.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// Offer describes a payment plan proposal or a settled agreement.
type Offer struct {
	MonthlyAmount int    `json:"monthly_amount"`
	TermMonths    int    `json:"term_months"`
	Label         string `json:"label"`
}

// State 是谈判引擎的工作内存，由调用方持有，只能通过引擎输出更新。
type State struct {
	Turns               []Turn         `json:"turns"`
	UserIntent          Intent         `json:"user_intent,omitempty"`
	EmotionalState      EmotionalState `json:"emotional_state,omitempty"`
	SecurityThreatLevel ThreatLevel    `json:"security_threat_level,omitempty"`
	NegotiationAttempts int            `json:"negotiation_attempts"`
	CurrentOffer        *Offer         `json:"current_offer,omitempty"`
	FinalAgreement      *Offer         `json:"final_agreement,omitempty"`
	ConversationEnded   bool           `json:"conversation_ended"`
}

// Clone returns a deep copy so callers can keep the pre-turn value.
func (s State) Clone() State {
	out := s
	out.Turns = append([]Turn(nil), s.Turns...)
	if s.CurrentOffer != nil {
		offer := *s.CurrentOffer
		out.CurrentOffer = &offer
	}
	if s.FinalAgreement != nil {
		agreement := *s.FinalAgreement
		out.FinalAgreement = &agreement
	}
	return out
}

// Normalize 将缺失或异常的字段回退为默认值：空转录、零次尝试、未知标签置空。
func (s State) Normalize() State {
	out := s.Clone()
	if out.Turns == nil {
		out.Turns = []Turn{}
	}

	turns := out.Turns[:0]
	for _, turn := range out.Turns {
		role, ok := ParseRole(string(turn.Role))
		if !ok {
			continue
		}
		turns = append(turns, Turn{Role: role, Content: turn.Content})
	}
	out.Turns = turns

	if out.NegotiationAttempts < 0 {
		out.NegotiationAttempts = 0
	}
	if out.UserIntent != IntentUnknown {
		if intent, ok := ParseIntent(string(out.UserIntent)); ok {
			out.UserIntent = intent
		} else {
			out.UserIntent = IntentUnknown
		}
	}
	if out.EmotionalState != EmotionUnknown {
		out.EmotionalState, _ = ParseEmotionalState(string(out.EmotionalState))
	}
	if out.SecurityThreatLevel != ThreatUnknown {
		out.SecurityThreatLevel, _ = ParseThreatLevel(string(out.SecurityThreatLevel))
	}
	if out.FinalAgreement != nil {
		out.ConversationEnded = true
		out.CurrentOffer = nil
	}
	return out
}

// LastTurn returns the most recent turn, if any.
func (s State) LastTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// LastMessage returns the content of the most recent turn or "".
func (s State) LastMessage() string {
	turn, _ := s.LastTurn()
	return turn.Content
}

// IsFirstContact reports a transcript holding exactly one user turn.
func (s State) IsFirstContact() bool {
	return len(s.Turns) == 1 && s.Turns[0].Role == RoleUser
}

// AwaitingOfferResponse 表示存在未接受的报价且最新一条消息来自用户。
func (s State) AwaitingOfferResponse() bool {
	if s.CurrentOffer == nil || s.FinalAgreement != nil || s.ConversationEnded {
		return false
	}
	last, ok := s.LastTurn()
	return ok && last.Role == RoleUser
}

// Window renders the last n turns as "role: content" lines.
func (s State) Window(n int) string {
	if n < 1 {
		n = 1
	}
	start := len(s.Turns) - n
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(s.Turns)-start)
	for _, turn := range s.Turns[start:] {
		lines = append(lines, string(turn.Role)+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
