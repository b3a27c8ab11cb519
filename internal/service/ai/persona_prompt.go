package ai

import (
	"fmt"
	"strings"

	labels "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
)

// PromptManager builds the per-intent prompts for the negotiation chain.
type PromptManager struct {
	personas     persona.Store
	historyLimit int
}

// NewPromptManager creates a prompt manager backed by the persona catalogue.
func NewPromptManager(personas persona.Store, historyLimit int) *PromptManager {
	if personas == nil {
		personas = persona.NewMemoryStore(persona.Seed())
	}
	if historyLimit < 1 {
		historyLimit = 5
	}
	return &PromptManager{personas: personas, historyLimit: historyLimit}
}

// GenerationSystemPrompt 组合通用谈判规则与当前用户画像的应对策略。
func (pm *PromptManager) GenerationSystemPrompt(intent labels.Intent) string {
	return fmt.Sprintf(`%s

Debtor profile: %s

Strategy: %s

Guidance:
- %s`,
		negotiatorBasePrompt,
		pm.describe(intent),
		pm.strategy(intent),
		pm.hint(intent),
	)
}

// OpeningSystemPrompt is the system prompt of the first reply.
func (pm *PromptManager) OpeningSystemPrompt(intent labels.Intent) string {
	return fmt.Sprintf(`%s

This is the first reply of the conversation. Acknowledge the debtor's message, stay warm and professional,
and invite them to discuss a way to resolve the balance. Do not make a specific offer yet.

Debtor profile: %s`,
		negotiatorBasePrompt,
		pm.describe(intent),
	)
}

// OpeningQuery renders the opening request.
func (pm *PromptManager) OpeningQuery(in negotiation.OpeningInput) string {
	return fmt.Sprintf("Debtor message:\n%s\n\nEmotional state: %s\n\nWrite the opening reply.",
		strings.TrimSpace(in.UserMessage), orNone(string(in.EmotionalState)))
}

// GenerationQuery renders a negotiation reply request.
func (pm *PromptManager) GenerationQuery(in negotiation.GenerationInput) string {
	return fmt.Sprintf(`Recent conversation:
%s

Debtor message:
%s

Emotional state: %s
Negotiation stage: %s
Offer to present: %s
Offers made so far: %d

Write the next reply. If an offer is given, state it exactly as written.`,
		pm.history(in.History),
		strings.TrimSpace(in.UserMessage),
		orNone(string(in.EmotionalState)),
		orNone(in.ContextNote),
		orNone(in.OfferLabel),
		in.AttemptCount,
	)
}

// TurnQuery renders a turn classification request.
func (pm *PromptManager) TurnQuery(in negotiation.TurnInput) string {
	return fmt.Sprintf("Recent conversation:\n%s\n\nPrior offers: %s\nOffers made so far: %d\n\nLatest debtor message:\n%s",
		pm.history(in.Context),
		orNone(strings.Join(in.PriorOffers, "; ")),
		in.AttemptCount,
		strings.TrimSpace(in.Message),
	)
}

// ResponseQuery renders an offer-response classification request.
func (pm *PromptManager) ResponseQuery(in negotiation.ResponseInput) string {
	return fmt.Sprintf("Current offer: %s\nEmotional state: %s\nSecurity threat level: %s\n\nRecent conversation:\n%s\n\nDebtor reply:\n%s",
		orNone(in.CurrentOffer),
		orNone(string(in.EmotionalState)),
		orNone(string(in.SecurityThreat)),
		pm.history(in.History),
		strings.TrimSpace(in.Message),
	)
}

// CounterOfferQuery renders a counter-offer validation request.
func (pm *PromptManager) CounterOfferQuery(in negotiation.CounterOfferInput) string {
	return fmt.Sprintf("Total debt: $%d\nNote: %s\nEmotional state: %s\n\nRecent conversation:\n%s\n\nProposal:\n%s",
		in.TotalDebt,
		orNone(in.Note),
		orNone(string(in.EmotionalState)),
		pm.history(in.Context),
		strings.TrimSpace(in.Proposal),
	)
}

func (pm *PromptManager) describe(intent labels.Intent) string {
	p, ok := pm.personas.FindByID(intent)
	if !ok {
		return "unknown; treat as a cooperative negotiator."
	}
	return fmt.Sprintf("%s. %s", p.Name, p.Description)
}

func (pm *PromptManager) strategy(intent labels.Intent) string {
	if p, ok := pm.personas.FindByID(intent); ok && p.Strategy != "" {
		return p.Strategy
	}
	return "present the current payment plan and invite a response"
}

func (pm *PromptManager) hint(intent labels.Intent) string {
	if p, ok := pm.personas.FindByID(intent); ok && p.PromptHint != "" {
		return p.PromptHint
	}
	return "Be clear, respectful and brief."
}

// history keeps only the last historyLimit lines of a rendered window.
func (pm *PromptManager) history(window string) string {
	window = strings.TrimSpace(window)
	if window == "" {
		return "(no prior messages)"
	}
	lines := strings.Split(window, "\n")
	if len(lines) > pm.historyLimit {
		lines = lines[len(lines)-pm.historyLimit:]
	}
	return strings.Join(lines, "\n")
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "none"
	}
	return strings.TrimSpace(value)
}
