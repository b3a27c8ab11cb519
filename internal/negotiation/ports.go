package negotiation

import (
	"context"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// Signals is the categorical read of a single user turn.
type Signals struct {
	Intent         model.Intent
	EmotionalState model.EmotionalState
	SecurityThreat model.ThreatLevel
}

// TurnInput 是意图分类所需的上下文。
type TurnInput struct {
	Message      string
	Context      string
	PriorOffers  []string
	AttemptCount int
}

// ResponseInput 描述用户对当前报价的回复。
type ResponseInput struct {
	Message        string
	CurrentOffer   string
	History        string
	EmotionalState model.EmotionalState
	SecurityThreat model.ThreatLevel
}

// CounterOfferInput 描述需要校验的用户反报价。
type CounterOfferInput struct {
	Proposal       string
	TotalDebt      int
	Note           string
	EmotionalState model.EmotionalState
	Context        string
}

// OpeningInput 用于生成首轮开场白。
type OpeningInput struct {
	UserMessage    string
	Intent         model.Intent
	EmotionalState model.EmotionalState
}

// GenerationInput 用于生成谈判回复。
type GenerationInput struct {
	UserMessage    string
	History        string
	Intent         model.Intent
	EmotionalState model.EmotionalState
	ContextNote    string
	OfferLabel     string
	AttemptCount   int
}

// Classifier supplies categorical signals. Any method may fail transiently.
type Classifier interface {
	ClassifyTurn(ctx context.Context, in TurnInput) (Signals, error)
	ClassifyResponse(ctx context.Context, in ResponseInput) (model.ResponseClass, error)
	ValidateCounterOffer(ctx context.Context, in CounterOfferInput) (model.PlanValidity, error)
}

// Generator supplies user-facing prose. Any method may fail transiently.
type Generator interface {
	GenerateOpening(ctx context.Context, in OpeningInput) (string, error)
	GenerateText(ctx context.Context, in GenerationInput) (string, error)
}
