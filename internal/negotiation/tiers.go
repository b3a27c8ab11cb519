package negotiation

import (
	"context"
	"fmt"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// tier is one step of the concession schedule.
type tier struct {
	offer model.Offer
	stage string
}

// tiers 依次让步；用尽后升级为 Stonewaller 处理并结束会话。
var tiers = []tier{
	{offer: model.OfferTierA, stage: "First negotiation offer"},
	{offer: model.OfferTierB, stage: "Second negotiation offer - more affordable"},
}

// MaxNegotiationAttempts is the number of tiers offered before escalation.
const MaxNegotiationAttempts = 2

func (e *Engine) negotiate(ctx context.Context, state model.State) (model.State, error) {
	attempts := state.NegotiationAttempts
	if attempts >= MaxNegotiationAttempts || attempts >= len(tiers) {
		e.emit(ctx, Event{Type: EventEscalationReached, Handler: HandlerNegotiator, Attempts: attempts})
		return e.handleStonewaller(ctx, state)
	}

	step := tiers[attempts]
	intentLabel := state.UserIntent
	if intentLabel == model.IntentUnknown {
		intentLabel = model.IntentCooperativeNegotiator
	}

	fallbackText := fmt.Sprintf("I understand your situation. To resolve your $%d balance I can offer %s. Does that work for your budget?",
		e.totalDebt, step.offer.Label)

	response, err := e.generate(ctx, state, e.generationInput(state, intentLabel, step.stage, step.offer.Label), fallbackText)
	if err != nil {
		return state, err
	}

	state = setOffer(state, step.offer)
	state.NegotiationAttempts = attempts + 1
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerNegotiator, Offer: step.offer.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response), nil
}
