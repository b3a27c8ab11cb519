package negotiation

import (
	"context"
	"fmt"

	"github.com/zhouzirui/collectwise/backend/internal/analysis/intent"
	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// analyzeResponse judges the user's reply to the outstanding offer.
func (e *Engine) analyzeResponse(ctx context.Context, state model.State) (model.State, error) {
	message := state.LastMessage()

	class, err := e.classifyResponse(ctx, state, message)
	if err != nil {
		if abort := e.absorb(ctx, state, adapterClassifier, "classify_response", err); abort != nil {
			return state, abort
		}
		if intent.IsAcceptance(message) {
			return e.acceptOffer(ctx, state, message), nil
		}
		return e.negotiate(ctx, state)
	}

	switch class {
	case model.ResponseAccepted:
		return e.acceptOffer(ctx, state, message), nil
	case model.ResponseCounterOfferReasonable:
		return e.validateCounterOffer(ctx, state, message)
	case model.ResponseRejectedPolitely, model.ResponseRejectedHostile:
		return e.negotiate(ctx, state)
	default:
		return e.negotiate(ctx, state)
	}
}

func (e *Engine) classifyResponse(ctx context.Context, state model.State, message string) (model.ResponseClass, error) {
	if e.classifier == nil {
		return model.ResponseUnknown, errAdapterMissing
	}

	callCtx, cancel := e.adapterContext(ctx)
	defer cancel()
	return e.classifier.ClassifyResponse(callCtx, ResponseInput{
		Message:        message,
		CurrentOffer:   offerLabelOf(state),
		History:        state.Window(analysisWindow),
		EmotionalState: emotionOrCalm(state.EmotionalState),
		SecurityThreat: threatOrSafe(state.SecurityThreatLevel),
	})
}

// acceptOffer turns the current offer into the final agreement. When the
// offer is a menu of plans, the plan named in the reply is the one agreed.
func (e *Engine) acceptOffer(ctx context.Context, state model.State, reply string) model.State {
	agreement := state.CurrentOffer.Choose(reply)
	link := e.PaymentLink(agreement.Label)

	state.FinalAgreement = &agreement
	state.CurrentOffer = nil
	state.ConversationEnded = true

	e.emit(ctx, Event{Type: EventAgreementReached, Offer: agreement.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, fmt.Sprintf("Excellent! You've agreed to %s. Here's your payment link: %s\n\nThank you for resolving this matter.", agreement.Label, link))
}

func (e *Engine) validateCounterOffer(ctx context.Context, state model.State, proposal string) (model.State, error) {
	validity, err := e.classifyCounterOffer(ctx, state, proposal)
	if err != nil {
		if abort := e.absorb(ctx, state, adapterClassifier, "validate_counter_offer", err); abort != nil {
			return state, abort
		}
		return e.negotiate(ctx, state)
	}

	switch validity {
	case model.ValidityReasonable:
		return e.acceptCounterOffer(ctx, state, proposal), nil
	case model.ValidityBorderline:
		return e.meetInTheMiddle(state), nil
	default:
		return e.negotiate(ctx, state)
	}
}

func (e *Engine) classifyCounterOffer(ctx context.Context, state model.State, proposal string) (model.PlanValidity, error) {
	if e.classifier == nil {
		return model.ValidityUnknown, errAdapterMissing
	}

	callCtx, cancel := e.adapterContext(ctx)
	defer cancel()
	return e.classifier.ValidateCounterOffer(callCtx, CounterOfferInput{
		Proposal:       proposal,
		TotalDebt:      e.totalDebt,
		Note:           "User counter-offer",
		EmotionalState: emotionOrCalm(state.EmotionalState),
		Context:        state.Window(classificationWindow),
	})
}

func (e *Engine) acceptCounterOffer(ctx context.Context, state model.State, proposal string) model.State {
	agreement := model.OfferFromText(proposal)
	link := e.PaymentLink(agreement.Label)

	state.FinalAgreement = &agreement
	state.CurrentOffer = nil
	state.ConversationEnded = true

	e.emit(ctx, Event{Type: EventAgreementReached, Offer: agreement.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, fmt.Sprintf("That sounds reasonable! I can accept your proposal: %s. Here's your payment link: %s", agreement.Label, link))
}

// meetInTheMiddle keeps the current offer on the table; negotiation continues.
func (e *Engine) meetInTheMiddle(state model.State) model.State {
	return appendSystem(state, fmt.Sprintf("Your proposal is close, but let me suggest a slight adjustment. How about we meet in the middle with my current offer of %s?", offerLabelOf(state)))
}
