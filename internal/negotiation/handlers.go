package negotiation

import (
	"context"
	"fmt"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

func appendSystem(state model.State, text string) model.State {
	state.Turns = append(state.Turns, model.SystemTurn(text))
	return state
}

func setOffer(state model.State, offer model.Offer) model.State {
	state.CurrentOffer = &offer
	return state
}

func (e *Engine) openConversation(ctx context.Context, state model.State) (model.State, error) {
	fallbackText := fmt.Sprintf("I understand you're reaching out about your account. Let me help you find the best way to resolve your $%d debt.", e.totalDebt)

	text, err := e.generateOpening(ctx, state, OpeningInput{
		UserMessage:    state.Turns[0].Content,
		Intent:         state.UserIntent,
		EmotionalState: emotionOrCalm(state.EmotionalState),
	}, fallbackText)
	if err != nil {
		return state, err
	}
	return appendSystem(state, text), nil
}

func (e *Engine) handlePayer(ctx context.Context, state model.State) (model.State, error) {
	options := fmt.Sprintf("Here are two payment options we can lock in right now:\n• %s\n• %s\n\n"+
		"Let me know which plan works best (or tell me a different amount), and I'll send over the secure payment link.",
		model.OfferTierA.Label, model.OfferTierB.Label)

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentWillingPayer, "User is ready to pay - offering payment options", model.OfferMenu.Label),
		"Thank you for being ready to take care of this.")
	if err != nil {
		return state, err
	}

	state = setOffer(state, model.OfferMenu)
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerPayer, Offer: model.OfferMenu.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response+"\n\n"+options), nil
}

func (e *Engine) handleEmotional(ctx context.Context, state model.State) (model.State, error) {
	offer := model.OfferTierB
	fallbackText := fmt.Sprintf("I can hear how hard this is, and I want to make it manageable. We can spread the balance out to %s. Would that help?", offer.Label)

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentEmotionalDistressed, "User is emotionally distressed - offering most flexible terms", offer.Label),
		fallbackText)
	if err != nil {
		return state, err
	}

	state = setOffer(state, offer)
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerEmotional, Offer: offer.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response), nil
}

func (e *Engine) handleNoDebt(ctx context.Context, state model.State) (model.State, error) {
	fallbackText := "Understood. I'll stop here and flag this account for verification. You'll receive documentation about this debt before anything else happens."

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentNoDebtClaimant, "User denies owing the debt - verification process", offerLabelOf(state)),
		fallbackText)
	if err != nil {
		return state, err
	}

	state.ConversationEnded = true
	e.emit(ctx, Event{Type: EventEscalationReached, Handler: HandlerNoDebt, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response), nil
}

func (e *Engine) handleStonewaller(ctx context.Context, state model.State) (model.State, error) {
	fallbackText := fmt.Sprintf("I understand you don't want to continue right now. This account will be referred for further review. You can reach us anytime to set up a plan for the $%d balance.", e.totalDebt)

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentStonewaller, "User is uncooperative - final attempt before escalation", offerLabelOf(state)),
		fallbackText)
	if err != nil {
		return state, err
	}

	state.ConversationEnded = true
	e.emit(ctx, Event{Type: EventEscalationReached, Handler: HandlerStonewaller, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response), nil
}

func (e *Engine) handleSecurityThreat(ctx context.Context, state model.State) (model.State, error) {
	fallbackText := fmt.Sprintf("I can only help with resolving your $%d account balance. Would you like to hear the payment plans available to you?", e.totalDebt)

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentPromptInjector, "User attempting system manipulation - redirecting to debt focus", offerLabelOf(state)),
		fallbackText)
	if err != nil {
		return state, err
	}
	return appendSystem(state, response), nil
}

func (e *Engine) handleBargainHunter(ctx context.Context, state model.State) (model.State, error) {
	fallbackText := fmt.Sprintf("The $%d balance itself is fixed, but the schedule is flexible: we can do %s or %s.",
		e.totalDebt, model.OfferTierA.Label, model.OfferTierB.Label)

	response, err := e.generate(ctx, state,
		e.generationInput(state, model.IntentBargainHunter, "User seeking to negotiate total debt amount - clarifying payment plan flexibility", model.OfferMenu.Label),
		fallbackText)
	if err != nil {
		return state, err
	}

	state = setOffer(state, model.OfferMenu)
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerBargainHunter, Offer: model.OfferMenu.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, response), nil
}

func (e *Engine) handleSplitPayment(ctx context.Context, state model.State) (model.State, error) {
	text := fmt.Sprintf("Thank you for offering to make a payment today - that shows great faith! Here's how we can structure this: "+
		"I'll set up a plan where you pay %s, and your payment today will be credited as your first payment.", model.OfferTierB.Label)

	state = setOffer(state, model.OfferSplitCredit)
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerSplitPayment, Offer: model.OfferSplitCredit.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, text), nil
}

func (e *Engine) handleGoodFaith(ctx context.Context, state model.State) (model.State, error) {
	text := fmt.Sprintf("I appreciate your commitment to resolving this! Since timing can be unpredictable with new jobs, "+
		"let's set up a structured plan that gives you flexibility. I can offer %s with early payoff allowed.", model.OfferTierB.Label)

	state = setOffer(state, model.OfferEarlyPayoff)
	e.emit(ctx, Event{Type: EventOfferMade, Handler: HandlerGoodFaith, Offer: model.OfferEarlyPayoff.Label, Attempts: state.NegotiationAttempts})
	return appendSystem(state, text), nil
}

func offerLabelOf(state model.State) string {
	if state.CurrentOffer == nil {
		return ""
	}
	return state.CurrentOffer.Label
}
