package negotiation

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/collectwise/backend/internal/analysis/intent"
	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

var (
	errAdapterMissing = errors.New("adapter not configured")
	errEmptyOutput    = errors.New("adapter returned empty output")
	errUnknownLabel   = errors.New("adapter returned unrecognised label")
)

const (
	adapterClassifier = "classifier"
	adapterGenerator  = "generator"
)

func (e *Engine) adapterContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.adapterTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.adapterTimeout)
}

// absorb decides between fallback and abort after an adapter error:
// only cancellation of the enclosing context aborts the turn.
func (e *Engine) absorb(ctx context.Context, state model.State, adapter, operation string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.emit(ctx, Event{
		Type:      EventFallback,
		Operation: adapter + "." + operation,
		Attempts:  state.NegotiationAttempts,
		Err:       cause,
	})
	return nil
}

func (e *Engine) classifyTurn(ctx context.Context, state model.State) (model.State, error) {
	message := state.LastMessage()

	if e.classifier != nil {
		in := TurnInput{
			Message:      message,
			Context:      state.Window(classificationWindow),
			PriorOffers:  priorOffers(state),
			AttemptCount: state.NegotiationAttempts,
		}

		callCtx, cancel := e.adapterContext(ctx)
		signals, err := e.classifier.ClassifyTurn(callCtx, in)
		cancel()
		if err == nil && !signals.Intent.Known() {
			err = errUnknownLabel
		}
		if err == nil {
			state.UserIntent = signals.Intent
			state.EmotionalState = signals.EmotionalState
			if state.EmotionalState == model.EmotionUnknown {
				state.EmotionalState = model.EmotionCalm
			}
			state.SecurityThreatLevel = signals.SecurityThreat
			if state.SecurityThreatLevel == model.ThreatUnknown {
				state.SecurityThreatLevel = model.ThreatSafe
			}
			return state, nil
		}
		if abort := e.absorb(ctx, state, adapterClassifier, "classify_turn", err); abort != nil {
			return state, abort
		}
	} else if abort := e.absorb(ctx, state, adapterClassifier, "classify_turn", errAdapterMissing); abort != nil {
		return state, abort
	}

	decision := intent.Classify(message)
	state.UserIntent = decision.Intent
	state.EmotionalState = decision.Emotion
	state.SecurityThreatLevel = decision.Threat
	return state, nil
}

// generate returns generated prose or fallbackText when the generator fails.
func (e *Engine) generate(ctx context.Context, state model.State, in GenerationInput, fallbackText string) (string, error) {
	if e.generator == nil {
		return fallbackText, e.absorb(ctx, state, adapterGenerator, "generate_text", errAdapterMissing)
	}

	callCtx, cancel := e.adapterContext(ctx)
	text, err := e.generator.GenerateText(callCtx, in)
	cancel()
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyOutput
	}
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	return fallbackText, e.absorb(ctx, state, adapterGenerator, "generate_text", err)
}

func (e *Engine) generateOpening(ctx context.Context, state model.State, in OpeningInput, fallbackText string) (string, error) {
	if e.generator == nil {
		return fallbackText, e.absorb(ctx, state, adapterGenerator, "generate_opening", errAdapterMissing)
	}

	callCtx, cancel := e.adapterContext(ctx)
	text, err := e.generator.GenerateOpening(callCtx, in)
	cancel()
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyOutput
	}
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	return fallbackText, e.absorb(ctx, state, adapterGenerator, "generate_opening", err)
}

// generationInput fills the shared fields of a generator request.
func (e *Engine) generationInput(state model.State, intentLabel model.Intent, note, offerLabel string) GenerationInput {
	return GenerationInput{
		UserMessage:    state.LastMessage(),
		History:        state.Window(classificationWindow),
		Intent:         intentLabel,
		EmotionalState: emotionOrCalm(state.EmotionalState),
		ContextNote:    note,
		OfferLabel:     offerLabel,
		AttemptCount:   state.NegotiationAttempts,
	}
}

func priorOffers(state model.State) []string {
	if state.CurrentOffer == nil {
		return nil
	}
	return []string{state.CurrentOffer.Label}
}

func emotionOrCalm(e model.EmotionalState) model.EmotionalState {
	if e == model.EmotionUnknown {
		return model.EmotionCalm
	}
	return e
}

func threatOrSafe(t model.ThreatLevel) model.ThreatLevel {
	if t == model.ThreatUnknown {
		return model.ThreatSafe
	}
	return t
}
