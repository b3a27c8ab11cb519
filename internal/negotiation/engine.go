// Package negotiation implements the debt negotiation policy engine: turn
// dispatch, intent routing, tiered offers, offer-response analysis and
// payment link construction. The engine holds no per-session state; every
// call receives the full State and returns the next one.
package negotiation

import (
	"context"
	"time"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

const (
	// DefaultTotalDebt is the fixed balance under negotiation.
	DefaultTotalDebt = 2400
	// DefaultAdapterTimeout bounds a single classifier or generator call.
	DefaultAdapterTimeout = 20 * time.Second

	classificationWindow = 3
	analysisWindow       = 5
)

// Engine decides the next system action for a negotiation transcript.
type Engine struct {
	classifier     Classifier
	generator      Generator
	events         EventSink
	totalDebt      int
	paymentBaseURL string
	adapterTimeout time.Duration
	reclassify     bool
}

// Option customises an Engine.
type Option func(*Engine)

// WithTotalDebt overrides the negotiated balance.
func WithTotalDebt(amount int) Option {
	return func(e *Engine) {
		if amount > 0 {
			e.totalDebt = amount
		}
	}
}

// WithPaymentBaseURL sets the prefix of generated payment links.
func WithPaymentBaseURL(baseURL string) Option {
	return func(e *Engine) { e.paymentBaseURL = baseURL }
}

// WithAdapterTimeout bounds each adapter call; zero disables the bound.
func WithAdapterTimeout(timeout time.Duration) Option {
	return func(e *Engine) { e.adapterTimeout = timeout }
}

// WithReclassification re-runs classification on every inbound user turn
// instead of only while the intent is unset.
func WithReclassification(enabled bool) Option {
	return func(e *Engine) { e.reclassify = enabled }
}

// WithEventSink routes engine events to sink.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.events = sink
		}
	}
}

// New 创建谈判引擎。classifier 或 generator 为 nil 时始终走回退策略。
func New(classifier Classifier, generator Generator, opts ...Option) *Engine {
	e := &Engine{
		classifier:     classifier,
		generator:      generator,
		events:         NopSink{},
		totalDebt:      DefaultTotalDebt,
		paymentBaseURL: DefaultPaymentBaseURL,
		adapterTimeout: DefaultAdapterTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TotalDebt returns the configured balance.
func (e *Engine) TotalDebt() int {
	return e.totalDebt
}

// PaymentLink formats the payment URL for a plan label with the engine's settings.
func (e *Engine) PaymentLink(offerLabel string) string {
	return FormatPaymentLink(e.paymentBaseURL, e.totalDebt, offerLabel)
}

// Advance runs one engine turn. The input is never modified.
//
// The only error returned is the cancellation of ctx; in that case the
// returned State is the input and nothing must be committed. Adapter
// failures are absorbed by the fallback policy.
func (e *Engine) Advance(ctx context.Context, in model.State) (model.State, error) {
	state := in.Normalize()
	e.emit(ctx, Event{Type: EventTurnStarted, Attempts: state.NegotiationAttempts})

	if state.ConversationEnded {
		e.emit(ctx, Event{Type: EventTurnSkipped, Attempts: state.NegotiationAttempts})
		return state, nil
	}

	next, err := e.dispatch(ctx, state)
	if err != nil {
		e.emit(ctx, Event{Type: EventTurnAborted, Attempts: state.NegotiationAttempts, Err: err})
		return in, err
	}

	e.emit(ctx, Event{Type: EventTurnCompleted, Attempts: next.NegotiationAttempts})
	return next, nil
}

func (e *Engine) dispatch(ctx context.Context, state model.State) (model.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	if state.IsFirstContact() {
		state, err := e.classifyTurn(ctx, state)
		if err != nil {
			return state, err
		}
		return e.openConversation(ctx, state)
	}

	if e.needsClassification(state) {
		var err error
		if state, err = e.classifyTurn(ctx, state); err != nil {
			return state, err
		}
	}

	// A user reply to an outstanding offer is judged by the response analyzer;
	// security signals still take the security handler.
	handler := Route(state.UserIntent, state.SecurityThreatLevel)
	if state.AwaitingOfferResponse() && handler != HandlerSecurityThreat {
		return e.analyzeResponse(ctx, state)
	}
	return e.route(ctx, state, handler)
}

func (e *Engine) needsClassification(state model.State) bool {
	if len(state.Turns) == 0 {
		return false
	}
	if state.UserIntent == model.IntentUnknown {
		return true
	}
	last, _ := state.LastTurn()
	return e.reclassify && last.Role == model.RoleUser
}

func (e *Engine) route(ctx context.Context, state model.State, handler HandlerKind) (model.State, error) {
	switch handler {
	case HandlerSecurityThreat:
		return e.handleSecurityThreat(ctx, state)
	case HandlerPayer:
		return e.handlePayer(ctx, state)
	case HandlerEmotional:
		return e.handleEmotional(ctx, state)
	case HandlerNoDebt:
		return e.handleNoDebt(ctx, state)
	case HandlerStonewaller:
		return e.handleStonewaller(ctx, state)
	case HandlerBargainHunter:
		return e.handleBargainHunter(ctx, state)
	case HandlerSplitPayment:
		return e.handleSplitPayment(ctx, state)
	case HandlerGoodFaith:
		return e.handleGoodFaith(ctx, state)
	default:
		return e.negotiate(ctx, state)
	}
}

func (e *Engine) emit(ctx context.Context, event Event) {
	e.events.Emit(ctx, event)
}
