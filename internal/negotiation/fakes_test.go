package negotiation_test

import (
	"context"
	"errors"
	"sync"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
)

var errAdapterDown = errors.New("adapter down")

type fakeClassifier struct {
	mu sync.Mutex

	signals     negotiation.Signals
	turnErr     error
	response    model.ResponseClass
	responseErr error
	validity    model.PlanValidity
	validityErr error

	// blockUntilDone makes every call wait for its context.
	blockUntilDone bool

	turnCalls     int
	responseCalls int
	validityCalls int
	lastTurn      negotiation.TurnInput
	lastCounter   negotiation.CounterOfferInput
}

func (f *fakeClassifier) ClassifyTurn(ctx context.Context, in negotiation.TurnInput) (negotiation.Signals, error) {
	f.mu.Lock()
	f.turnCalls++
	f.lastTurn = in
	f.mu.Unlock()
	if f.blockUntilDone {
		<-ctx.Done()
		return negotiation.Signals{}, ctx.Err()
	}
	return f.signals, f.turnErr
}

func (f *fakeClassifier) ClassifyResponse(ctx context.Context, _ negotiation.ResponseInput) (model.ResponseClass, error) {
	f.mu.Lock()
	f.responseCalls++
	f.mu.Unlock()
	if f.blockUntilDone {
		<-ctx.Done()
		return model.ResponseUnknown, ctx.Err()
	}
	return f.response, f.responseErr
}

func (f *fakeClassifier) ValidateCounterOffer(ctx context.Context, in negotiation.CounterOfferInput) (model.PlanValidity, error) {
	f.mu.Lock()
	f.validityCalls++
	f.lastCounter = in
	f.mu.Unlock()
	if f.blockUntilDone {
		<-ctx.Done()
		return model.ValidityUnknown, ctx.Err()
	}
	return f.validity, f.validityErr
}

func signals(intent model.Intent, threat model.ThreatLevel) negotiation.Signals {
	return negotiation.Signals{Intent: intent, EmotionalState: model.EmotionCalm, SecurityThreat: threat}
}

type fakeGenerator struct {
	mu sync.Mutex

	err      error
	openings []negotiation.OpeningInput
	requests []negotiation.GenerationInput
}

func (g *fakeGenerator) GenerateOpening(_ context.Context, in negotiation.OpeningInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openings = append(g.openings, in)
	if g.err != nil {
		return "", g.err
	}
	return "Hello! Let's find a way to resolve your balance.", nil
}

func (g *fakeGenerator) GenerateText(_ context.Context, in negotiation.GenerationInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, in)
	if g.err != nil {
		return "", g.err
	}
	offer := in.OfferLabel
	if offer == "" {
		offer = "No current offer"
	}
	return string(in.Intent) + " reply: " + offer, nil
}

func (g *fakeGenerator) last() negotiation.GenerationInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return negotiation.GenerationInput{}
	}
	return g.requests[len(g.requests)-1]
}

const greeting = "Hello! Our records show that you currently owe $2400. Are you able to resolve this debt today?"

func conversation(userMessages ...string) model.State {
	state := model.State{Turns: []model.Turn{model.SystemTurn(greeting)}}
	for _, msg := range userMessages {
		state.Turns = append(state.Turns, model.UserTurn(msg))
	}
	return state
}

func reply(state model.State, message string) model.State {
	state = state.Clone()
	state.Turns = append(state.Turns, model.UserTurn(message))
	return state
}
