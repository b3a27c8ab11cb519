package negotiation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// EventType names a structured engine event.
type EventType string

const (
	EventTurnStarted       EventType = "turn_started"
	EventTurnCompleted     EventType = "turn_completed"
	EventTurnAborted       EventType = "turn_aborted"
	EventTurnSkipped       EventType = "turn_skipped"
	EventFallback          EventType = "fallback_triggered"
	EventOfferMade         EventType = "offer_made"
	EventAgreementReached  EventType = "agreement_reached"
	EventEscalationReached EventType = "escalation_reached"
)

// Event is emitted for an external collector; it carries no state ownership.
type Event struct {
	Type      EventType
	SessionID string
	Handler   HandlerKind
	Operation string
	Offer     string
	Attempts  int
	Err       error
}

// EventSink receives engine events. Implementations must be safe for concurrent use.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

type sessionKey struct{}

// WithSessionID tags events emitted during the call with a session identifier.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom returns the identifier stored by WithSessionID.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// NopSink discards events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(context.Context, Event) {}

// RecordingSink keeps events in memory, mainly for tests and the CLI.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements EventSink.
func (r *RecordingSink) Emit(_ context.Context, event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *RecordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of the given type were recorded.
func (r *RecordingSink) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// ZerologSink 将事件写为结构化日志，供外部采集。
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink wraps a zerolog logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger.With().Str("component", "negotiation").Logger()}
}

// Emit implements EventSink.
func (z *ZerologSink) Emit(ctx context.Context, event Event) {
	var entry *zerolog.Event
	switch event.Type {
	case EventFallback, EventTurnAborted:
		entry = z.logger.Warn()
	case EventTurnStarted, EventTurnCompleted, EventTurnSkipped:
		entry = z.logger.Debug()
	default:
		entry = z.logger.Info()
	}

	sessionID := event.SessionID
	if sessionID == "" {
		sessionID = SessionIDFrom(ctx)
	}

	entry = entry.Str("event", string(event.Type)).Int("attempts", event.Attempts)
	if sessionID != "" {
		entry = entry.Str("session_id", sessionID)
	}
	if event.Handler != "" {
		entry = entry.Str("handler", string(event.Handler))
	}
	if event.Operation != "" {
		entry = entry.Str("operation", event.Operation)
	}
	if event.Offer != "" {
		entry = entry.Str("offer", event.Offer)
	}
	if event.Err != nil {
		entry = entry.Err(event.Err)
	}
	entry.Msg("negotiation event")
}
