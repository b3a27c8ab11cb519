package negotiation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

func TestZerologSinkWritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf).Level(zerolog.InfoLevel))
	ctx := WithSessionID(context.Background(), "sess-1")

	sink.Emit(ctx, Event{Type: EventTurnStarted})
	sink.Emit(ctx, Event{Type: EventFallback, Operation: "classifier.classify_turn", Err: errors.New("boom"), Attempts: 1})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug events are filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "fallback_triggered", entry["event"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "classifier.classify_turn", entry["operation"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "negotiation", entry["component"])
	assert.EqualValues(t, 1, entry["attempts"])
}

func TestEngineEmitsOfferAndAgreementEvents(t *testing.T) {
	sink := &RecordingSink{}
	e := New(nil, nil, WithEventSink(sink))

	state := model.State{Turns: []model.Turn{
		model.SystemTurn("You currently owe $2400."),
		model.UserTurn("I can't afford it"),
	}}
	state, err := e.Advance(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, 1, sink.Count(EventOfferMade))

	state.Turns = append(state.Turns, model.UserTurn("yes, agreed"))
	_, err = e.Advance(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.Count(EventAgreementReached))
	assert.Equal(t, 2, sink.Count(EventTurnCompleted))
	assert.Equal(t, 2, sink.Count(EventTurnStarted))
}
