package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorAcceptsWellFormedPayloads(t *testing.T) {
	v := MustNew()

	cases := map[Schema]string{
		MessageRequest:    `{"message": "I can pay $300 a month"}`,
		TranscriptRequest: `{"messages": [{"role": "assistant", "content": "You owe $2400."}, {"role": "user", "content": "ok"}]}`,
		NegotiateRequest:  `{"turns": [{"role": "user", "content": "hi"}], "negotiation_attempts": 1, "current_offer": {"monthly_amount": 400, "term_months": 6, "label": "$400/month for 6 months"}}`,
		SocketFrame:       `{"type": "text", "data": {"text": "hello"}}`,
	}
	for name, raw := range cases {
		assert.NoError(t, v.Validate(name, []byte(raw)), name)
	}

	assert.NoError(t, v.Validate(SocketFrame, []byte(`{"type": "ping"}`)))
	assert.NoError(t, v.Validate(NegotiateRequest, []byte(`{"turns": null, "current_offer": null}`)))
}

func TestValidatorRejectsInvalidPayloads(t *testing.T) {
	v := MustNew()

	cases := []struct {
		name   string
		schema Schema
		raw    string
		want   string
	}{
		{"empty message", MessageRequest, `{"message": ""}`, "/message"},
		{"missing message", MessageRequest, `{}`, "/"},
		{"bad role", TranscriptRequest, `{"messages": [{"role": "bot", "content": "hi"}]}`, "/messages/0"},
		{"empty content", TranscriptRequest, `{"messages": [{"role": "user", "content": ""}]}`, "/messages/0"},
		{"fractional attempts", NegotiateRequest, `{"turns": [], "negotiation_attempts": 1.5}`, "/negotiation_attempts"},
		{"missing turns", NegotiateRequest, `{"conversation_ended": false}`, "/"},
		{"text frame without text", SocketFrame, `{"type": "text", "data": {}}`, "/data"},
		{"unknown frame", SocketFrame, `{"type": "audio"}`, "/type"},
		{"malformed", MessageRequest, `{"message":`, "malformed JSON"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.schema, []byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPayload))
			assert.True(t, strings.Contains(err.Error(), tc.want), err.Error())
		})
	}
}

func TestValidatorDecode(t *testing.T) {
	v := MustNew()

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, v.Decode(MessageRequest, []byte(`{"message": "hello"}`), &body))
	assert.Equal(t, "hello", body.Message)

	err := v.Decode("nope", []byte(`{}`), &body)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidPayload))
}
