package intent

import (
	"testing"

	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

func TestClassifyKeywordRules(t *testing.T) {
	cases := []struct {
		message string
		want    negotiation.Intent
	}{
		{"I can pay $300 a month", negotiation.IntentWillingPayer},
		{"I can pay something", negotiation.IntentCooperativeNegotiator},
		{"I don't owe this money", negotiation.IntentNoDebtClaimant},
		{"I don’t owe you anything", negotiation.IntentNoDebtClaimant},
		{"That's not my debt", negotiation.IntentNoDebtClaimant},
		{"This is a fucking scam!", negotiation.IntentStonewaller},
		{"I can't pay this right now", negotiation.IntentCooperativeNegotiator},
		{"", negotiation.IntentCooperativeNegotiator},
	}

	for _, tc := range cases {
		got := Classify(tc.message)
		if got.Intent != tc.want {
			t.Fatalf("Classify(%q) intent = %s, want %s", tc.message, got.Intent, tc.want)
		}
		if got.Emotion != negotiation.EmotionCalm || got.Threat != negotiation.ThreatSafe {
			t.Fatalf("Classify(%q) expected Calm/Safe fallback, got %s/%s", tc.message, got.Emotion, got.Threat)
		}
	}
}

func TestWillingPayerWinsOverLaterRules(t *testing.T) {
	got := Classify("I can pay 200 a month, this isn't a scam right?")
	if got.Intent != negotiation.IntentWillingPayer {
		t.Fatalf("expected willing payer to take priority, got %s", got.Intent)
	}
}

func TestIsAcceptance(t *testing.T) {
	accepted := []string{"Yes", "ok I accept", "I agree to that", "Agreed.", "accepted"}
	for _, msg := range accepted {
		if !IsAcceptance(msg) {
			t.Fatalf("expected %q to be acceptance", msg)
		}
	}

	rejected := []string{"no thanks", "I disagree", "yesterday was rough", ""}
	for _, msg := range rejected {
		if IsAcceptance(msg) {
			t.Fatalf("expected %q not to be acceptance", msg)
		}
	}
}
