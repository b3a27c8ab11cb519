package negotiation

import model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"

// HandlerKind names the handler chosen for a turn.
type HandlerKind string

const (
	HandlerSecurityThreat HandlerKind = "security_threat"
	HandlerPayer          HandlerKind = "payer"
	HandlerNegotiator     HandlerKind = "negotiator"
	HandlerEmotional      HandlerKind = "emotional"
	HandlerNoDebt         HandlerKind = "no_debt"
	HandlerStonewaller    HandlerKind = "stonewaller"
	HandlerBargainHunter  HandlerKind = "bargain_hunter"
	HandlerSplitPayment   HandlerKind = "split_payment"
	HandlerGoodFaith      HandlerKind = "good_faith"
)

// Route maps the classified intent and threat level to a handler.
// Security signals win over any intent; unset or unknown intents negotiate.
func Route(intent model.Intent, threat model.ThreatLevel) HandlerKind {
	if threat.Overrides() {
		return HandlerSecurityThreat
	}

	switch intent {
	case model.IntentPromptInjector:
		return HandlerSecurityThreat
	case model.IntentWillingPayer:
		return HandlerPayer
	case model.IntentCooperativeNegotiator, model.IntentResistantNegotiator:
		return HandlerNegotiator
	case model.IntentEmotionalDistressed:
		return HandlerEmotional
	case model.IntentNoDebtClaimant:
		return HandlerNoDebt
	case model.IntentStonewaller:
		return HandlerStonewaller
	case model.IntentBargainHunter:
		return HandlerBargainHunter
	case model.IntentSplitPaymentProposer:
		return HandlerSplitPayment
	case model.IntentGoodFaithPromiser:
		return HandlerGoodFaith
	default:
		return HandlerNegotiator
	}
}
