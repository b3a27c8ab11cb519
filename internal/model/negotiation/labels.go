package negotiation

import "strings"

// Intent 表示对用户意图的分类（即“用户画像”）。空值表示尚未分类。
type Intent string

const (
	IntentUnknown               Intent = ""
	IntentWillingPayer          Intent = "WillingPayer"
	IntentCooperativeNegotiator Intent = "CooperativeNegotiator"
	IntentResistantNegotiator   Intent = "ResistantNegotiator"
	IntentEmotionalDistressed   Intent = "EmotionalDistressed"
	IntentNoDebtClaimant        Intent = "NoDebtClaimant"
	IntentStonewaller           Intent = "Stonewaller"
	IntentPromptInjector        Intent = "PromptInjector"
	IntentBargainHunter         Intent = "BargainHunter"
	IntentSplitPaymentProposer  Intent = "SplitPaymentProposer"
	IntentGoodFaithPromiser     Intent = "GoodFaithPromiser"
)

// Intents lists every recognised persona in declaration order.
func Intents() []Intent {
	return []Intent{
		IntentWillingPayer,
		IntentCooperativeNegotiator,
		IntentResistantNegotiator,
		IntentEmotionalDistressed,
		IntentNoDebtClaimant,
		IntentStonewaller,
		IntentPromptInjector,
		IntentBargainHunter,
		IntentSplitPaymentProposer,
		IntentGoodFaithPromiser,
	}
}

// ParseIntent 将模型输出或外部输入解析为 Intent，未识别时返回 false。
func ParseIntent(raw string) (Intent, bool) {
	key := normalizeLabel(raw)
	for _, intent := range Intents() {
		if strings.ToLower(string(intent)) == key {
			return intent, true
		}
	}
	return IntentUnknown, false
}

// Known reports whether the intent is one of the ten personas.
func (i Intent) Known() bool {
	_, ok := ParseIntent(string(i))
	return ok
}

// EmotionalState 用户情绪状态。
type EmotionalState string

const (
	EmotionUnknown      EmotionalState = ""
	EmotionCalm         EmotionalState = "Calm"
	EmotionFrustrated   EmotionalState = "Frustrated"
	EmotionStressed     EmotionalState = "Stressed"
	EmotionAngry        EmotionalState = "Angry"
	EmotionOverwhelmed  EmotionalState = "Overwhelmed"
	EmotionDesperate    EmotionalState = "Desperate"
	EmotionDefiant      EmotionalState = "Defiant"
	EmotionManipulative EmotionalState = "Manipulative"
)

var emotionalStates = []EmotionalState{
	EmotionCalm, EmotionFrustrated, EmotionStressed, EmotionAngry,
	EmotionOverwhelmed, EmotionDesperate, EmotionDefiant, EmotionManipulative,
}

// ParseEmotionalState 解析情绪标签。
func ParseEmotionalState(raw string) (EmotionalState, bool) {
	key := normalizeLabel(raw)
	for _, e := range emotionalStates {
		if strings.ToLower(string(e)) == key {
			return e, true
		}
	}
	return EmotionUnknown, false
}

// ThreatLevel 安全威胁等级。
type ThreatLevel string

const (
	ThreatUnknown               ThreatLevel = ""
	ThreatSafe                  ThreatLevel = "Safe"
	ThreatMinorConcern          ThreatLevel = "MinorConcern"
	ThreatModerateConcern       ThreatLevel = "ModerateConcern"
	ThreatAttemptedManipulation ThreatLevel = "AttemptedManipulation"
	ThreatActiveThreat          ThreatLevel = "ActiveThreat"
)

var threatLevels = []ThreatLevel{
	ThreatSafe, ThreatMinorConcern, ThreatModerateConcern, ThreatAttemptedManipulation, ThreatActiveThreat,
}

// ParseThreatLevel 解析安全威胁等级。
func ParseThreatLevel(raw string) (ThreatLevel, bool) {
	key := normalizeLabel(raw)
	for _, t := range threatLevels {
		if strings.ToLower(string(t)) == key {
			return t, true
		}
	}
	return ThreatUnknown, false
}

// Overrides reports whether the level forces the security-threat handler.
func (t ThreatLevel) Overrides() bool {
	return t == ThreatActiveThreat || t == ThreatAttemptedManipulation
}

// ResponseClass 用户对当前报价的反应类别。
type ResponseClass string

const (
	ResponseUnknown                 ResponseClass = ""
	ResponseAccepted                ResponseClass = "Accepted"
	ResponseCounterOfferReasonable  ResponseClass = "CounterOfferReasonable"
	ResponseCounterOfferUnrealistic ResponseClass = "CounterOfferUnrealistic"
	ResponseRejectedPolitely        ResponseClass = "RejectedPolitely"
	ResponseRejectedHostile         ResponseClass = "RejectedHostile"
	ResponsePromptInjection         ResponseClass = "PromptInjection"
	ResponseStallTactic             ResponseClass = "StallTactic"
	ResponseComplianceViolation     ResponseClass = "ComplianceViolation"
)

var responseClasses = []ResponseClass{
	ResponseAccepted, ResponseCounterOfferReasonable, ResponseCounterOfferUnrealistic,
	ResponseRejectedPolitely, ResponseRejectedHostile, ResponsePromptInjection,
	ResponseStallTactic, ResponseComplianceViolation,
}

// ParseResponseClass 解析报价反馈类别。
func ParseResponseClass(raw string) (ResponseClass, bool) {
	key := normalizeLabel(raw)
	for _, r := range responseClasses {
		if strings.ToLower(string(r)) == key {
			return r, true
		}
	}
	return ResponseUnknown, false
}

// PlanValidity 还款方案（反报价）的合理性判断。
type PlanValidity string

const (
	ValidityUnknown     PlanValidity = ""
	ValidityReasonable  PlanValidity = "Reasonable"
	ValidityBorderline  PlanValidity = "Borderline"
	ValidityUnrealistic PlanValidity = "Unrealistic"
)

// ParsePlanValidity 解析方案合理性标签。
func ParsePlanValidity(raw string) (PlanValidity, bool) {
	key := normalizeLabel(raw)
	for _, v := range []PlanValidity{ValidityReasonable, ValidityBorderline, ValidityUnrealistic} {
		if strings.ToLower(string(v)) == key {
			return v, true
		}
	}
	return ValidityUnknown, false
}

// normalizeLabel accepts "Willing Payer", "willing_payer" and "WillingPayer" alike.
func normalizeLabel(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "", "\"", "", "'", "", ".", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(raw)))
}
