package intent

import (
	"regexp"
	"strings"

	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// Decision 给出启发式规则的判定结果。
type Decision struct {
	Intent  negotiation.Intent
	Emotion negotiation.EmotionalState
	Threat  negotiation.ThreatLevel
	Rule    string
}

// rule matches when every group has at least one keyword present.
type rule struct {
	name   string
	intent negotiation.Intent
	groups [][]string
}

// rules 按优先级排列，首个命中者生效。
var rules = []rule{
	{
		name:   "willing-payer",
		intent: negotiation.IntentWillingPayer,
		groups: [][]string{{"can pay"}, {"month"}},
	},
	{
		name:   "no-debt",
		intent: negotiation.IntentNoDebtClaimant,
		groups: [][]string{{"don't owe", "dont owe", "do not owe", "not my debt"}},
	},
	{
		name:   "stonewaller",
		intent: negotiation.IntentStonewaller,
		groups: [][]string{{"fuck", "shit", "bitch", "asshole", "scam"}},
	},
}

var acceptancePattern = regexp.MustCompile(`(?i)\b(yes|accept\w*|agree\w*)\b`)

// Classify 在分类器不可用时根据关键词推断意图；情绪与威胁等级固定为 Calm/Safe。
func Classify(message string) Decision {
	normalized := normalize(message)

	decision := Decision{
		Intent:  negotiation.IntentCooperativeNegotiator,
		Emotion: negotiation.EmotionCalm,
		Threat:  negotiation.ThreatSafe,
		Rule:    "default",
	}
	if normalized == "" {
		return decision
	}

	for _, r := range rules {
		if r.matches(normalized) {
			decision.Intent = r.intent
			decision.Rule = r.name
			return decision
		}
	}
	return decision
}

// IsAcceptance reports whether the reply contains an acceptance token.
func IsAcceptance(message string) bool {
	return acceptancePattern.MatchString(message)
}

func (r rule) matches(text string) bool {
	for _, group := range r.groups {
		hit := false
		for _, keyword := range group {
			if strings.Contains(text, keyword) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(lowered)
}
