package negotiation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FullPaymentLabel marks a lump-sum settlement.
const FullPaymentLabel = "full"

// PlanLabel 生成统一格式的方案描述，所有报价标签都经由此函数构造。
func PlanLabel(monthly, months int) string {
	return fmt.Sprintf("$%d/month for %d months", monthly, months)
}

// NewPlan builds an offer whose label is the canonical phrasing.
func NewPlan(monthly, months int) Offer {
	return Offer{MonthlyAmount: monthly, TermMonths: months, Label: PlanLabel(monthly, months)}
}

// Tiered concession schedule and the handler-specific variants.
var (
	OfferTierA = NewPlan(400, 6)
	OfferTierB = NewPlan(200, 12)

	// OfferMenu 同时给出两档方案，金额字段取第一档，便于解析与生成支付链接。
	OfferMenu = Offer{
		MonthlyAmount: OfferTierA.MonthlyAmount,
		TermMonths:    OfferTierA.TermMonths,
		Label:         OfferTierA.Label + " OR " + OfferTierB.Label,
	}
	OfferSplitCredit = Offer{
		MonthlyAmount: OfferTierB.MonthlyAmount,
		TermMonths:    OfferTierB.TermMonths,
		Label:         OfferTierB.Label + " (with upfront credit)",
	}
	OfferEarlyPayoff = Offer{
		MonthlyAmount: OfferTierB.MonthlyAmount,
		TermMonths:    OfferTierB.TermMonths,
		Label:         OfferTierB.Label + " (early payoff allowed)",
	}
)

// planPhrasings 集中维护可识别的方案写法，首个匹配者生效。
// 每个表达式必须依次捕获月供金额与期数；金额前不能紧跟数字或小数点。
var planPhrasings = []*regexp.Regexp{
	// "$400/month for 6 months", "$400 / mo for 6 months"
	regexp.MustCompile(`(?i)(?:^|[^\d.])\$?\s*(\d+(?:\.\d+)?)\s*/\s*(?:month|mo)\b\s*(?:for\s*)?(\d+)[\s-]*months?`),
	// "$400 per month for 6 months", "400 a month for 6 months"
	regexp.MustCompile(`(?i)(?:^|[^\d.])\$?\s*(\d+(?:\.\d+)?)\s*(?:dollars\s*)?(?:per|a|each)\s*month\s*(?:for\s*)?(\d+)[\s-]*months?`),
	// "$400 monthly for 6 months"
	regexp.MustCompile(`(?i)(?:^|[^\d.])\$?\s*(\d+(?:\.\d+)?)\s*monthly\s*(?:for\s*)?(\d+)[\s-]*months?`),
}

var (
	termPattern   = regexp.MustCompile(`(?i)\b(\d+)[\s-]*months?\b`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// parseAmount 解析金额，带小数的金额四舍五入到整数美元。
func parseAmount(raw string) (int, bool) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	rounded := int(math.Round(value))
	return rounded, rounded > 0
}

// ParsePlan 按集中维护的写法表解析方案标签，返回月供与期数。
func ParsePlan(label string) (monthly, months int, ok bool) {
	text := strings.ReplaceAll(label, ",", "")
	for _, pattern := range planPhrasings {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		monthly, okA := parseAmount(match[1])
		months, errB := strconv.Atoi(match[2])
		if !okA || errB != nil || months <= 0 {
			continue
		}
		return monthly, months, true
	}
	return 0, 0, false
}

// ParsePlanLoose 宽松解析：期数取首个 "<n> month(s)"，月供取期数以外的第一个数字。
func ParsePlanLoose(label string) (monthly, months int, ok bool) {
	text := strings.ReplaceAll(label, ",", "")
	termLoc := termPattern.FindStringSubmatchIndex(text)
	if termLoc == nil {
		return 0, 0, false
	}
	months, err := strconv.Atoi(text[termLoc[2]:termLoc[3]])
	if err != nil || months <= 0 {
		return 0, 0, false
	}

	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		if loc[0] >= termLoc[2] && loc[1] <= termLoc[3] {
			continue
		}
		if monthly, ok := parseAmount(text[loc[0]:loc[1]]); ok {
			return monthly, months, true
		}
	}
	return 0, 0, false
}

// OfferFromText turns a free-text proposal into an Offer, keeping the text as label.
// Unparseable text yields zero amounts.
func OfferFromText(text string) Offer {
	offer := Offer{Label: strings.TrimSpace(text)}
	if monthly, months, ok := ParsePlan(text); ok {
		offer.MonthlyAmount, offer.TermMonths = monthly, months
		return offer
	}
	if monthly, months, ok := ParsePlanLoose(text); ok {
		offer.MonthlyAmount, offer.TermMonths = monthly, months
	}
	return offer
}

// Options splits a menu label ("A OR B") into its individual plans.
// A single plan returns itself.
func (o Offer) Options() []Offer {
	parts := strings.Split(o.Label, " OR ")
	if len(parts) < 2 {
		return []Offer{o}
	}

	options := make([]Offer, 0, len(parts))
	for _, part := range parts {
		monthly, months, ok := ParsePlan(part)
		if !ok {
			return []Offer{o}
		}
		options = append(options, NewPlan(monthly, months))
	}
	return options
}

// Choose 根据用户回复中提到的金额或期数从方案菜单中选出一项；无法区分时返回第一项。
func (o Offer) Choose(reply string) Offer {
	options := o.Options()
	if len(options) == 1 {
		return options[0]
	}

	mentioned := make(map[int]bool)
	for _, raw := range numberPattern.FindAllString(strings.ReplaceAll(reply, ",", ""), -1) {
		if n, ok := parseAmount(raw); ok {
			mentioned[n] = true
		}
	}

	var picked []Offer
	for _, option := range options {
		if mentioned[option.MonthlyAmount] || mentioned[option.TermMonths] {
			picked = append(picked, option)
		}
	}
	if len(picked) == 1 {
		return picked[0]
	}
	return options[0]
}
