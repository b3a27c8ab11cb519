package negotiation

import (
	"fmt"
	"strings"

	model "github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
)

// DefaultPaymentBaseURL is used when no base URL is configured.
const DefaultPaymentBaseURL = "https://collectwise.com"

// FormatPaymentLink builds the payment URL for an agreed plan label.
// An empty label, "full", or an unparseable label yields the lump-sum link.
func FormatPaymentLink(baseURL string, totalDebt int, offerLabel string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultPaymentBaseURL
	}

	label := strings.TrimSpace(offerLabel)
	if label == "" || strings.EqualFold(label, model.FullPaymentLabel) {
		return lumpSumLink(baseURL, totalDebt)
	}

	monthly, months, ok := model.ParsePlan(label)
	if !ok {
		monthly, months, ok = model.ParsePlanLoose(label)
	}
	if !ok {
		return lumpSumLink(baseURL, totalDebt)
	}

	return paymentURL(baseURL, months, totalDebt, monthly)
}

func lumpSumLink(baseURL string, totalDebt int) string {
	return paymentURL(baseURL, 1, totalDebt, totalDebt)
}

func paymentURL(baseURL string, termLength, totalDebt, termPayment int) string {
	return fmt.Sprintf("%s/payments?termLength=%d&totalDebtAmount=%d&termPaymentAmount=%d",
		baseURL, termLength, totalDebt, termPayment)
}
