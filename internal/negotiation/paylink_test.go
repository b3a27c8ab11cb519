package negotiation

import "testing"

func TestFormatPaymentLink(t *testing.T) {
	cases := []struct {
		name  string
		base  string
		label string
		want  string
	}{
		{
			name:  "canonical plan",
			base:  DefaultPaymentBaseURL,
			label: "$400/month for 6 months",
			want:  "https://collectwise.com/payments?termLength=6&totalDebtAmount=2400&termPaymentAmount=400",
		},
		{
			name:  "full payment",
			base:  DefaultPaymentBaseURL,
			label: "full",
			want:  "https://collectwise.com/payments?termLength=1&totalDebtAmount=2400&termPaymentAmount=2400",
		},
		{
			name:  "empty label pays in full",
			base:  DefaultPaymentBaseURL,
			label: "",
			want:  "https://collectwise.com/payments?termLength=1&totalDebtAmount=2400&termPaymentAmount=2400",
		},
		{
			name:  "per month phrasing",
			base:  DefaultPaymentBaseURL,
			label: "$200 per month for 12 months",
			want:  "https://collectwise.com/payments?termLength=12&totalDebtAmount=2400&termPaymentAmount=200",
		},
		{
			name:  "menu uses first plan",
			base:  DefaultPaymentBaseURL,
			label: "$400/month for 6 months OR $200/month for 12 months",
			want:  "https://collectwise.com/payments?termLength=6&totalDebtAmount=2400&termPaymentAmount=400",
		},
		{
			name:  "loose phrasing",
			base:  DefaultPaymentBaseURL,
			label: "8 months, paying 300 each time",
			want:  "https://collectwise.com/payments?termLength=8&totalDebtAmount=2400&termPaymentAmount=300",
		},
		{
			name:  "cents amount is rounded",
			base:  DefaultPaymentBaseURL,
			label: "$400.50/month for 6 months",
			want:  "https://collectwise.com/payments?termLength=6&totalDebtAmount=2400&termPaymentAmount=401",
		},
		{
			name:  "hyphenated term",
			base:  DefaultPaymentBaseURL,
			label: "12-month plan at $200",
			want:  "https://collectwise.com/payments?termLength=12&totalDebtAmount=2400&termPaymentAmount=200",
		},
		{
			name:  "unparseable falls back to lump sum",
			base:  DefaultPaymentBaseURL,
			label: "whatever you think is fair",
			want:  "https://collectwise.com/payments?termLength=1&totalDebtAmount=2400&termPaymentAmount=2400",
		},
		{
			name:  "trailing slash is trimmed",
			base:  "https://pay.example.com/",
			label: "FULL",
			want:  "https://pay.example.com/payments?termLength=1&totalDebtAmount=2400&termPaymentAmount=2400",
		},
		{
			name:  "blank base uses default",
			base:  "  ",
			label: "$400/month for 6 months",
			want:  "https://collectwise.com/payments?termLength=6&totalDebtAmount=2400&termPaymentAmount=400",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatPaymentLink(tc.base, DefaultTotalDebt, tc.label); got != tc.want {
				t.Fatalf("FormatPaymentLink(%q) = %q, want %q", tc.label, got, tc.want)
			}
		})
	}
}

func TestEnginePaymentLinkUsesOptions(t *testing.T) {
	e := New(nil, nil, WithTotalDebt(1200), WithPaymentBaseURL("https://example.org"))

	want := "https://example.org/payments?termLength=1&totalDebtAmount=1200&termPaymentAmount=1200"
	if got := e.PaymentLink("full"); got != want {
		t.Fatalf("PaymentLink = %q, want %q", got, want)
	}
	if e.TotalDebt() != 1200 {
		t.Fatalf("TotalDebt = %d", e.TotalDebt())
	}
}
