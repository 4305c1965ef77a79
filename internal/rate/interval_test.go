package rate

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseInterval(t *testing.T) {
	cases := map[string]Interval{
		"month":  Month,
		"Months": Month,
		" day ":  Day,
		"year":   Year,
		"second": Second,
	}
	for input, want := range cases {
		got, err := ParseInterval(input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if got != want {
			t.Fatalf("%q: got %d want %d", input, got, want)
		}
	}
	if _, err := ParseInterval("fortnight"); err == nil {
		t.Fatalf("expected error for unknown interval")
	}
}

func TestToFlowRateRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("2628")
	flowRate := ToFlowRate(amount, SuperTokenDecimals, Month)

	want, _ := new(big.Int).SetString("1000000000000000", 10)
	if flowRate.Cmp(want) != 0 {
		t.Fatalf("flow rate mismatch: %s", flowRate)
	}

	monthly := PerInterval(flowRate, Month)
	if got := FormatAmount(monthly, SuperTokenDecimals, 2); got != "2628.00" {
		t.Fatalf("monthly mismatch: %s", got)
	}
}

func TestToFlowRateTruncates(t *testing.T) {
	// 1 wei per month is below one wei per second.
	got := ToFlowRate(decimal.RequireFromString("0.000000000000000001"), SuperTokenDecimals, Month)
	if got.Sign() != 0 {
		t.Fatalf("expected zero flow rate, got %s", got)
	}
}

func TestFormatFlowRate(t *testing.T) {
	got := FormatFlowRate(big.NewInt(-1_000_000_000_000_000), Day, 1)
	if got != "-86.4/day" {
		t.Fatalf("format mismatch: %s", got)
	}
	if FormatAmount(nil, 18, 3) != "0.000" {
		t.Fatalf("nil amount should format as zero")
	}
}

func TestParseFlowRate(t *testing.T) {
	got, err := ParseFlowRate("-385802469135802", "")
	if err != nil || got.Cmp(big.NewInt(-385802469135802)) != 0 {
		t.Fatalf("raw rate: %v %v", got, err)
	}

	got, err = ParseFlowRate("2628", "month")
	if err != nil {
		t.Fatalf("per month: %v", err)
	}
	if got.Cmp(big.NewInt(1_000_000_000_000_000)) != 0 {
		t.Fatalf("per month mismatch: %s", got)
	}

	if got, err := ParseFlowRate("", "month"); got != nil || err != nil {
		t.Fatalf("empty input should be unset")
	}
	if _, err := ParseFlowRate("1.5", ""); err == nil {
		t.Fatalf("expected error for fractional raw rate")
	}
	if _, err := ParseFlowRate("1", "fortnight"); err == nil {
		t.Fatalf("expected error for unknown interval")
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("1.25", 6)
	if err != nil || got.Cmp(big.NewInt(1_250_000)) != 0 {
		t.Fatalf("amount: %v %v", got, err)
	}
	if _, err := ParseAmount("-1", 18); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestRescale(t *testing.T) {
	oneToken, _ := new(big.Int).SetString("1000000000000000000", 10)
	if got := Rescale(oneToken, 18, 6); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("down mismatch: %s", got)
	}
	if got := Rescale(big.NewInt(1), 18, 6); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("remainder should round up: %s", got)
	}
	if got := Rescale(big.NewInt(1_000_000), 6, 18); got.Cmp(oneToken) != 0 {
		t.Fatalf("up mismatch: %s", got)
	}
}
