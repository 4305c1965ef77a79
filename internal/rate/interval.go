package rate

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// SuperTokenDecimals is the precision of every wrapped streaming token.
const SuperTokenDecimals int32 = 18

// Interval is a display period measured in seconds.
type Interval int64

const (
	Second Interval = 1
	Minute Interval = 60
	Hour   Interval = 3600
	Day    Interval = 86400
	Week   Interval = 604800
	Month  Interval = 2628000
	Year   Interval = 31536000
)

var intervalNames = map[string]Interval{
	"second": Second,
	"minute": Minute,
	"hour":   Hour,
	"day":    Day,
	"week":   Week,
	"month":  Month,
	"year":   Year,
}

// ParseInterval maps a period name (e.g. "month") to an Interval.
func ParseInterval(name string) (Interval, error) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "s")
	if interval, ok := intervalNames[key]; ok {
		return interval, nil
	}
	return 0, fmt.Errorf("unknown interval: %s", name)
}

func (i Interval) String() string {
	for name, interval := range intervalNames {
		if interval == i {
			return name
		}
	}
	return fmt.Sprintf("%ds", int64(i))
}

// Seconds returns the interval length as a big integer.
func (i Interval) Seconds() *big.Int {
	return big.NewInt(int64(i))
}

// PerInterval converts a per-second flow rate into the amount streamed over interval.
func PerInterval(flowRate *big.Int, interval Interval) *big.Int {
	if flowRate == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(flowRate, interval.Seconds())
}

// ToSmallestUnit converts a human amount into integer smallest units, truncating
// any precision beyond decimals.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

// ToFlowRate converts an amount per interval into a per-second flow rate.
// The result truncates toward zero, as the chain does.
func ToFlowRate(amount decimal.Decimal, decimals int32, interval Interval) *big.Int {
	units := ToSmallestUnit(amount, decimals)
	if interval <= 0 {
		return units
	}
	return units.Quo(units, interval.Seconds())
}

// FormatAmount renders an integer amount for display with the given number of places.
func FormatAmount(value *big.Int, decimals int32, places int32) string {
	if value == nil {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromBigInt(value, -decimals).Truncate(places).StringFixed(places)
}

// FormatFlowRate renders a per-second rate as an amount per interval.
func FormatFlowRate(flowRate *big.Int, interval Interval, places int32) string {
	return FormatAmount(PerInterval(flowRate, interval), SuperTokenDecimals, places) + "/" + interval.String()
}

// ParseFlowRate reads a flow rate from user input. With per empty the value is
// an integer in smallest units per second; otherwise it is a token amount
// streamed over the named interval.
func ParseFlowRate(value, per string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if per == "" {
		out, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid flow rate: %q", value)
		}
		return out, nil
	}
	interval, err := ParseInterval(per)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return ToFlowRate(amount, SuperTokenDecimals, interval), nil
}

// ParseAmount reads a non-negative token amount and returns it in smallest units.
func ParseAmount(value string, decimals int32) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %q", value)
	}
	return ToSmallestUnit(amount, decimals), nil
}

// Rescale converts an amount between token precisions. Scaling down rounds
// up so that an allowance always covers the original amount.
func Rescale(value *big.Int, from, to int32) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	out := new(big.Int).Set(value)
	switch {
	case to > from:
		return out.Mul(out, pow10(to-from))
	case to < from:
		div := pow10(from - to)
		q, m := new(big.Int).QuoRem(out, div, new(big.Int))
		if m.Sign() > 0 {
			q.Add(q, big.NewInt(1))
		}
		return q
	default:
		return out
	}
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
