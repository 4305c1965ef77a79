package flowconfig

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveKnownSymbol(t *testing.T) {
	cfg := Resolve("usdcx")
	if !cfg.SuggestedDonation.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("suggested donation mismatch: %s", cfg.SuggestedDonation)
	}
	units := cfg.FlowRateScaling(big.NewInt(3_000_000_000_000))
	if units.Int64() != 3 {
		t.Fatalf("units mismatch: %s", units)
	}
}

func TestResolveUnknownSymbolFallsBack(t *testing.T) {
	for _, symbol := range []string{"", "FOOx", "ETH"} {
		cfg := Resolve(symbol)
		if !cfg.SuggestedDonation.IsZero() || !cfg.MinAllocationPerMonth.IsZero() {
			t.Fatalf("%q: expected default config", symbol)
		}
		in := big.NewInt(123456789)
		if got := cfg.FlowRateScaling(in); got.Cmp(in) != 0 {
			t.Fatalf("%q: default scaling should be identity, got %s", symbol, got)
		}
	}
}

func TestParseAsset(t *testing.T) {
	if ParseAsset("ETHX") != AssetETHx {
		t.Fatalf("expected ETHx")
	}
	if ParseAsset("unknown") != AssetDefault {
		t.Fatalf("expected default")
	}
	if AssetDefault.String() != "default" || AssetDEGENx.String() != "DEGENx" {
		t.Fatalf("string mismatch")
	}
}

func TestScalingMonotonic(t *testing.T) {
	curves := map[string]ScalingFunc{
		"linear": Linear(1000),
		"sqrt":   SquareRoot(1000),
		"ident":  Identity,
	}
	for name, curve := range curves {
		prev := curve(big.NewInt(-50))
		if prev.Sign() != 0 {
			t.Fatalf("%s: negative rate should scale to zero, got %s", name, prev)
		}
		for r := int64(0); r <= 200_000; r += 997 {
			got := curve(big.NewInt(r))
			if got.Cmp(prev) < 0 {
				t.Fatalf("%s: not monotonic at %d: %s < %s", name, r, got, prev)
			}
			prev = got
		}
	}
}

func TestSquareRootDiminishing(t *testing.T) {
	curve := SquareRoot(1)
	if got := curve(big.NewInt(100)); got.Int64() != 10 {
		t.Fatalf("sqrt(100) mismatch: %s", got)
	}
	if got := curve(big.NewInt(99)); got.Int64() != 9 {
		t.Fatalf("isqrt(99) mismatch: %s", got)
	}
	if got := curve(nil); got.Sign() != 0 {
		t.Fatalf("nil rate should scale to zero")
	}
}

func TestMeetsMinimum(t *testing.T) {
	cfg := Resolve("USDCx")
	// 1 USDCx per month is 1e18 / 2628000 wei per second, truncated.
	below := big.NewInt(380517503805)
	above := big.NewInt(380517503806)
	if MeetsMinimum(cfg, below) {
		t.Fatalf("rate %s should be below the monthly minimum", below)
	}
	if !MeetsMinimum(cfg, above) {
		t.Fatalf("rate %s should meet the monthly minimum", above)
	}
	if !MeetsMinimum(Resolve("unknown"), big.NewInt(0)) {
		t.Fatalf("default config has no minimum")
	}
}
