// Package flowconfig holds the static per-asset matching pool configuration.
package flowconfig

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"flowScope/internal/rate"
)

// Asset enumerates the streaming tokens with a dedicated pool configuration.
type Asset int

const (
	AssetDefault Asset = iota
	AssetETHx
	AssetUSDCx
	AssetDAIx
	AssetDEGENx
	AssetOPx
	AssetARBx
	assetCount
)

var assetSymbols = [assetCount]string{
	AssetDefault: "",
	AssetETHx:    "ETHx",
	AssetUSDCx:   "USDCx",
	AssetDAIx:    "DAIx",
	AssetDEGENx:  "DEGENx",
	AssetOPx:     "OPx",
	AssetARBx:    "ARBx",
}

func (a Asset) String() string {
	if a < 0 || a >= assetCount || a == AssetDefault {
		return "default"
	}
	return assetSymbols[a]
}

// ParseAsset matches symbol case-insensitively; unknown symbols map to AssetDefault.
func ParseAsset(symbol string) Asset {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return AssetDefault
	}
	for asset := AssetDefault + 1; asset < assetCount; asset++ {
		if strings.EqualFold(assetSymbols[asset], symbol) {
			return asset
		}
	}
	return AssetDefault
}

// PoolFlowRateConfig describes how contributions in an asset are weighted
// in a matching pool and what the product suggests to donors.
type PoolFlowRateConfig struct {
	MinAllocationPerMonth decimal.Decimal
	FlowRateScaling       ScalingFunc
	SuggestedDonation     decimal.Decimal
}

var defaultConfig = PoolFlowRateConfig{
	MinAllocationPerMonth: decimal.Zero,
	FlowRateScaling:       Identity,
	SuggestedDonation:     decimal.Zero,
}

var table = [assetCount]PoolFlowRateConfig{
	AssetDefault: defaultConfig,
	AssetETHx: {
		MinAllocationPerMonth: decimal.RequireFromString("0.0004"),
		FlowRateScaling:       SquareRoot(1_000_000),
		SuggestedDonation:     decimal.RequireFromString("0.001"),
	},
	AssetUSDCx: {
		MinAllocationPerMonth: decimal.NewFromInt(1),
		FlowRateScaling:       Linear(1_000_000_000_000),
		SuggestedDonation:     decimal.NewFromInt(5),
	},
	AssetDAIx: {
		MinAllocationPerMonth: decimal.NewFromInt(1),
		FlowRateScaling:       Linear(1_000_000_000_000),
		SuggestedDonation:     decimal.NewFromInt(5),
	},
	AssetDEGENx: {
		MinAllocationPerMonth: decimal.NewFromInt(100),
		FlowRateScaling:       SquareRoot(1_000_000_000),
		SuggestedDonation:     decimal.NewFromInt(1000),
	},
	AssetOPx: {
		MinAllocationPerMonth: decimal.RequireFromString("0.5"),
		FlowRateScaling:       Linear(1_000_000_000_000),
		SuggestedDonation:     decimal.NewFromInt(5),
	},
	AssetARBx: {
		MinAllocationPerMonth: decimal.NewFromInt(1),
		FlowRateScaling:       Linear(1_000_000_000_000),
		SuggestedDonation:     decimal.NewFromInt(5),
	},
}

// ForAsset returns the configuration for asset, falling back to the default.
func ForAsset(asset Asset) PoolFlowRateConfig {
	if asset < 0 || asset >= assetCount {
		return defaultConfig
	}
	return table[asset]
}

// Resolve returns the configuration for a token symbol. It never fails.
func Resolve(symbol string) PoolFlowRateConfig {
	return ForAsset(ParseAsset(symbol))
}

// MeetsMinimum reports whether flowRate streams at least MinAllocationPerMonth.
func MeetsMinimum(cfg PoolFlowRateConfig, flowRate *big.Int) bool {
	monthly := rate.PerInterval(flowRate, rate.Month)
	minimum := rate.ToSmallestUnit(cfg.MinAllocationPerMonth, rate.SuperTokenDecimals)
	return monthly.Cmp(minimum) >= 0
}
