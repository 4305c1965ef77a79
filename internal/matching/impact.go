// Package matching estimates how a stream edit moves a grantee's share of a
// proportional matching pool.
package matching

import (
	"math/big"

	"flowScope/internal/flowconfig"
	"flowScope/internal/model"
)

// Request describes a proposed change to a requester's allocation to one grantee.
type Request struct {
	GranteeUnits                   *big.Int
	GranteeCurrentMatchingFlowRate *big.Int
	PreviousRequesterFlowRate      *big.Int
	NewRequesterFlowRate           *big.Int
}

// EstimateImpact returns the projected change in the grantee's matching flow
// rate if the requester's allocation moves from PreviousRequesterFlowRate to
// NewRequesterFlowRate. A change that leaves the scaled units unchanged is
// zero, and a pool whose projected total units is zero yields a zero share
// rather than an error.
func EstimateImpact(pool model.PoolSnapshot, req Request, scaling flowconfig.ScalingFunc) *big.Int {
	if scaling == nil {
		scaling = flowconfig.Identity
	}
	previous := model.OrZero(req.PreviousRequesterFlowRate)
	next := model.OrZero(req.NewRequesterFlowRate)

	// Rates in the same scaling bucket do not move the pool.
	unitsDelta := new(big.Int).Sub(scaling(next), scaling(previous))
	if unitsDelta.Sign() == 0 {
		return new(big.Int)
	}
	projectedGranteeUnits := new(big.Int).Add(model.OrZero(req.GranteeUnits), unitsDelta)
	projectedTotalUnits := new(big.Int).Add(model.OrZero(pool.TotalUnits), unitsDelta)
	adjustedTotalFlowRate := new(big.Int).Sub(model.OrZero(pool.TotalFlowRate), model.OrZero(pool.AdjustmentFlowRate))

	share := new(big.Int)
	if projectedTotalUnits.Sign() != 0 {
		share.Mul(projectedGranteeUnits, adjustedTotalFlowRate)
		share.Quo(share, projectedTotalUnits)
	}

	return share.Sub(share, model.OrZero(req.GranteeCurrentMatchingFlowRate))
}

// EstimateForAsset resolves the asset's scaling curve and estimates the impact
// for a pool member identified by address.
func EstimateForAsset(pool model.PoolSnapshot, grantee Grantee, previous, next *big.Int, symbol string) *big.Int {
	cfg := flowconfig.Resolve(symbol)
	return EstimateImpact(pool, Request{
		GranteeUnits:                   pool.UnitsOf(grantee.Address),
		GranteeCurrentMatchingFlowRate: grantee.CurrentMatchingFlowRate,
		PreviousRequesterFlowRate:      previous,
		NewRequesterFlowRate:           next,
	}, cfg.FlowRateScaling)
}
