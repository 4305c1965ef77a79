// Package liquidation estimates when a draining streaming balance reaches zero.
package liquidation

import (
	"math/big"

	"flowScope/internal/flow"
	"flowScope/internal/model"
)

// Rates are the account's current net flow rate and the before/after rates of
// the two streams touched by a proposed edit. AccountNetFlowRate uses the
// snapshot convention: negative while draining.
type Rates struct {
	AccountNetFlowRate   *big.Int
	OldReceiverFlowRate  *big.Int
	NewReceiverFlowRate  *big.Int
	OldSecondaryFlowRate *big.Int
	NewSecondaryFlowRate *big.Int
}

// ProjectedDrain returns the account's outflow magnitude after the edit:
// -account - oldReceiver - oldSecondary + newReceiver + newSecondary.
func ProjectedDrain(r Rates) *big.Int {
	drain := new(big.Int).Neg(model.OrZero(r.AccountNetFlowRate))
	drain.Sub(drain, model.OrZero(r.OldReceiverFlowRate))
	drain.Sub(drain, model.OrZero(r.OldSecondaryFlowRate))
	drain.Add(drain, model.OrZero(r.NewReceiverFlowRate))
	return drain.Add(drain, model.OrZero(r.NewSecondaryFlowRate))
}

// EstimateLiquidation returns the unix timestamp at which the account's
// balance plus pendingTopUp is exhausted under the proposed rates. ok is false
// when the account is not net-draining (drain <= 0), including exactly zero.
func EstimateLiquidation(r Rates, snapshot model.FlowSnapshot, pendingTopUp *big.Int, now int64) (ts int64, ok bool) {
	drain := ProjectedDrain(r)
	if drain.Sign() <= 0 {
		return 0, false
	}

	available := flow.Project(snapshot, now)
	available.Add(available, model.OrZero(pendingTopUp))

	seconds := available.Quo(available, drain)
	if !seconds.IsInt64() {
		if seconds.Sign() > 0 {
			return maxTimestamp, true
		}
		return minTimestamp, true
	}
	return saturatingAdd(now, seconds.Int64()), true
}

const (
	maxTimestamp = int64(^uint64(0) >> 1)
	minTimestamp = -maxTimestamp - 1
)

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if b > 0 && sum < a {
		return maxTimestamp
	}
	if b < 0 && sum > a {
		return minTimestamp
	}
	return sum
}
