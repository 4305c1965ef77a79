// Package flow projects streaming balances forward in time.
package flow

import (
	"math/big"

	"flowScope/internal/model"
)

// Project returns balance + netFlowRate*(now - timestamp) in exact integer
// arithmetic. Elapsed time may be zero or negative; the result is not clamped.
func Project(snapshot model.FlowSnapshot, now int64) *big.Int {
	value := new(big.Int)
	if snapshot.Balance != nil {
		value.Set(snapshot.Balance)
	}
	if snapshot.NetFlowRate == nil || snapshot.NetFlowRate.Sign() == 0 {
		return value
	}
	elapsed := big.NewInt(now - snapshot.Timestamp)
	return value.Add(value, elapsed.Mul(elapsed, snapshot.NetFlowRate))
}
