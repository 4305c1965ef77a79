package liquidation

import (
	"math/big"
	"testing"

	"flowScope/internal/model"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func TestEstimateLiquidationNotDraining(t *testing.T) {
	snapshot := model.FlowSnapshot{Balance: ether(10), Timestamp: 100, NetFlowRate: big.NewInt(5)}
	cases := []Rates{
		// Account is receiving more than it sends.
		{AccountNetFlowRate: big.NewInt(5)},
		// Exactly balanced after the edit.
		{AccountNetFlowRate: big.NewInt(-10), OldReceiverFlowRate: big.NewInt(10), NewReceiverFlowRate: big.NewInt(0)},
		// Closing the only outgoing stream.
		{AccountNetFlowRate: big.NewInt(-3), OldReceiverFlowRate: big.NewInt(2), OldSecondaryFlowRate: big.NewInt(1)},
		{},
	}
	for i, rates := range cases {
		if ts, ok := EstimateLiquidation(rates, snapshot, big.NewInt(0), 200); ok {
			t.Fatalf("case %d: expected no liquidation, got %d", i, ts)
		}
	}
}

func TestEstimateLiquidationEmptyBalanceIsImmediate(t *testing.T) {
	snapshot := model.FlowSnapshot{Balance: big.NewInt(0), Timestamp: 500, NetFlowRate: big.NewInt(0)}
	ts, ok := EstimateLiquidation(Rates{AccountNetFlowRate: big.NewInt(-4)}, snapshot, big.NewInt(0), 500)
	if !ok || ts != 500 {
		t.Fatalf("expected immediate liquidation at 500, got %d (ok=%v)", ts, ok)
	}
}

func TestEstimateLiquidationProjection(t *testing.T) {
	const now = int64(1_700_000_100)
	snapshot := model.FlowSnapshot{
		Balance:     ether(1000),
		Timestamp:   now - 100,
		NetFlowRate: ether(-1),
	}
	// Balance at now is 900e18. Current drain 1e18/s; raising the receiver
	// stream from 1e18 to 2e18 doubles it. pendingTopUp adds 100e18.
	rates := Rates{
		AccountNetFlowRate:  ether(-1),
		OldReceiverFlowRate: ether(1),
		NewReceiverFlowRate: ether(2),
	}
	ts, ok := EstimateLiquidation(rates, snapshot, ether(100), now)
	if !ok {
		t.Fatalf("expected a liquidation estimate")
	}
	if ts != now+500 {
		t.Fatalf("timestamp mismatch: got %d want %d", ts, now+500)
	}
}

func TestEstimateLiquidationSecondaryStream(t *testing.T) {
	snapshot := model.FlowSnapshot{Balance: big.NewInt(1000), Timestamp: 0, NetFlowRate: big.NewInt(0)}
	rates := Rates{
		AccountNetFlowRate:   big.NewInt(0),
		OldSecondaryFlowRate: big.NewInt(0),
		NewSecondaryFlowRate: big.NewInt(3),
	}
	ts, ok := EstimateLiquidation(rates, snapshot, nil, 10)
	if !ok || ts != 10+333 {
		t.Fatalf("expected truncated estimate 343, got %d (ok=%v)", ts, ok)
	}
}

func TestProjectedDrainSignConvention(t *testing.T) {
	got := ProjectedDrain(Rates{
		AccountNetFlowRate:   big.NewInt(-100),
		OldReceiverFlowRate:  big.NewInt(30),
		NewReceiverFlowRate:  big.NewInt(50),
		OldSecondaryFlowRate: big.NewInt(10),
		NewSecondaryFlowRate: big.NewInt(0),
	})
	if got.Int64() != 110 {
		t.Fatalf("drain mismatch: %s", got)
	}
}
