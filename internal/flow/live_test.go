package flow

import (
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"flowScope/internal/model"
)

type recorder struct {
	mu     sync.Mutex
	values []int64
}

func (r *recorder) record(v *big.Int) {
	r.mu.Lock()
	r.values = append(r.values, v.Int64())
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.values...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

// steppingClock advances one second per call.
func steppingClock(start int64) func() time.Time {
	var calls atomic.Int64
	return func() time.Time {
		return time.Unix(start+calls.Add(1)-1, 0)
	}
}

func TestLiveBalanceZeroRateSkipsTick(t *testing.T) {
	rec := &recorder{}
	live := NewLiveBalance(LiveConfig{Interval: time.Millisecond, Now: steppingClock(100)}, rec.record, zap.NewNop())
	defer live.Close()

	live.Replace(model.FlowSnapshot{Balance: big.NewInt(9), Timestamp: 0, NetFlowRate: big.NewInt(0)})
	if live.Active() {
		t.Fatalf("zero-rate snapshot should not start a tick")
	}

	time.Sleep(10 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 || got[0] != 9 {
		t.Fatalf("expected a single constant value, got %v", got)
	}
}

func TestLiveBalanceTicksAndCloses(t *testing.T) {
	rec := &recorder{}
	live := NewLiveBalance(LiveConfig{Interval: time.Millisecond, Now: steppingClock(10)}, rec.record, zap.NewNop())

	live.Replace(model.FlowSnapshot{Balance: big.NewInt(1000), Timestamp: 10, NetFlowRate: big.NewInt(-2)})
	if !live.Active() {
		t.Fatalf("streaming snapshot should start a tick")
	}

	waitFor(t, func() bool { return len(rec.snapshot()) >= 4 })
	live.Close()
	if live.Active() {
		t.Fatalf("tick still active after Close")
	}

	values := rec.snapshot()
	for i, v := range values {
		if want := int64(1000 - 2*i); v != want {
			t.Fatalf("value %d: got %d want %d", i, v, want)
		}
	}

	time.Sleep(10 * time.Millisecond)
	if after := rec.snapshot(); len(after) != len(values) {
		t.Fatalf("values emitted after Close: %d -> %d", len(values), len(after))
	}

	live.Replace(model.FlowSnapshot{Balance: big.NewInt(1), Timestamp: 0, NetFlowRate: big.NewInt(1)})
	if live.Active() || len(rec.snapshot()) != len(values) {
		t.Fatalf("Replace after Close should be ignored")
	}
}

func TestLiveBalanceReplaceCancelsPreviousTick(t *testing.T) {
	rec := &recorder{}
	live := NewLiveBalance(LiveConfig{Interval: time.Millisecond, Now: steppingClock(0)}, rec.record, zap.NewNop())
	defer live.Close()

	live.Replace(model.FlowSnapshot{Balance: big.NewInt(500), Timestamp: 0, NetFlowRate: big.NewInt(1)})
	waitFor(t, func() bool { return len(rec.snapshot()) >= 2 })

	live.Replace(model.FlowSnapshot{Balance: big.NewInt(-7), Timestamp: 0, NetFlowRate: big.NewInt(0)})
	if live.Active() {
		t.Fatalf("previous tick should be cancelled")
	}
	emitted := len(rec.snapshot())

	time.Sleep(10 * time.Millisecond)
	values := rec.snapshot()
	if len(values) != emitted {
		t.Fatalf("old tick kept emitting: %v", values)
	}
	if values[len(values)-1] != -7 {
		t.Fatalf("last value should come from the replacement snapshot, got %d", values[len(values)-1])
	}
}
