package poller

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"flowScope/internal/metrics"
	"flowScope/internal/model"
)

type fakeSource struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *fakeSource) FlowSnapshot(context.Context, common.Address, common.Address) (model.FlowSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return model.FlowSnapshot{}, errors.New("rpc unavailable")
	}
	return model.FlowSnapshot{
		Balance:     big.NewInt(int64(1000 * f.calls)),
		Timestamp:   int64(f.calls),
		NetFlowRate: big.NewInt(-1),
	}, nil
}

type fakeTarget struct {
	mu        sync.Mutex
	snapshots []model.FlowSnapshot
}

func (f *fakeTarget) Replace(s model.FlowSnapshot) {
	f.mu.Lock()
	f.snapshots = append(f.snapshots, s)
	f.mu.Unlock()
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

type memorySink struct {
	records []model.SnapshotRecord
}

func (m *memorySink) PutQueueRun(context.Context, model.QueueRun) error { return nil }

func (m *memorySink) PutSnapshots(_ context.Context, records []model.SnapshotRecord) error {
	m.records = append(m.records, records...)
	return nil
}

var (
	token   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	account = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestPollOnceRetriesThenReplaces(t *testing.T) {
	source := &fakeSource{failures: 2}
	target := &fakeTarget{}
	sink := &memorySink{}
	m := metrics.New(prometheus.NewRegistry())

	p := NewPoller(Config{
		ChainID:      10,
		Token:        token,
		Account:      account,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}, source, target, sink, m, zap.NewNop())

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", source.calls)
	}
	if target.count() != 1 || target.snapshots[0].Balance.Int64() != 3000 {
		t.Fatalf("target mismatch: %+v", target.snapshots)
	}
	if len(sink.records) != 1 || sink.records[0].ChainID != 10 || sink.records[0].Account != account.Hex() {
		t.Fatalf("sink mismatch: %+v", sink.records)
	}
	if got := testutil.ToFloat64(m.SnapshotPolls.WithLabelValues("ok")); got != 1 {
		t.Fatalf("ok polls: %v", got)
	}
}

func TestPollOnceGivesUp(t *testing.T) {
	source := &fakeSource{failures: 10}
	target := &fakeTarget{}
	p := NewPoller(Config{Token: token, Account: account, MaxRetries: 1, RetryBackoff: time.Millisecond}, source, target, nil, nil, nil)

	if err := p.PollOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", source.calls)
	}
	if target.count() != 0 {
		t.Fatalf("failed poll must not replace the snapshot")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	target := &fakeTarget{}
	p := NewPoller(Config{Token: token, Account: account, Interval: time.Second}, source, target, nil, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for target.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if target.count() == 0 {
		t.Fatalf("initial poll did not happen")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestWithRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected context cancellation after one call, got %v (%d calls)", err, calls)
	}
}
