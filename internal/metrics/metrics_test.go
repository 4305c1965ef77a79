package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"flowScope/internal/queue"
)

func TestMetricsObserveQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	orch := queue.NewOrchestrator(zap.NewNop(), m)

	ok := func(context.Context) error { return nil }
	_ = orch.Run(context.Background(), []queue.Step{
		{Name: "wrap", Do: ok},
		{Name: "set-flow-rate", Do: func(context.Context) error { return errors.New("reverted") }},
	})
	_ = orch.Run(context.Background(), []queue.Step{{Name: "wrap", Do: ok}})

	if got := testutil.ToFloat64(m.QueueStepsCommitted.WithLabelValues("wrap")); got != 2 {
		t.Fatalf("wrap steps: %v", got)
	}
	if got := testutil.ToFloat64(m.QueueStepsCommitted.WithLabelValues("set-flow-rate")); got != 0 {
		t.Fatalf("failed steps must not count: %v", got)
	}
	if got := testutil.ToFloat64(m.QueueRuns.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed runs: %v", got)
	}
	if got := testutil.ToFloat64(m.QueueRuns.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("succeeded runs: %v", got)
	}
	if got := testutil.CollectAndCount(m.QueueRunDuration); got != 1 {
		t.Fatalf("duration histogram not collected: %d", got)
	}
}

func TestServeDisabledWithoutAddr(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	Serve(ctx, "", prometheus.NewRegistry(), nil)
}
