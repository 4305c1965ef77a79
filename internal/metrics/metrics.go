// Package metrics exposes Prometheus metrics for the queue and the snapshot poller.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flowScope/internal/model"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	// Transaction queue
	QueueStepsCommitted *prometheus.CounterVec
	QueueRuns           *prometheus.CounterVec
	QueueRunDuration    prometheus.Histogram

	// Snapshot polling
	SnapshotPolls       *prometheus.CounterVec
	ProjectedBalance    *prometheus.GaugeVec
	SnapshotNetFlowRate *prometheus.GaugeVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueStepsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowscope_queue_steps_committed_total",
			Help: "Queue steps that committed successfully",
		}, []string{"step"}),

		QueueRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowscope_queue_runs_total",
			Help: "Finished queue runs by final status",
		}, []string{"status"}),

		QueueRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowscope_queue_run_duration_seconds",
			Help:    "Wall time from queue start to finish",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		SnapshotPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowscope_snapshot_polls_total",
			Help: "Snapshot polls by result",
		}, []string{"result"}),

		ProjectedBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowscope_projected_balance",
			Help: "Latest projected balance in whole tokens (display precision)",
		}, []string{"token", "account"}),

		SnapshotNetFlowRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowscope_snapshot_net_flow_rate",
			Help: "Net flow rate of the latest snapshot in smallest units per second",
		}, []string{"token", "account"}),
	}
}

// OnStep counts a committed step.
func (m *Metrics) OnStep(_ context.Context, _ model.QueueRun, step string) {
	m.QueueStepsCommitted.WithLabelValues(step).Inc()
}

// OnFinish counts the run and records its duration.
func (m *Metrics) OnFinish(_ context.Context, run model.QueueRun) error {
	m.QueueRuns.WithLabelValues(string(run.Status)).Inc()
	if !run.FinishedAt.IsZero() && !run.StartedAt.IsZero() {
		m.QueueRunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
	return nil
}

// Serve exposes reg on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg prometheus.Gatherer, logger *zap.Logger) {
	if addr == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
}
