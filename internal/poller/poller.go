// Package poller refreshes flow snapshots from the chain on a fixed cadence.
package poller

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"flowScope/internal/metrics"
	"flowScope/internal/model"
	"flowScope/internal/storage"
)

// DefaultInterval is the snapshot refresh cadence.
const DefaultInterval = 10 * time.Second

// Source supplies flow snapshots.
type Source interface {
	FlowSnapshot(ctx context.Context, token, account common.Address) (model.FlowSnapshot, error)
}

// Target receives each new snapshot as a full replacement.
type Target interface {
	Replace(snapshot model.FlowSnapshot)
}

// Config holds runtime settings for the poller.
type Config struct {
	ChainID      uint64
	Token        common.Address
	Account      common.Address
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Poller fetches snapshots and hands them to a Target.
type Poller struct {
	cfg     Config
	source  Source
	target  Target
	sink    storage.Storage
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewPoller builds a Poller. sink and m may be nil.
func NewPoller(cfg Config, source Source, target Target, sink storage.Storage, m *metrics.Metrics, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		target:  target,
		sink:    sink,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// PollOnce fetches one snapshot (with retry), replaces the target's snapshot
// and records it.
func (p *Poller) PollOnce(ctx context.Context) error {
	if p.source == nil {
		return fmt.Errorf("snapshot source is nil")
	}
	if p.target == nil {
		return fmt.Errorf("snapshot target is nil")
	}

	var snapshot model.FlowSnapshot
	err := withRetry(ctx, p.cfg.MaxRetries, p.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		snapshot, err = p.source.FlowSnapshot(ctx, p.cfg.Token, p.cfg.Account)
		if err != nil {
			p.logger.Warn("snapshot fetch failed", zap.Error(err), zap.String("account", p.cfg.Account.Hex()))
		}
		return err
	})
	if err != nil {
		p.observe("error", nil)
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	p.target.Replace(snapshot)
	p.observe("ok", &snapshot)

	p.logger.Debug("snapshot replaced",
		zap.String("balance", model.OrZero(snapshot.Balance).String()),
		zap.Int64("timestamp", snapshot.Timestamp),
		zap.String("net_flow_rate", model.OrZero(snapshot.NetFlowRate).String()),
	)

	if p.sink != nil {
		record := model.SnapshotRecord{
			ChainID:    p.cfg.ChainID,
			Token:      p.cfg.Token.Hex(),
			Account:    p.cfg.Account.Hex(),
			Snapshot:   snapshot,
			ObservedAt: p.now().UTC().Format(time.RFC3339Nano),
		}
		if err := p.sink.PutSnapshots(ctx, []model.SnapshotRecord{record}); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}
	return nil
}

// Run polls immediately and then on every interval until ctx is cancelled.
// A poll still in flight when the next one is due is not overlapped.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.PollOnce(ctx); err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc("@every "+p.cfg.Interval.String(), func() {
		if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("poll failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}

	c.Start()
	p.logger.Info("poller started", zap.Duration("interval", p.cfg.Interval))

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info("poller stopped")
	return nil
}

func (p *Poller) observe(result string, snapshot *model.FlowSnapshot) {
	if p.metrics == nil {
		return
	}
	p.metrics.SnapshotPolls.WithLabelValues(result).Inc()
	if snapshot != nil {
		rate, _ := new(big.Float).SetInt(model.OrZero(snapshot.NetFlowRate)).Float64()
		p.metrics.SnapshotNetFlowRate.WithLabelValues(p.cfg.Token.Hex(), p.cfg.Account.Hex()).Set(rate)
	}
}
