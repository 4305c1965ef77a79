package flow

import (
	"context"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"flowScope/internal/model"
)

// DefaultTickInterval is the refresh cadence of a live balance.
const DefaultTickInterval = time.Second

// LiveConfig configures a LiveBalance.
type LiveConfig struct {
	Interval time.Duration
	Now      func() time.Time
}

// LiveBalance re-evaluates Project against the clock while the current
// snapshot is streaming. The owner must call Close when the consuming view
// goes away.
//
// onUpdate runs on the ticker goroutine and must not call Replace or Close.
type LiveBalance struct {
	cfg      LiveConfig
	onUpdate func(value *big.Int)
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewLiveBalance builds an idle LiveBalance; nothing is emitted until Replace.
func NewLiveBalance(cfg LiveConfig, onUpdate func(value *big.Int), logger *zap.Logger) *LiveBalance {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if onUpdate == nil {
		onUpdate = func(*big.Int) {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveBalance{cfg: cfg, onUpdate: onUpdate, logger: logger}
}

// Replace installs a new snapshot. Any running tick is cancelled first, the
// projected value is emitted immediately, and a new tick starts only if the
// snapshot has a non-zero flow rate.
func (l *LiveBalance) Replace(snapshot model.FlowSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()
	if l.closed {
		return
	}

	l.onUpdate(Project(snapshot, l.cfg.Now().Unix()))
	if snapshot.NetFlowRate == nil || snapshot.NetFlowRate.Sign() == 0 {
		l.logger.Debug("static balance, tick skipped", zap.Int64("timestamp", snapshot.Timestamp))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.tick(ctx, snapshot, done)
}

// Active reports whether a tick goroutine is running.
func (l *LiveBalance) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Close cancels the tick and waits for it to exit. Further Replace calls are ignored.
func (l *LiveBalance) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
	l.closed = true
}

func (l *LiveBalance) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *LiveBalance) tick(ctx context.Context, snapshot model.FlowSnapshot, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.onUpdate(Project(snapshot, l.cfg.Now().Unix()))
		}
	}
}
