package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowScope/internal/config"
	"flowScope/internal/flow"
	"flowScope/internal/liquidation"
	"flowScope/internal/metrics"
	"flowScope/internal/model"
	"flowScope/internal/poller"
	"flowScope/internal/rate"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow an account's streamed balance live",
		RunE:  runWatch,
	}

	addChainFlags(cmd)
	cmd.Flags().String("token", "", "super token address")
	cmd.Flags().String("account", "", "account address")
	cmd.Flags().Duration("poll-interval", poller.DefaultInterval, "snapshot refresh interval")
	cmd.Flags().Duration("tick-interval", flow.DefaultTickInterval, "live balance update interval")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per poll")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("out", "", "optional snapshots JSONL path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshot history")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	addLogFlag(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token, err := config.ParseAddress("token", cfg.Token)
	if err != nil {
		return err
	}
	account, err := config.ParseAddress("account", cfg.Account)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := connectChain(ctx, cfg.Chain)
	if err != nil {
		return err
	}
	defer conn.Close()

	chainID, err := conn.Client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	sink, closeSink, err := openStorage(ctx, cfg.PGDSN, "", cfg.Out)
	if err != nil {
		return err
	}
	defer closeSink()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	metrics.Serve(ctx, cfg.MetricsAddr, reg, logger)

	gauge := m.ProjectedBalance.WithLabelValues(token.Hex(), account.Hex())
	live := flow.NewLiveBalance(flow.LiveConfig{Interval: cfg.TickInterval}, func(value *big.Int) {
		display := decimal.NewFromBigInt(value, -rate.SuperTokenDecimals)
		gauge.Set(display.InexactFloat64())
		logger.Info("balance",
			zap.String("account", account.Hex()),
			zap.String("value", value.String()),
			zap.String("display", rate.FormatAmount(value, rate.SuperTokenDecimals, 9)),
		)
	}, logger)
	defer live.Close()

	target := &watchTarget{live: live, logger: logger, now: time.Now}

	p := poller.NewPoller(poller.Config{
		ChainID:      chainID.Uint64(),
		Token:        token,
		Account:      account,
		Interval:     cfg.PollInterval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, conn.Reader, target, sink, m, logger)

	logger.Info("watch start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.String("token", token.Hex()),
		zap.String("account", account.Hex()),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("tick_interval", cfg.TickInterval),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	return p.Run(ctx)
}

// watchTarget reports when the balance runs out before handing each snapshot
// to the live view.
type watchTarget struct {
	live   *flow.LiveBalance
	logger *zap.Logger
	now    func() time.Time
}

func (w *watchTarget) Replace(snapshot model.FlowSnapshot) {
	now := w.now().Unix()
	rates := liquidation.Rates{AccountNetFlowRate: snapshot.NetFlowRate}
	if ts, ok := liquidation.EstimateLiquidation(rates, snapshot, nil, now); ok {
		w.logger.Warn("account is draining",
			zap.String("net_flow", rate.FormatFlowRate(snapshot.NetFlowRate, rate.Day, 6)),
			zap.Time("liquidation_at", time.Unix(ts, 0).UTC()),
		)
	}
	w.live.Replace(snapshot)
}
