package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowScope/internal/chain"
	"flowScope/internal/config"
	"flowScope/internal/funding"
	"flowScope/internal/liquidation"
	"flowScope/internal/matching"
	"flowScope/internal/metrics"
	"flowScope/internal/queue"
	"flowScope/internal/rate"
	"flowScope/internal/storage"
)

func newFundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Wrap, stream and distribute in one transaction queue",
		RunE:  runFund,
	}

	addChainFlags(cmd)
	cmd.Flags().String("private-key", "", "hex private key (prefer FLOWSCOPE_PRIVATE_KEY)")
	cmd.Flags().String("token", "", "super token address")
	cmd.Flags().String("asset", "", "super token symbol (e.g. ETHx)")
	cmd.Flags().String("underlying", "", "underlying ERC20 to wrap (default read from the super token)")
	cmd.Flags().String("wrap-amount", "", "amount to wrap in whole tokens")
	cmd.Flags().String("receiver", "", "stream receiver address")
	cmd.Flags().String("flow-rate", "", "new stream flow rate")
	cmd.Flags().String("pool", "", "distribution pool address")
	cmd.Flags().String("distribution-flow-rate", "", "new distribution flow rate into the pool")
	cmd.Flags().String("matching-pool", "", "matching pool to preview the receiver's payout change")
	cmd.Flags().String("per", "", "read rates as token amounts per interval (e.g. month)")
	cmd.Flags().Bool("dry-run", false, "print the queue without sending transactions")
	cmd.Flags().String("out", "./data/queue_runs.jsonl", "queue runs JSONL path")
	cmd.Flags().String("pg-dsn", "", "optional Postgres DSN for queue run history")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	addLogFlag(cmd)
	return cmd
}

type fundOutput struct {
	Steps       []string           `json:"steps"`
	Liquidation *liquidationOutput `json:"liquidation,omitempty"`
	Matching    *matchingOutput    `json:"matching,omitempty"`
	State       *queue.State       `json:"state,omitempty"`
	RunID       string             `json:"run_id,omitempty"`
}

func runFund(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFund(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	edit, err := parseEdit(cfg)
	if err != nil {
		return err
	}
	matchingPool, err := config.ParseOptionalAddress("matching pool", cfg.MatchingPool)
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
	reader := conn.Reader

	executor, err := chain.NewExecutor(ctx, conn.Client, cfg.PrivateKey, conn.CFA, conn.GDA, logger)
	if err != nil {
		return err
	}
	sender := executor.Sender()

	if err := resolveWrap(ctx, reader, &edit); err != nil {
		return err
	}
	if err := loadCurrentState(ctx, reader, sender, &edit); err != nil {
		return err
	}
	asset := cfg.Asset
	if asset == "" {
		if info, err := reader.Token(ctx, edit.SuperToken); err == nil {
			asset = info.Symbol
		} else {
			logger.Warn("token metadata fetch failed", zap.String("token", edit.SuperToken.Hex()), zap.Error(err))
		}
	}
	if err := edit.Validate(); err != nil {
		return err
	}

	out := fundOutput{}

	snapshot, err := reader.FlowSnapshot(ctx, edit.SuperToken, sender)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	now, err := conn.chainTime(ctx)
	if err != nil {
		return err
	}
	liq := previewLiquidation(liquidation.Rates{
		AccountNetFlowRate:   snapshot.NetFlowRate,
		OldReceiverFlowRate:  edit.OldFlowRate,
		NewReceiverFlowRate:  effectiveRate(edit.OldFlowRate, edit.NewFlowRate),
		OldSecondaryFlowRate: edit.OldDistributionFlowRate,
		NewSecondaryFlowRate: effectiveRate(edit.OldDistributionFlowRate, edit.NewDistributionFlowRate),
	}, snapshot, edit.WrapAmount, now)
	out.Liquidation = &liq
	if liq.Draining {
		logger.Warn("balance will run out", zap.String("at", liq.LiquidationUTC))
	}

	if matchingPool != nil && edit.Receiver != nil && edit.NewFlowRate != nil {
		pool, current, err := readPool(ctx, reader, *matchingPool, *edit.Receiver, nil, nil)
		if err != nil {
			return err
		}
		preview := previewMatching(pool, matching.Grantee{Address: *edit.Receiver, CurrentMatchingFlowRate: current},
			edit.OldFlowRate, edit.NewFlowRate, asset)
		out.Matching = &preview
		if !preview.MeetsMinimum && edit.NewFlowRate.Sign() > 0 {
			logger.Warn("allocation below minimum",
				zap.String("asset", preview.Asset),
				zap.String("minimum_per_month", preview.MinimumPerMonth),
			)
		}
	}

	steps := funding.BuildQueue(edit, executor)
	for _, step := range steps {
		out.Steps = append(out.Steps, step.Name)
	}

	logger.Info("fund queue",
		zap.String("sender", sender.Hex()),
		zap.String("token", edit.SuperToken.Hex()),
		addressField("receiver", edit.Receiver),
		addressField("pool", edit.Pool),
		zap.Strings("steps", out.Steps),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if cfg.DryRun || len(steps) == 0 {
		return printJSON(out)
	}

	sink, closeSink, err := openStorage(ctx, cfg.PGDSN, cfg.Out, "")
	if err != nil {
		return err
	}
	defer closeSink()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	metrics.Serve(ctx, cfg.MetricsAddr, reg, logger)

	orchestrator := queue.NewOrchestrator(logger, m, &storage.RunRecorder{Sink: sink})
	runErr := orchestrator.Run(ctx, steps)

	state := orchestrator.State()
	out.State = &state
	out.RunID = orchestrator.LastRun().ID.String()
	if err := printJSON(out); err != nil {
		return err
	}
	return runErr
}

func parseEdit(cfg config.FundConfig) (funding.Edit, error) {
	token, err := config.ParseAddress("token", cfg.Token)
	if err != nil {
		return funding.Edit{}, err
	}
	edit := funding.Edit{SuperToken: token}

	if edit.Underlying, err = config.ParseOptionalAddress("underlying", cfg.Underlying); err != nil {
		return funding.Edit{}, err
	}
	if edit.Receiver, err = config.ParseOptionalAddress("receiver", cfg.Receiver); err != nil {
		return funding.Edit{}, err
	}
	if edit.Pool, err = config.ParseOptionalAddress("pool", cfg.Pool); err != nil {
		return funding.Edit{}, err
	}
	if edit.WrapAmount, err = rate.ParseAmount(cfg.WrapAmount, rate.SuperTokenDecimals); err != nil {
		return funding.Edit{}, fmt.Errorf("parse wrap amount: %w", err)
	}
	if edit.NewFlowRate, err = rate.ParseFlowRate(cfg.FlowRate, cfg.Per); err != nil {
		return funding.Edit{}, fmt.Errorf("parse flow rate: %w", err)
	}
	if edit.NewDistributionFlowRate, err = rate.ParseFlowRate(cfg.DistributionFlowRate, cfg.Per); err != nil {
		return funding.Edit{}, fmt.Errorf("parse distribution flow rate: %w", err)
	}
	return edit, nil
}

// resolveWrap finds the underlying token when none was given and converts the
// wrap amount into its precision for the approval.
func resolveWrap(ctx context.Context, reader *chain.Reader, edit *funding.Edit) error {
	if edit.WrapAmount == nil || edit.WrapAmount.Sign() == 0 {
		return nil
	}
	if edit.Underlying == nil {
		underlying, ok, err := reader.UnderlyingToken(ctx, edit.SuperToken)
		if err != nil {
			return fmt.Errorf("read underlying token: %w", err)
		}
		if !ok {
			return nil
		}
		edit.Underlying = &underlying
	}
	info, err := reader.Token(ctx, *edit.Underlying)
	if err != nil {
		return fmt.Errorf("read underlying token: %w", err)
	}
	edit.ApproveAmount = rate.Rescale(edit.WrapAmount, rate.SuperTokenDecimals, int32(info.Decimals))
	return nil
}

// loadCurrentState fills the edit's "old" side from chain so that unchanged
// streams and existing pool connections produce no steps.
func loadCurrentState(ctx context.Context, reader *chain.Reader, sender common.Address, edit *funding.Edit) error {
	if edit.Receiver != nil {
		current, err := reader.StreamFlowRate(ctx, edit.SuperToken, sender, *edit.Receiver)
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		edit.OldFlowRate = current
		if edit.NewFlowRate == nil {
			edit.NewFlowRate = current
		}
	}
	if edit.Pool != nil {
		connected, err := reader.IsMemberConnected(ctx, *edit.Pool, sender)
		if err != nil {
			return fmt.Errorf("read pool connection: %w", err)
		}
		edit.PoolConnected = connected

		current, err := reader.DistributionFlowRate(ctx, edit.SuperToken, sender, *edit.Pool)
		if err != nil {
			return fmt.Errorf("read distribution: %w", err)
		}
		edit.OldDistributionFlowRate = current
		if edit.NewDistributionFlowRate == nil {
			edit.NewDistributionFlowRate = current
		}
	}
	return nil
}

func effectiveRate(old, next *big.Int) *big.Int {
	if next == nil {
		return old
	}
	return next
}
