package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowScope/internal/config"
	"flowScope/internal/flow"
	"flowScope/internal/model"
	"flowScope/internal/rate"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a streamed balance at a point in time",
		RunE:  runProject,
	}

	addChainFlags(cmd)
	addSnapshotFlags(cmd)
	cmd.Flags().String("at", "", "projection time (unix seconds or RFC3339), default now")
	cmd.Flags().String("per", "", "display interval for the net flow rate (e.g. day, month)")
	addLogFlag(cmd)
	return cmd
}

func addSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().String("token", "", "super token address (read snapshot from chain)")
	cmd.Flags().String("account", "", "account address (read snapshot from chain)")
	cmd.Flags().String("balance", "", "snapshot balance in smallest units")
	cmd.Flags().String("timestamp", "", "snapshot time (unix seconds or RFC3339)")
	cmd.Flags().String("net-flow-rate", "", "snapshot net flow rate in smallest units per second")
}

type projectOutput struct {
	Snapshot model.FlowSnapshot `json:"snapshot"`
	At       int64              `json:"at"`
	Balance  string             `json:"balance"`
	Display  string             `json:"display"`
	NetFlow  string             `json:"net_flow,omitempty"`
}

func runProject(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEstimate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, at, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return err
	}

	projected := flow.Project(snapshot, at)
	out := projectOutput{
		Snapshot: snapshot,
		At:       at,
		Balance:  projected.String(),
		Display:  rate.FormatAmount(projected, rate.SuperTokenDecimals, 6),
	}
	if cfg.Per != "" {
		interval, err := rate.ParseInterval(cfg.Per)
		if err != nil {
			return err
		}
		out.NetFlow = rate.FormatFlowRate(snapshot.NetFlowRate, interval, 6)
	}

	logger.Debug("projected balance",
		zap.Int64("elapsed", at-snapshot.Timestamp),
		zap.String("balance", out.Balance),
	)
	return printJSON(out)
}

// loadSnapshot reads the snapshot from flags when a balance is given, and from
// chain otherwise. It also resolves the evaluation time: --at when set, else
// the latest block time for chain snapshots, else the wall clock.
func loadSnapshot(ctx context.Context, cfg config.EstimateConfig) (model.FlowSnapshot, int64, error) {
	if cfg.Balance != "" {
		balance, err := model.ParseInt(cfg.Balance)
		if err != nil {
			return model.FlowSnapshot{}, 0, fmt.Errorf("parse balance: %w", err)
		}
		ts, ok, err := config.ParseTimestamp(cfg.Timestamp)
		if err != nil {
			return model.FlowSnapshot{}, 0, fmt.Errorf("parse timestamp: %w", err)
		}
		if !ok {
			return model.FlowSnapshot{}, 0, fmt.Errorf("timestamp is required with balance")
		}
		netFlowRate, err := model.ParseInt(cfg.NetFlowRate)
		if err != nil {
			return model.FlowSnapshot{}, 0, fmt.Errorf("parse net flow rate: %w", err)
		}
		at, err := evaluationTime(ctx, cfg.At, nil)
		if err != nil {
			return model.FlowSnapshot{}, 0, err
		}
		return model.FlowSnapshot{Balance: balance, Timestamp: ts, NetFlowRate: netFlowRate}, at, nil
	}

	token, err := config.ParseAddress("token", cfg.Token)
	if err != nil {
		return model.FlowSnapshot{}, 0, err
	}
	account, err := config.ParseAddress("account", cfg.Account)
	if err != nil {
		return model.FlowSnapshot{}, 0, err
	}
	conn, err := connectChain(ctx, cfg.Chain)
	if err != nil {
		return model.FlowSnapshot{}, 0, err
	}
	defer conn.Close()

	snapshot, err := conn.Reader.FlowSnapshot(ctx, token, account)
	if err != nil {
		return model.FlowSnapshot{}, 0, err
	}
	at, err := evaluationTime(ctx, cfg.At, conn)
	if err != nil {
		return model.FlowSnapshot{}, 0, err
	}
	return snapshot, at, nil
}

func printJSON(value interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
