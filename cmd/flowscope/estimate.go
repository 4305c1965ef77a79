package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowScope/internal/chain"
	"flowScope/internal/config"
	"flowScope/internal/flowconfig"
	"flowScope/internal/liquidation"
	"flowScope/internal/matching"
	"flowScope/internal/model"
	"flowScope/internal/rate"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the effect of a proposed stream edit",
	}

	matchingCmd := &cobra.Command{
		Use:   "matching",
		Short: "Estimate the change in a grantee's matching pool payout",
		RunE:  runEstimateMatching,
	}
	addChainFlags(matchingCmd)
	matchingCmd.Flags().String("pool", "", "matching pool address (read from chain)")
	matchingCmd.Flags().String("pool-file", "", "pool snapshot JSON file instead of chain")
	matchingCmd.Flags().String("grantee", "", "grantee address")
	matchingCmd.Flags().StringSlice("members", nil, "other pool members to read units for (comma-separated)")
	matchingCmd.Flags().String("grantee-units", "", "override the grantee's pool units")
	matchingCmd.Flags().String("current-matching-flow-rate", "", "grantee's current matching flow rate (default read from chain, else 0)")
	matchingCmd.Flags().String("previous-flow-rate", "0", "requester's current stream rate to the grantee")
	matchingCmd.Flags().String("new-flow-rate", "", "requester's proposed stream rate to the grantee")
	matchingCmd.Flags().String("asset", "", "super token symbol selecting the scaling curve (e.g. ETHx)")
	matchingCmd.Flags().String("per", "", "read rates as token amounts per interval (e.g. month)")
	addLogFlag(matchingCmd)

	liquidationCmd := &cobra.Command{
		Use:   "liquidation",
		Short: "Estimate when an account's balance runs out after an edit",
		RunE:  runEstimateLiquidation,
	}
	addChainFlags(liquidationCmd)
	addSnapshotFlags(liquidationCmd)
	liquidationCmd.Flags().String("account-net-flow-rate", "", "account net flow rate (default the snapshot's)")
	liquidationCmd.Flags().String("old-receiver-flow-rate", "0", "current rate of the edited stream")
	liquidationCmd.Flags().String("new-receiver-flow-rate", "0", "proposed rate of the edited stream")
	liquidationCmd.Flags().String("old-secondary-flow-rate", "0", "current rate of the secondary stream or distribution")
	liquidationCmd.Flags().String("new-secondary-flow-rate", "0", "proposed rate of the secondary stream or distribution")
	liquidationCmd.Flags().String("pending-top-up", "0", "tokens about to be wrapped, in smallest units")
	liquidationCmd.Flags().String("at", "", "evaluation time (unix seconds or RFC3339), default now")
	liquidationCmd.Flags().String("per", "", "read rates as token amounts per interval (e.g. month)")
	addLogFlag(liquidationCmd)

	cmd.AddCommand(matchingCmd)
	cmd.AddCommand(liquidationCmd)
	return cmd
}

type matchingOutput struct {
	Pool              model.PoolSnapshot `json:"pool"`
	Asset             string             `json:"asset"`
	GranteeUnits      string             `json:"grantee_units"`
	MatchingDelta     string             `json:"matching_delta"`
	MatchingDeltaText string             `json:"matching_delta_display"`
	MeetsMinimum      bool               `json:"meets_minimum"`
	MinimumPerMonth   string             `json:"minimum_per_month"`
	SuggestedDonation string             `json:"suggested_donation"`
}

func runEstimateMatching(cmd *cobra.Command, _ []string) error {
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

	grantee, err := config.ParseAddress("grantee", cfg.Grantee)
	if err != nil {
		return err
	}
	previous, err := rate.ParseFlowRate(cfg.PreviousFlowRate, cfg.Per)
	if err != nil {
		return fmt.Errorf("parse previous flow rate: %w", err)
	}
	next, err := rate.ParseFlowRate(cfg.NewFlowRate, cfg.Per)
	if err != nil {
		return fmt.Errorf("parse new flow rate: %w", err)
	}
	if next == nil {
		return fmt.Errorf("new flow rate is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, current, err := loadPool(ctx, cfg, grantee)
	if err != nil {
		return err
	}
	if cfg.GranteeUnits != "" {
		units, err := model.ParseUnits(cfg.GranteeUnits)
		if err != nil {
			return fmt.Errorf("parse grantee units: %w", err)
		}
		pool = withMemberUnits(pool, grantee, units)
	}

	out := previewMatching(pool, matching.Grantee{Address: grantee, CurrentMatchingFlowRate: current}, previous, next, cfg.Asset)
	if !out.MeetsMinimum && next.Sign() > 0 {
		logger.Warn("allocation below minimum",
			zap.String("asset", out.Asset),
			zap.String("minimum_per_month", out.MinimumPerMonth),
		)
	}
	return printJSON(out)
}

// previewMatching estimates how a requester's stream change moves the
// grantee's matching payout.
func previewMatching(pool model.PoolSnapshot, grantee matching.Grantee, previous, next *big.Int, symbol string) matchingOutput {
	asset := flowconfig.ParseAsset(symbol)
	cfg := flowconfig.ForAsset(asset)
	delta := matching.EstimateForAsset(pool, grantee, previous, next, symbol)
	return matchingOutput{
		Pool:              pool,
		Asset:             asset.String(),
		GranteeUnits:      pool.UnitsOf(grantee.Address).String(),
		MatchingDelta:     delta.String(),
		MatchingDeltaText: rate.FormatFlowRate(delta, rate.Month, 6),
		MeetsMinimum:      flowconfig.MeetsMinimum(cfg, next),
		MinimumPerMonth:   cfg.MinAllocationPerMonth.String(),
		SuggestedDonation: cfg.SuggestedDonation.String(),
	}
}

// loadPool returns the pool snapshot and the grantee's current matching flow
// rate, from a file or from chain.
func loadPool(ctx context.Context, cfg config.EstimateConfig, grantee common.Address) (model.PoolSnapshot, *big.Int, error) {
	var current *big.Int
	if cfg.CurrentMatchingFlowRate != "" {
		parsed, err := rate.ParseFlowRate(cfg.CurrentMatchingFlowRate, cfg.Per)
		if err != nil {
			return model.PoolSnapshot{}, nil, fmt.Errorf("parse current matching flow rate: %w", err)
		}
		current = parsed
	}

	if cfg.PoolFile != "" {
		data, err := os.ReadFile(cfg.PoolFile)
		if err != nil {
			return model.PoolSnapshot{}, nil, fmt.Errorf("read pool file: %w", err)
		}
		var pool model.PoolSnapshot
		if err := json.Unmarshal(data, &pool); err != nil {
			return model.PoolSnapshot{}, nil, fmt.Errorf("decode pool file: %w", err)
		}
		return pool, model.OrZero(current), nil
	}

	poolAddr, err := config.ParseAddress("pool", cfg.Pool)
	if err != nil {
		return model.PoolSnapshot{}, nil, err
	}
	members, err := config.ParseAddresses(cfg.Members)
	if err != nil {
		return model.PoolSnapshot{}, nil, fmt.Errorf("parse members: %w", err)
	}
	conn, err := connectChain(ctx, cfg.Chain)
	if err != nil {
		return model.PoolSnapshot{}, nil, err
	}
	defer conn.Close()

	return readPool(ctx, conn.Reader, poolAddr, grantee, members, current)
}

// readPool reads the pool with the units of grantee and any extra members.
func readPool(ctx context.Context, reader *chain.Reader, pool, grantee common.Address, members []common.Address, current *big.Int) (model.PoolSnapshot, *big.Int, error) {
	snapshot, err := reader.PoolSnapshot(ctx, pool, poolMembers(grantee, members))
	if err != nil {
		return model.PoolSnapshot{}, nil, fmt.Errorf("read pool: %w", err)
	}
	if current == nil {
		current, err = reader.MemberFlowRate(ctx, pool, grantee)
		if err != nil {
			return model.PoolSnapshot{}, nil, fmt.Errorf("read member flow rate: %w", err)
		}
	}
	return snapshot, current, nil
}

// poolMembers puts grantee first and drops duplicates.
func poolMembers(grantee common.Address, extra []common.Address) []common.Address {
	out := []common.Address{grantee}
	seen := map[common.Address]bool{grantee: true}
	for _, addr := range extra {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

func withMemberUnits(pool model.PoolSnapshot, member common.Address, units *big.Int) model.PoolSnapshot {
	members := make(map[common.Address]*big.Int, len(pool.MemberUnits)+1)
	for addr, value := range pool.MemberUnits {
		members[addr] = value
	}
	members[member] = units
	pool.MemberUnits = members
	return pool
}

type liquidationOutput struct {
	ProjectedDrain string `json:"projected_drain"`
	Draining       bool   `json:"draining"`
	LiquidationAt  *int64 `json:"liquidation_at"`
	LiquidationUTC string `json:"liquidation_utc,omitempty"`
}

func runEstimateLiquidation(cmd *cobra.Command, _ []string) error {
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

	snapshot, now, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return err
	}

	rates := liquidation.Rates{AccountNetFlowRate: snapshot.NetFlowRate}
	fields := []struct {
		name  string
		value string
		dst   **big.Int
	}{
		{"account net flow rate", cfg.AccountNetFlowRate, &rates.AccountNetFlowRate},
		{"old receiver flow rate", cfg.OldReceiverFlowRate, &rates.OldReceiverFlowRate},
		{"new receiver flow rate", cfg.NewReceiverFlowRate, &rates.NewReceiverFlowRate},
		{"old secondary flow rate", cfg.OldSecondaryFlowRate, &rates.OldSecondaryFlowRate},
		{"new secondary flow rate", cfg.NewSecondaryFlowRate, &rates.NewSecondaryFlowRate},
	}
	for _, field := range fields {
		parsed, err := rate.ParseFlowRate(field.value, cfg.Per)
		if err != nil {
			return fmt.Errorf("parse %s: %w", field.name, err)
		}
		if parsed != nil {
			*field.dst = parsed
		}
	}
	topUp, err := model.ParseInt(cfg.PendingTopUp)
	if err != nil {
		return fmt.Errorf("parse pending top up: %w", err)
	}

	out := previewLiquidation(rates, snapshot, topUp, now)
	logger.Debug("liquidation estimate",
		zap.String("drain", out.ProjectedDrain),
		zap.Bool("draining", out.Draining),
	)
	return printJSON(out)
}

func previewLiquidation(rates liquidation.Rates, snapshot model.FlowSnapshot, topUp *big.Int, now int64) liquidationOutput {
	out := liquidationOutput{ProjectedDrain: liquidation.ProjectedDrain(rates).String()}
	if ts, ok := liquidation.EstimateLiquidation(rates, snapshot, topUp, now); ok {
		out.Draining = true
		out.LiquidationAt = &ts
		out.LiquidationUTC = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return out
}
