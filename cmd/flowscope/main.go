package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flowScope/internal/chain"
	"flowScope/internal/config"
	"flowScope/internal/storage"
	"flowScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "flowscope",
		Short:        "Streaming funding projections and transaction queues",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newProjectCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newEstimateCmd())
	root.AddCommand(newFundCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("cfa-forwarder", chain.DefaultCFAForwarder.Hex(), "CFA forwarder address")
	cmd.Flags().String("gda-forwarder", chain.DefaultGDAForwarder.Hex(), "GDA forwarder address")
}

func addLogFlag(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// chainConn is an open RPC connection with the forwarders it was configured with.
type chainConn struct {
	Client *chain.Client
	Reader *chain.Reader
	CFA    common.Address
	GDA    common.Address
}

func connectChain(ctx context.Context, cfg config.Chain) (*chainConn, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	cfa, err := config.ForwarderOrDefault(cfg.CFAForwarder, chain.DefaultCFAForwarder)
	if err != nil {
		return nil, err
	}
	gda, err := config.ForwarderOrDefault(cfg.GDAForwarder, chain.DefaultGDAForwarder)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	return &chainConn{
		Client: client,
		Reader: chain.NewReader(client, cfa, gda),
		CFA:    cfa,
		GDA:    gda,
	}, nil
}

// Close releases the RPC connection.
func (c *chainConn) Close() {
	c.Client.Close()
}

// chainTime returns the latest block timestamp, the clock snapshots are taken against.
func (c *chainConn) chainTime(ctx context.Context) (int64, error) {
	ts, err := c.Client.LatestBlockTime(ctx)
	if err != nil {
		return 0, fmt.Errorf("read block time: %w", err)
	}
	return int64(ts), nil
}

// openStorage prefers Postgres when a DSN is set and falls back to JSONL files.
// The returned close func is never nil.
func openStorage(ctx context.Context, pgDSN, runsPath, snapshotsPath string) (storage.Storage, func(), error) {
	if pgDSN == "" {
		if runsPath == "" && snapshotsPath == "" {
			return nil, func() {}, nil
		}
		return storage.NewJsonlStorage(runsPath, snapshotsPath), func() {}, nil
	}

	store, err := postgres.NewStore(ctx, pgDSN)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, func() {}, fmt.Errorf("ensure schema: %w", err)
	}
	return store, store.Close, nil
}

// evaluationTime resolves an optional --at value. Without one it uses the
// chain's latest block time when conn is set, and the wall clock otherwise.
func evaluationTime(ctx context.Context, at string, conn *chainConn) (int64, error) {
	ts, ok, err := config.ParseTimestamp(at)
	if err != nil {
		return 0, fmt.Errorf("parse at: %w", err)
	}
	if ok {
		return ts, nil
	}
	if conn != nil {
		return conn.chainTime(ctx)
	}
	return time.Now().Unix(), nil
}

func addressField(key string, addr *common.Address) zap.Field {
	if addr == nil {
		return zap.Skip()
	}
	return zap.String(key, addr.Hex())
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
