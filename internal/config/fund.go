package config

import (
	"github.com/spf13/pflag"
)

// FundConfig holds configuration for the fund command.
type FundConfig struct {
	Chain
	PrivateKey           string
	Token                string
	Asset                string
	Underlying           string
	WrapAmount           string
	Receiver             string
	FlowRate             string
	Pool                 string
	DistributionFlowRate string
	MatchingPool         string
	Per                  string
	DryRun               bool
	Out                  string
	PGDSN                string
	MetricsAddr          string
	LogLevel             string
}

// LoadFund merges config file, environment variables, and flags into FundConfig.
// The private key is best supplied through FLOWSCOPE_PRIVATE_KEY.
func LoadFund(cfgFile string, flags *pflag.FlagSet) (FundConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out": "./data/queue_runs.jsonl",
	})
	if err != nil {
		return FundConfig{}, err
	}

	return FundConfig{
		Chain:                loadChain(v),
		PrivateKey:           v.GetString("private-key"),
		Token:                v.GetString("token"),
		Asset:                v.GetString("asset"),
		Underlying:           v.GetString("underlying"),
		WrapAmount:           v.GetString("wrap-amount"),
		Receiver:             v.GetString("receiver"),
		FlowRate:             v.GetString("flow-rate"),
		Pool:                 v.GetString("pool"),
		DistributionFlowRate: v.GetString("distribution-flow-rate"),
		MatchingPool:         v.GetString("matching-pool"),
		Per:                  v.GetString("per"),
		DryRun:               v.GetBool("dry-run"),
		Out:                  v.GetString("out"),
		PGDSN:                v.GetString("pg-dsn"),
		MetricsAddr:          v.GetString("metrics-addr"),
		LogLevel:             v.GetString("log-level"),
	}, nil
}
