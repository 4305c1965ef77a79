package config

import (
	"github.com/spf13/pflag"
)

// EstimateConfig holds configuration for the project and estimate commands.
// Rate values are integers in smallest units per second, or token amounts
// per Per interval when Per is set.
type EstimateConfig struct {
	Chain
	Token   string
	Account string
	Asset   string
	Per     string
	At      string

	// Snapshot given directly instead of read from chain.
	Balance     string
	Timestamp   string
	NetFlowRate string

	// Matching pool
	Pool                    string
	PoolFile                string
	Grantee                 string
	Members                 []string
	GranteeUnits            string
	CurrentMatchingFlowRate string
	PreviousFlowRate        string
	NewFlowRate             string

	// Liquidation
	AccountNetFlowRate   string
	OldReceiverFlowRate  string
	NewReceiverFlowRate  string
	OldSecondaryFlowRate string
	NewSecondaryFlowRate string
	PendingTopUp         string

	LogLevel string
}

// LoadEstimate merges config file, environment variables, and flags into EstimateConfig.
func LoadEstimate(cfgFile string, flags *pflag.FlagSet) (EstimateConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return EstimateConfig{}, err
	}

	return EstimateConfig{
		Chain:                   loadChain(v),
		Token:                   v.GetString("token"),
		Account:                 v.GetString("account"),
		Asset:                   v.GetString("asset"),
		Per:                     v.GetString("per"),
		At:                      v.GetString("at"),
		Balance:                 v.GetString("balance"),
		Timestamp:               v.GetString("timestamp"),
		NetFlowRate:             v.GetString("net-flow-rate"),
		Pool:                    v.GetString("pool"),
		PoolFile:                v.GetString("pool-file"),
		Grantee:                 v.GetString("grantee"),
		Members:                 getStringSlice(v, "members"),
		GranteeUnits:            v.GetString("grantee-units"),
		CurrentMatchingFlowRate: v.GetString("current-matching-flow-rate"),
		PreviousFlowRate:        v.GetString("previous-flow-rate"),
		NewFlowRate:             v.GetString("new-flow-rate"),
		AccountNetFlowRate:      v.GetString("account-net-flow-rate"),
		OldReceiverFlowRate:     v.GetString("old-receiver-flow-rate"),
		NewReceiverFlowRate:     v.GetString("new-receiver-flow-rate"),
		OldSecondaryFlowRate:    v.GetString("old-secondary-flow-rate"),
		NewSecondaryFlowRate:    v.GetString("new-secondary-flow-rate"),
		PendingTopUp:            v.GetString("pending-top-up"),
		LogLevel:                v.GetString("log-level"),
	}, nil
}
