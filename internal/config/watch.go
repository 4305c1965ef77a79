package config

import (
	"time"

	"github.com/spf13/pflag"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Chain
	Token        string
	Account      string
	PollInterval time.Duration
	TickInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Out          string
	PGDSN        string
	MetricsAddr  string
	LogLevel     string
}

// LoadWatch merges config file, environment variables, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"poll-interval": 10 * time.Second,
		"tick-interval": time.Second,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return WatchConfig{}, err
	}

	return WatchConfig{
		Chain:        loadChain(v),
		Token:        v.GetString("token"),
		Account:      v.GetString("account"),
		PollInterval: v.GetDuration("poll-interval"),
		TickInterval: v.GetDuration("tick-interval"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		MetricsAddr:  v.GetString("metrics-addr"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
