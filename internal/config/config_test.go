package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestParseTimestamp(t *testing.T) {
	ts, ok, err := ParseTimestamp("1700000000")
	if err != nil || !ok || ts != 1_700_000_000 {
		t.Fatalf("unix parse: %d %v %v", ts, ok, err)
	}
	ts, ok, err = ParseTimestamp("2024-01-01T00:00:00Z")
	if err != nil || !ok || ts != 1_704_067_200 {
		t.Fatalf("rfc3339 parse: %d %v %v", ts, ok, err)
	}
	if _, ok, err := ParseTimestamp("  "); ok || err != nil {
		t.Fatalf("empty input should be unset")
	}
	if _, _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadWatchPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "flowscope.yaml")
	content := "rpc: http://file:8545\npoll-interval: 30s\naccount: 0xfile\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FLOWSCOPE_TOKEN", "0xenv")

	flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	flags.String("account", "", "")
	flags.Duration("tick-interval", time.Second, "")
	if err := flags.Parse([]string{"--account", "0xflag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadWatch(cfgPath, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://file:8545" || cfg.PollInterval != 30*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Token != "0xenv" {
		t.Fatalf("env value not applied: %q", cfg.Token)
	}
	if cfg.Account != "0xflag" {
		t.Fatalf("flag should override file: %q", cfg.Account)
	}
	if cfg.TickInterval != time.Second || cfg.MaxRetries != 5 || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestGetStringSlice(t *testing.T) {
	if got := splitAndClean(" a, ,b ,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("split mismatch: %v", got)
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0xcfA132E353cB4E398080B9700609bb008eceB125 ", ""})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[0].Hex() != "0xcfA132E353cB4E398080B9700609bb008eceB125" {
		t.Fatalf("unexpected addresses: %v", got)
	}
	if _, err := ParseAddresses([]string{"0x1234"}); err == nil {
		t.Fatalf("expected error for short address")
	}
	if addr, err := ParseOptionalAddress("pool", ""); addr != nil || err != nil {
		t.Fatalf("empty optional address should be nil")
	}
	if _, err := ParseAddress("token", ""); err == nil {
		t.Fatalf("expected error for missing address")
	}
}

func TestLoadEstimateMembers(t *testing.T) {
	flags := pflag.NewFlagSet("matching", pflag.ContinueOnError)
	flags.StringSlice("members", nil, "")
	if err := flags.Parse([]string{"--members", "0xaaa, 0xbbb"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := LoadEstimate("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Members, []string{"0xaaa", "0xbbb"}) {
		t.Fatalf("members from flag: %v", cfg.Members)
	}

	t.Setenv("FLOWSCOPE_MEMBERS", "0xccc,,0xddd")
	cfg, err = LoadEstimate("", pflag.NewFlagSet("empty", pflag.ContinueOnError))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Members, []string{"0xccc", "0xddd"}) {
		t.Fatalf("members from env: %v", cfg.Members)
	}
}
