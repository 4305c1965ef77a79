package chain

import (
	"math/big"
	"testing"

	"flowScope/internal/model"
)

func TestUnpackRealtimeBalance(t *testing.T) {
	parsed, err := superTokenABI.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	balance, _ := new(big.Int).SetString("-1500000000000000000", 10)
	resp, err := parsed.Methods["realtimeBalanceOfNow"].Outputs.Pack(
		balance,
		big.NewInt(4_000),
		big.NewInt(0),
		big.NewInt(1_700_000_000),
	)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	gotBalance, gotTS, err := unpackRealtimeBalance(parsed, resp)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if gotBalance.Cmp(balance) != 0 {
		t.Fatalf("balance mismatch: %s", gotBalance)
	}
	if gotTS != 1_700_000_000 {
		t.Fatalf("timestamp mismatch: %d", gotTS)
	}
}

func TestUnpackSingleInt(t *testing.T) {
	parsed, err := cfaForwarderABI.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	resp, err := parsed.Methods["getAccountFlowrate"].Outputs.Pack(big.NewInt(-385802469135802))
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}
	got, err := unpackSingleInt(parsed, "getAccountFlowrate", resp)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got.Int64() != -385802469135802 {
		t.Fatalf("flow rate mismatch: %s", got)
	}

	if _, err := unpackSingleInt(parsed, "getAccountFlowrate", []byte{0x01}); err == nil {
		t.Fatalf("expected error for truncated response")
	}
}

func TestPoolABIUnitsAreIntegers(t *testing.T) {
	parsed, err := poolABI.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	units := new(big.Int).Lsh(big.NewInt(1), 100)
	resp, err := parsed.Methods["getTotalUnits"].Outputs.Pack(units)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}
	got, err := unpackSingleInt(parsed, "getTotalUnits", resp)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if got.Cmp(units) != 0 {
		t.Fatalf("units mismatch: %s", got)
	}
}

func TestAsBigInt(t *testing.T) {
	if v, err := asBigInt(uint64(7)); err != nil || v.Int64() != 7 {
		t.Fatalf("uint64 conversion failed: %v %v", v, err)
	}
	if _, err := asBigInt("7"); err == nil {
		t.Fatalf("expected error for string")
	}
}

func TestBytes32ToString(t *testing.T) {
	var raw [32]byte
	copy(raw[:], "MKR")
	got, ok := bytes32ToString(raw)
	if !ok || got != "MKR" {
		t.Fatalf("unexpected symbol: %q %v", got, ok)
	}
	if _, ok := bytes32ToString(42); ok {
		t.Fatalf("expected failure for non-bytes value")
	}
}

func TestTokenCache(t *testing.T) {
	cache := newTokenCache()
	addr := DefaultCFAForwarder
	if _, ok := cache.get(addr); ok {
		t.Fatalf("expected empty cache")
	}
	cache.set(addr, model.TokenInfo{Address: addr.Hex(), Decimals: 6, Symbol: "USDC"})
	info, ok := cache.get(addr)
	if !ok || info.Decimals != 6 || info.Symbol != "USDC" {
		t.Fatalf("unexpected cached info: %+v", info)
	}
}
