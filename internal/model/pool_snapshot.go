package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PoolSnapshot captures the state of a proportional distribution pool.
type PoolSnapshot struct {
	TotalFlowRate      *big.Int
	TotalUnits         *big.Int
	AdjustmentFlowRate *big.Int
	MemberUnits        map[common.Address]*big.Int
}

// UnitsOf returns the units held by member, zero for non-members.
func (p PoolSnapshot) UnitsOf(member common.Address) *big.Int {
	if units, ok := p.MemberUnits[member]; ok && units != nil {
		return new(big.Int).Set(units)
	}
	return new(big.Int)
}

// PoolSnapshotJSON is the wire form of a pool snapshot: integers as decimal strings.
type PoolSnapshotJSON struct {
	TotalFlowRate      string            `json:"total_flow_rate"`
	TotalUnits         string            `json:"total_units"`
	AdjustmentFlowRate string            `json:"adjustment_flow_rate"`
	MemberUnits        map[string]string `json:"member_units,omitempty"`
}

// ParsePoolSnapshot validates raw pool data. Non-integer values and
// negative units are rejected so estimators only ever see integers.
func ParsePoolSnapshot(raw PoolSnapshotJSON) (PoolSnapshot, error) {
	totalFlowRate, err := ParseInt(raw.TotalFlowRate)
	if err != nil {
		return PoolSnapshot{}, fmt.Errorf("total_flow_rate: %w", err)
	}
	totalUnits, err := ParseUnits(raw.TotalUnits)
	if err != nil {
		return PoolSnapshot{}, fmt.Errorf("total_units: %w", err)
	}
	adjustment, err := ParseInt(raw.AdjustmentFlowRate)
	if err != nil {
		return PoolSnapshot{}, fmt.Errorf("adjustment_flow_rate: %w", err)
	}

	members := make(map[common.Address]*big.Int, len(raw.MemberUnits))
	for addr, value := range raw.MemberUnits {
		addr = strings.TrimSpace(addr)
		if !common.IsHexAddress(addr) {
			return PoolSnapshot{}, fmt.Errorf("invalid member address: %s", addr)
		}
		units, err := ParseUnits(value)
		if err != nil {
			return PoolSnapshot{}, fmt.Errorf("member %s: %w", addr, err)
		}
		members[common.HexToAddress(addr)] = units
	}

	return PoolSnapshot{
		TotalFlowRate:      totalFlowRate,
		TotalUnits:         totalUnits,
		AdjustmentFlowRate: adjustment,
		MemberUnits:        members,
	}, nil
}

// MarshalJSON encodes the snapshot in its wire form.
func (p PoolSnapshot) MarshalJSON() ([]byte, error) {
	raw := PoolSnapshotJSON{
		TotalFlowRate:      bigString(p.TotalFlowRate),
		TotalUnits:         bigString(p.TotalUnits),
		AdjustmentFlowRate: bigString(p.AdjustmentFlowRate),
	}
	if len(p.MemberUnits) > 0 {
		raw.MemberUnits = make(map[string]string, len(p.MemberUnits))
		for addr, units := range p.MemberUnits {
			raw.MemberUnits[addr.Hex()] = bigString(units)
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes and validates the wire form.
func (p *PoolSnapshot) UnmarshalJSON(data []byte) error {
	var raw PoolSnapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePoolSnapshot(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
