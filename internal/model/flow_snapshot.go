package model

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// FlowSnapshot is a point-in-time balance of a streaming account.
// NetFlowRate is in smallest units per second; negative means draining.
type FlowSnapshot struct {
	Balance     *big.Int
	Timestamp   int64
	NetFlowRate *big.Int
}

type flowSnapshotJSON struct {
	Balance     string `json:"balance"`
	Timestamp   int64  `json:"timestamp"`
	NetFlowRate string `json:"net_flow_rate"`
}

// MarshalJSON encodes integer fields as base-10 strings.
func (s FlowSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(flowSnapshotJSON{
		Balance:     bigString(s.Balance),
		Timestamp:   s.Timestamp,
		NetFlowRate: bigString(s.NetFlowRate),
	})
}

// UnmarshalJSON decodes a FlowSnapshot, rejecting non-integer amounts.
func (s *FlowSnapshot) UnmarshalJSON(data []byte) error {
	var raw flowSnapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	balance, err := ParseInt(raw.Balance)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	rate, err := ParseInt(raw.NetFlowRate)
	if err != nil {
		return fmt.Errorf("net_flow_rate: %w", err)
	}
	*s = FlowSnapshot{Balance: balance, Timestamp: raw.Timestamp, NetFlowRate: rate}
	return nil
}
