package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"flowScope/internal/model"
)

// Reader reads streaming-token state through the forwarder contracts.
type Reader struct {
	client       *Client
	cfaForwarder common.Address
	gdaForwarder common.Address
	tokens       *tokenCache
}

// NewReader builds a Reader. Zero forwarder addresses fall back to the canonical deployments.
func NewReader(client *Client, cfaForwarder, gdaForwarder common.Address) *Reader {
	if cfaForwarder == (common.Address{}) {
		cfaForwarder = DefaultCFAForwarder
	}
	if gdaForwarder == (common.Address{}) {
		gdaForwarder = DefaultGDAForwarder
	}
	return &Reader{
		client:       client,
		cfaForwarder: cfaForwarder,
		gdaForwarder: gdaForwarder,
		tokens:       newTokenCache(),
	}
}

// FlowSnapshot reads the account's realtime balance and net stream flow rate.
func (r *Reader) FlowSnapshot(ctx context.Context, token, account common.Address) (model.FlowSnapshot, error) {
	tokenABI, err := superTokenABI.get()
	if err != nil {
		return model.FlowSnapshot{}, fmt.Errorf("parse super token abi: %w", err)
	}
	resp, err := r.call(ctx, token, tokenABI, "realtimeBalanceOfNow", account)
	if err != nil {
		return model.FlowSnapshot{}, err
	}
	balance, timestamp, err := unpackRealtimeBalance(tokenABI, resp)
	if err != nil {
		return model.FlowSnapshot{}, err
	}

	netFlowRate, err := r.callInt(ctx, r.cfaForwarder, cfaForwarderABI, "getAccountFlowrate", token, account)
	if err != nil {
		return model.FlowSnapshot{}, err
	}

	return model.FlowSnapshot{Balance: balance, Timestamp: timestamp, NetFlowRate: netFlowRate}, nil
}

// StreamFlowRate reads the flow rate of the direct stream sender -> receiver.
func (r *Reader) StreamFlowRate(ctx context.Context, token, sender, receiver common.Address) (*big.Int, error) {
	return r.callInt(ctx, r.cfaForwarder, cfaForwarderABI, "getFlowrate", token, sender, receiver)
}

// DistributionFlowRate reads the flow rate from distributor into pool.
func (r *Reader) DistributionFlowRate(ctx context.Context, token, from, pool common.Address) (*big.Int, error) {
	return r.callInt(ctx, r.gdaForwarder, gdaForwarderABI, "getFlowDistributionFlowRate", token, from, pool)
}

// MemberFlowRate reads the flow rate a pool member currently receives.
func (r *Reader) MemberFlowRate(ctx context.Context, pool, member common.Address) (*big.Int, error) {
	return r.callInt(ctx, pool, poolABI, "getMemberFlowRate", member)
}

// IsMemberConnected reports whether member already receives distributions from pool.
func (r *Reader) IsMemberConnected(ctx context.Context, pool, member common.Address) (bool, error) {
	parsed, err := gdaForwarderABI.get()
	if err != nil {
		return false, fmt.Errorf("parse abi: %w", err)
	}
	resp, err := r.call(ctx, r.gdaForwarder, parsed, "isMemberConnected", pool, member)
	if err != nil {
		return false, err
	}
	values, err := parsed.Unpack("isMemberConnected", resp)
	if err != nil {
		return false, fmt.Errorf("unpack isMemberConnected: %w", err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("isMemberConnected return size %d", len(values))
	}
	connected, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected bool type %T", values[0])
	}
	return connected, nil
}

// PoolSnapshot reads pool totals and the units of each listed member.
func (r *Reader) PoolSnapshot(ctx context.Context, pool common.Address, members []common.Address) (model.PoolSnapshot, error) {
	totalFlowRate, err := r.callInt(ctx, pool, poolABI, "getTotalFlowRate")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	totalUnits, err := r.callInt(ctx, pool, poolABI, "getTotalUnits")
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	adjustment, err := r.callInt(ctx, r.gdaForwarder, gdaForwarderABI, "getPoolAdjustmentFlowRate", pool)
	if err != nil {
		return model.PoolSnapshot{}, err
	}

	memberUnits := make(map[common.Address]*big.Int, len(members))
	for _, member := range members {
		units, err := r.callInt(ctx, pool, poolABI, "getUnits", member)
		if err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("units of %s: %w", member.Hex(), err)
		}
		memberUnits[member] = units
	}

	return model.PoolSnapshot{
		TotalFlowRate:      totalFlowRate,
		TotalUnits:         totalUnits,
		AdjustmentFlowRate: adjustment,
		MemberUnits:        memberUnits,
	}, nil
}

// callInt calls a view method returning a single integer (int96, uint128, ...).
func (r *Reader) callInt(ctx context.Context, to common.Address, lazy *lazyABI, method string, args ...interface{}) (*big.Int, error) {
	parsed, err := lazy.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	resp, err := r.call(ctx, to, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	return unpackSingleInt(parsed, method, resp)
}

func (r *Reader) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return resp, nil
}

func unpackSingleInt(parsed abi.ABI, method string, resp []byte) (*big.Int, error) {
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return asBigInt(values[0])
}

func unpackRealtimeBalance(parsed abi.ABI, resp []byte) (*big.Int, int64, error) {
	values, err := parsed.Unpack("realtimeBalanceOfNow", resp)
	if err != nil {
		return nil, 0, fmt.Errorf("unpack realtimeBalanceOfNow: %w", err)
	}
	if len(values) != 4 {
		return nil, 0, fmt.Errorf("realtimeBalanceOfNow return size %d", len(values))
	}
	balance, err := asBigInt(values[0])
	if err != nil {
		return nil, 0, err
	}
	ts, err := asBigInt(values[3])
	if err != nil {
		return nil, 0, err
	}
	if !ts.IsInt64() {
		return nil, 0, fmt.Errorf("timestamp out of range: %s", ts)
	}
	return balance, ts.Int64(), nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unexpected integer type %T", value)
	}
}
