package chain

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"flowScope/internal/model"
)

// tokenCache caches token metadata by address.
type tokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenInfo
}

func newTokenCache() *tokenCache {
	return &tokenCache{data: make(map[common.Address]model.TokenInfo)}
}

func (c *tokenCache) get(address common.Address) (model.TokenInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

func (c *tokenCache) set(address common.Address, info model.TokenInfo) {
	c.mu.Lock()
	c.data[address] = info
	c.mu.Unlock()
}

// Token loads decimals and symbol of an ERC20 token. Results are cached per Reader.
// A missing symbol is not an error.
func (r *Reader) Token(ctx context.Context, token common.Address) (model.TokenInfo, error) {
	if info, ok := r.tokens.get(token); ok {
		return info, nil
	}

	info := model.TokenInfo{Address: token.Hex()}
	stringABI, err := erc20MetaStringABI.get()
	if err != nil {
		return info, fmt.Errorf("parse erc20 abi: %w", err)
	}

	resp, err := r.call(ctx, token, stringABI, "decimals")
	if err != nil {
		return info, err
	}
	values, err := stringABI.Unpack("decimals", resp)
	if err != nil {
		return info, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return info, fmt.Errorf("decimals return size %d", len(values))
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return info, fmt.Errorf("unexpected decimals type %T", values[0])
	}
	info.Decimals = decimals
	info.Symbol = r.symbol(ctx, token)

	r.tokens.set(token, info)
	return info, nil
}

// UnderlyingToken returns the ERC20 a super token wraps. ok is false for
// native-coin super tokens.
func (r *Reader) UnderlyingToken(ctx context.Context, superToken common.Address) (common.Address, bool, error) {
	parsed, err := superTokenABI.get()
	if err != nil {
		return common.Address{}, false, fmt.Errorf("parse abi: %w", err)
	}
	resp, err := r.call(ctx, superToken, parsed, "getUnderlyingToken")
	if err != nil {
		return common.Address{}, false, err
	}
	values, err := parsed.Unpack("getUnderlyingToken", resp)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("unpack getUnderlyingToken: %w", err)
	}
	if len(values) != 1 {
		return common.Address{}, false, fmt.Errorf("getUnderlyingToken return size %d", len(values))
	}
	underlying, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, false, fmt.Errorf("unexpected address type %T", values[0])
	}
	return underlying, underlying != (common.Address{}), nil
}

func (r *Reader) symbol(ctx context.Context, token common.Address) string {
	if parsed, err := erc20MetaStringABI.get(); err == nil {
		if resp, err := r.call(ctx, token, parsed, "symbol"); err == nil {
			if values, err := parsed.Unpack("symbol", resp); err == nil && len(values) == 1 {
				if symbol, ok := values[0].(string); ok {
					return symbol
				}
			}
		}
	}
	if parsed, err := erc20MetaBytes32ABI.get(); err == nil {
		if resp, err := r.call(ctx, token, parsed, "symbol"); err == nil {
			if values, err := parsed.Unpack("symbol", resp); err == nil && len(values) == 1 {
				if symbol, ok := bytes32ToString(values[0]); ok {
					return symbol
				}
			}
		}
	}
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
