package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseAddress converts a required address.
func ParseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s: %s", name, input)
	}
	return common.HexToAddress(input), nil
}

// ParseOptionalAddress returns nil for empty input.
func ParseOptionalAddress(name, input string) (*common.Address, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	addr, err := ParseAddress(name, input)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ForwarderOrDefault parses an optional forwarder override.
func ForwarderOrDefault(input string, fallback common.Address) (common.Address, error) {
	addr, err := ParseOptionalAddress("forwarder", input)
	if err != nil || addr == nil {
		return fallback, err
	}
	return *addr, nil
}
