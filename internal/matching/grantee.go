package matching

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Grantee identifies a pool member and the matching flow rate it currently receives.
type Grantee struct {
	Address                 common.Address
	CurrentMatchingFlowRate *big.Int
}
