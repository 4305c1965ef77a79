package chain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Forwarder contracts are deployed at the same address on every supported network.
var (
	DefaultCFAForwarder = common.HexToAddress("0xcfA132E353cB4E398080B9700609bb008eceB125")
	DefaultGDAForwarder = common.HexToAddress("0x6DA13Bde224A05a288748d857b9e7DDEffd1dE08")
)

const superTokenABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "realtimeBalanceOfNow", "outputs": [{"internalType": "int256", "name": "availableBalance", "type": "int256"}, {"internalType": "uint256", "name": "deposit", "type": "uint256"}, {"internalType": "uint256", "name": "owedDeposit", "type": "uint256"}, {"internalType": "uint256", "name": "timestamp", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "upgrade", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [], "name": "upgradeByETH", "outputs": [], "stateMutability": "payable", "type": "function"},
  {"inputs": [], "name": "getUnderlyingToken", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const erc20ApproveABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "spender", "type": "address"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "approve", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const cfaForwarderABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "token", "type": "address"}, {"internalType": "address", "name": "account", "type": "address"}], "name": "getAccountFlowrate", "outputs": [{"internalType": "int96", "name": "flowrate", "type": "int96"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "token", "type": "address"}, {"internalType": "address", "name": "sender", "type": "address"}, {"internalType": "address", "name": "receiver", "type": "address"}], "name": "getFlowrate", "outputs": [{"internalType": "int96", "name": "flowrate", "type": "int96"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "token", "type": "address"}, {"internalType": "address", "name": "receiver", "type": "address"}, {"internalType": "int96", "name": "flowrate", "type": "int96"}], "name": "setFlowrate", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const gdaForwarderABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "pool", "type": "address"}], "name": "getPoolAdjustmentFlowRate", "outputs": [{"internalType": "int96", "name": "", "type": "int96"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "token", "type": "address"}, {"internalType": "address", "name": "from", "type": "address"}, {"internalType": "address", "name": "to", "type": "address"}], "name": "getFlowDistributionFlowRate", "outputs": [{"internalType": "int96", "name": "", "type": "int96"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "pool", "type": "address"}, {"internalType": "address", "name": "member", "type": "address"}], "name": "isMemberConnected", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "pool", "type": "address"}, {"internalType": "bytes", "name": "userData", "type": "bytes"}], "name": "connectPool", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "token", "type": "address"}, {"internalType": "address", "name": "from", "type": "address"}, {"internalType": "address", "name": "pool", "type": "address"}, {"internalType": "int96", "name": "requestedFlowRate", "type": "int96"}, {"internalType": "bytes", "name": "userData", "type": "bytes"}], "name": "distributeFlow", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "getTotalFlowRate", "outputs": [{"internalType": "int96", "name": "", "type": "int96"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTotalUnits", "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "memberAddr", "type": "address"}], "name": "getUnits", "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "memberAddr", "type": "address"}], "name": "getMemberFlowRate", "outputs": [{"internalType": "int96", "name": "", "type": "int96"}], "stateMutability": "view", "type": "function"}
]`

const erc20MetaStringABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens return symbol as bytes32.
const erc20MetaBytes32ABIJSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	json   string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.parsed, l.err
}

var (
	superTokenABI   = &lazyABI{json: superTokenABIJSON}
	erc20ApproveABI = &lazyABI{json: erc20ApproveABIJSON}
	cfaForwarderABI = &lazyABI{json: cfaForwarderABIJSON}
	gdaForwarderABI = &lazyABI{json: gdaForwarderABIJSON}
	poolABI         = &lazyABI{json: poolABIJSON}

	erc20MetaStringABI  = &lazyABI{json: erc20MetaStringABIJSON}
	erc20MetaBytes32ABI = &lazyABI{json: erc20MetaBytes32ABIJSON}
)
