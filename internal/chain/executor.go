package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Executor signs and sends funding transactions. Every method returns only
// once the transaction is mined with a successful receipt.
type Executor struct {
	client       *Client
	opts         *bind.TransactOpts
	cfaForwarder common.Address
	gdaForwarder common.Address
	logger       *zap.Logger
}

// NewExecutor loads the signing key and binds it to the connected chain.
func NewExecutor(ctx context.Context, client *Client, privateKeyHex string, cfaForwarder, gdaForwarder common.Address, logger *zap.Logger) (*Executor, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	if cfaForwarder == (common.Address{}) {
		cfaForwarder = DefaultCFAForwarder
	}
	if gdaForwarder == (common.Address{}) {
		gdaForwarder = DefaultGDAForwarder
	}
	return &Executor{
		client:       client,
		opts:         opts,
		cfaForwarder: cfaForwarder,
		gdaForwarder: gdaForwarder,
		logger:       logger,
	}, nil
}

// Sender returns the address transactions are sent from.
func (e *Executor) Sender() common.Address {
	return e.opts.From
}

// Approve lets spender pull amount of an ERC20 token.
func (e *Executor) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	return e.transact(ctx, token, erc20ApproveABI, nil, "approve", spender, amount)
}

// Wrap upgrades underlying tokens (or the native coin) into the super token.
func (e *Executor) Wrap(ctx context.Context, superToken common.Address, amount *big.Int, native bool) error {
	if native {
		return e.transact(ctx, superToken, superTokenABI, amount, "upgradeByETH")
	}
	return e.transact(ctx, superToken, superTokenABI, nil, "upgrade", amount)
}

// ConnectPool connects the sender to a distribution pool.
func (e *Executor) ConnectPool(ctx context.Context, pool common.Address) error {
	return e.transact(ctx, e.gdaForwarder, gdaForwarderABI, nil, "connectPool", pool, []byte{})
}

// SetFlowRate creates, updates or (with zero) deletes a direct stream.
func (e *Executor) SetFlowRate(ctx context.Context, token, receiver common.Address, flowRate *big.Int) error {
	return e.transact(ctx, e.cfaForwarder, cfaForwarderABI, nil, "setFlowrate", token, receiver, flowRate)
}

// DistributeFlow sets the sender's flow rate into a distribution pool.
func (e *Executor) DistributeFlow(ctx context.Context, token, pool common.Address, flowRate *big.Int) error {
	return e.transact(ctx, e.gdaForwarder, gdaForwarderABI, nil, "distributeFlow", token, e.opts.From, pool, flowRate, []byte{})
}

func (e *Executor) transact(ctx context.Context, to common.Address, lazy *lazyABI, value *big.Int, method string, args ...interface{}) error {
	parsed, err := lazy.get()
	if err != nil {
		return fmt.Errorf("parse abi: %w", err)
	}

	backend := e.client.Backend()
	contract := bind.NewBoundContract(to, parsed, backend, backend, backend)

	opts := *e.opts
	opts.Context = ctx
	opts.Value = value

	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}
	e.logger.Info("transaction sent", zap.String("method", method), zap.String("tx", tx.Hash().Hex()))

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return fmt.Errorf("wait %s: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s reverted in tx %s", method, tx.Hash().Hex())
	}

	e.logger.Info("transaction confirmed",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}
