// Package funding turns a confirmed funding edit into an ordered transaction queue.
package funding

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"flowScope/internal/model"
	"flowScope/internal/queue"
)

// Executor commits individual funding actions. Implementations return only
// after the action is durably committed.
type Executor interface {
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) error
	Wrap(ctx context.Context, superToken common.Address, amount *big.Int, native bool) error
	ConnectPool(ctx context.Context, pool common.Address) error
	SetFlowRate(ctx context.Context, token, receiver common.Address, flowRate *big.Int) error
	DistributeFlow(ctx context.Context, token, pool common.Address, flowRate *big.Int) error
}

// Edit is a user-confirmed change to one account's funding.
type Edit struct {
	SuperToken common.Address

	// Wrapping. Underlying is nil for the native coin. WrapAmount is in super
	// token units; ApproveAmount is the same value in the underlying's units
	// and defaults to WrapAmount.
	Underlying    *common.Address
	WrapAmount    *big.Int
	ApproveAmount *big.Int

	// Direct stream to Receiver.
	Receiver    *common.Address
	OldFlowRate *big.Int
	NewFlowRate *big.Int

	// Distribution into a matching pool.
	Pool                    *common.Address
	PoolConnected           bool
	OldDistributionFlowRate *big.Int
	NewDistributionFlowRate *big.Int
}

// Validate rejects edits that cannot be expressed as transactions.
func (e Edit) Validate() error {
	if e.SuperToken == (common.Address{}) {
		return fmt.Errorf("super token is required")
	}
	if e.WrapAmount != nil && e.WrapAmount.Sign() < 0 {
		return fmt.Errorf("wrap amount must not be negative")
	}
	if e.NewFlowRate != nil && e.NewFlowRate.Sign() < 0 {
		return fmt.Errorf("flow rate must not be negative")
	}
	if e.NewDistributionFlowRate != nil && e.NewDistributionFlowRate.Sign() < 0 {
		return fmt.Errorf("distribution flow rate must not be negative")
	}
	if e.Receiver == nil && e.NewFlowRate != nil && e.NewFlowRate.Sign() != 0 {
		return fmt.Errorf("receiver is required for a stream")
	}
	if e.Pool == nil && e.NewDistributionFlowRate != nil && e.NewDistributionFlowRate.Sign() != 0 {
		return fmt.Errorf("pool is required for a distribution")
	}
	return nil
}

// BuildQueue returns the ordered steps needed to apply edit. It has no side
// effects; callers build a fresh queue for every confirmed action.
//
// Order: approve underlying, wrap, connect pool, update stream, update distribution.
// Steps whose effect is already in place are omitted.
func BuildQueue(edit Edit, exec Executor) []queue.Step {
	steps := make([]queue.Step, 0, 5)
	token := edit.SuperToken

	if amount := edit.WrapAmount; amount != nil && amount.Sign() > 0 {
		amount = new(big.Int).Set(amount)
		if edit.Underlying != nil {
			underlying := *edit.Underlying
			allowance := amount
			if edit.ApproveAmount != nil {
				allowance = new(big.Int).Set(edit.ApproveAmount)
			}
			steps = append(steps, queue.Step{
				Name: "approve",
				Do: func(ctx context.Context) error {
					return exec.Approve(ctx, underlying, token, allowance)
				},
			})
		}
		native := edit.Underlying == nil
		steps = append(steps, queue.Step{
			Name: "wrap",
			Do: func(ctx context.Context) error {
				return exec.Wrap(ctx, token, amount, native)
			},
		})
	}

	if edit.Pool != nil && !edit.PoolConnected {
		pool := *edit.Pool
		steps = append(steps, queue.Step{
			Name: "connect-pool",
			Do: func(ctx context.Context) error {
				return exec.ConnectPool(ctx, pool)
			},
		})
	}

	if edit.Receiver != nil && changed(edit.OldFlowRate, edit.NewFlowRate) {
		receiver := *edit.Receiver
		flowRate := new(big.Int).Set(model.OrZero(edit.NewFlowRate))
		steps = append(steps, queue.Step{
			Name: "set-flow-rate",
			Do: func(ctx context.Context) error {
				return exec.SetFlowRate(ctx, token, receiver, flowRate)
			},
		})
	}

	if edit.Pool != nil && changed(edit.OldDistributionFlowRate, edit.NewDistributionFlowRate) {
		pool := *edit.Pool
		flowRate := new(big.Int).Set(model.OrZero(edit.NewDistributionFlowRate))
		steps = append(steps, queue.Step{
			Name: "distribute-flow",
			Do: func(ctx context.Context) error {
				return exec.DistributeFlow(ctx, token, pool, flowRate)
			},
		})
	}

	return steps
}

func changed(old, next *big.Int) bool {
	return model.OrZero(old).Cmp(model.OrZero(next)) != 0
}
