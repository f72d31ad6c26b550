// Package feeplanner turns a base fee, a priority fee suggestion, and a gas
// estimate into the maxFeePerGas/maxPriorityFeePerGas/gasLimit triple an
// EIP-1559 transaction needs.
package feeplanner

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// oneGwei is the fallback priority fee when the oracle has no tip
// suggestion to offer.
var oneGwei = big.NewInt(1_000_000_000)

// gasLimitFloor is the minimum gasLimit the planner will ever return,
// regardless of what eth_estimateGas reports.
const gasLimitFloor = 80_000

// EstimationFail is returned when fee planning cannot proceed, e.g. a
// pre-London node with no baseFeePerGas.
type EstimationFail struct {
	Reason string
}

func (e *EstimationFail) Error() string {
	return fmt.Sprintf("feeplanner: %s", e.Reason)
}

// RPC is the subset of rpcclient.Client the fee planner needs.
type RPC interface {
	GetLatestBlockHeaderBaseFee(ctx context.Context) (*big.Int, bool, error)
	MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
}

// Plan is the fee/gas triple a transaction is built with.
type Plan struct {
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
}

// Compute derives a Plan for a call from `from` to `to` with `data`, using
// maxFeeMultiplier and priorityMultiplier from the current config snapshot.
func Compute(ctx context.Context, rpc RPC, from, to common.Address, data []byte, maxFeeMultiplier, priorityMultiplier float64) (*Plan, error) {
	baseFee, hasBaseFee, err := rpc.GetLatestBlockHeaderBaseFee(ctx)
	if err != nil {
		return nil, err
	}
	if !hasBaseFee {
		return nil, &EstimationFail{Reason: "no baseFee"}
	}

	tip, err := rpc.MaxPriorityFeePerGas(ctx)
	var priorityFee *big.Int
	if err != nil || tip == nil || tip.Sign() <= 0 {
		// The 1 gwei floor applies to the effective fee itself, not to the
		// tip before it's scaled by priorityMultiplier.
		priorityFee = oneGwei
	} else {
		priorityFee = mulCeilFloat(tip, priorityMultiplier)
	}

	maxFee := new(big.Int).Add(mulCeilFloat(baseFee, maxFeeMultiplier), priorityFee)

	gasEstimate, err := rpc.EstimateGas(ctx, from, to, data)
	if err != nil {
		return nil, err
	}
	gasLimit := (gasEstimate*6 + 4) / 5 // ceil(gasEstimate * 1.2)
	if gasLimit < gasLimitFloor {
		gasLimit = gasLimitFloor
	}

	return &Plan{
		MaxPriorityFeePerGas: priorityFee,
		MaxFeePerGas:         maxFee,
		GasLimit:             gasLimit,
	}, nil
}

// mulCeilFloat multiplies n by a float multiplier and rounds up, since fee
// arithmetic must never under-quote what the chain will actually charge.
func mulCeilFloat(n *big.Int, multiplier float64) *big.Int {
	// Scale the multiplier to an integer numerator/denominator pair to avoid
	// float64 precision loss on large wei values.
	const scale = 1_000_000
	numerator := new(big.Int).Mul(n, big.NewInt(int64(math.Round(multiplier*scale))))
	denominator := big.NewInt(scale)
	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if remainder.Sign() != 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return quotient
}
