package feeplanner

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	baseFee     *big.Int
	hasBaseFee  bool
	tip         *big.Int
	tipErr      error
	gasEstimate uint64
}

func (f *fakeRPC) GetLatestBlockHeaderBaseFee(ctx context.Context) (*big.Int, bool, error) {
	return f.baseFee, f.hasBaseFee, nil
}

func (f *fakeRPC) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	return f.tip, f.tipErr
}

func (f *fakeRPC) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return f.gasEstimate, nil
}

func TestCompute_AppliesMultipliers(t *testing.T) {
	rpc := &fakeRPC{
		baseFee:     big.NewInt(100_000_000_000), // 100 gwei
		hasBaseFee:  true,
		tip:         big.NewInt(2_000_000_000), // 2 gwei
		gasEstimate: 60_000,
	}
	plan, err := Compute(context.Background(), rpc, common.Address{}, common.Address{}, nil, 2.0, 1.2)
	require.NoError(t, err)

	require.Equal(t, big.NewInt(2_400_000_000), plan.MaxPriorityFeePerGas) // ceil(2e9 * 1.2)
	require.Equal(t, new(big.Int).Add(big.NewInt(200_000_000_000), big.NewInt(2_400_000_000)), plan.MaxFeePerGas)
	require.Equal(t, uint64(80_000), plan.GasLimit) // ceil(60000 * 1.2) = 72000, raised to the 80000 floor
}

func TestCompute_GasLimitFloor(t *testing.T) {
	rpc := &fakeRPC{
		baseFee:     big.NewInt(1),
		hasBaseFee:  true,
		tip:         big.NewInt(1),
		gasEstimate: 1_000,
	}
	plan, err := Compute(context.Background(), rpc, common.Address{}, common.Address{}, nil, 2.0, 1.2)
	require.NoError(t, err)
	require.Equal(t, uint64(gasLimitFloor), plan.GasLimit)
}

func TestCompute_MissingBaseFeeFails(t *testing.T) {
	rpc := &fakeRPC{hasBaseFee: false}
	_, err := Compute(context.Background(), rpc, common.Address{}, common.Address{}, nil, 2.0, 1.2)
	require.Error(t, err)
	var estErr *EstimationFail
	require.ErrorAs(t, err, &estErr)
	require.Equal(t, "no baseFee", estErr.Reason)
}

func TestCompute_FallsBackToOneGweiTipWhenOracleOmitsIt(t *testing.T) {
	rpc := &fakeRPC{
		baseFee:     big.NewInt(100),
		hasBaseFee:  true,
		tip:         big.NewInt(0),
		gasEstimate: 50_000,
	}
	plan, err := Compute(context.Background(), rpc, common.Address{}, common.Address{}, nil, 1.0, 1.0)
	require.NoError(t, err)
	require.Equal(t, oneGwei, plan.MaxPriorityFeePerGas)
}

func TestCompute_OmittedTipFloorIsExactRegardlessOfMultiplier(t *testing.T) {
	rpc := &fakeRPC{
		baseFee:     big.NewInt(100),
		hasBaseFee:  true,
		tip:         big.NewInt(0),
		gasEstimate: 50_000,
	}
	plan, err := Compute(context.Background(), rpc, common.Address{}, common.Address{}, nil, 1.0, 1.2)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000_000), plan.MaxPriorityFeePerGas)
}
