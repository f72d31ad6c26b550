package relay

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/humandebri/jpycpay/internal/admission"
	"github.com/humandebri/jpycpay/internal/codec"
	"github.com/humandebri/jpycpay/internal/rpcclient"
	"github.com/humandebri/jpycpay/internal/store"
)

type fakeFullRPC struct {
	baseFee       *big.Int
	tip           *big.Int
	gasEstimate   uint64
	nonce         uint64
	authUsed      bool
	simulateErr   error
	balance       *big.Int
	sendErr       error
	sentRaw       []byte
}

func (f *fakeFullRPC) EthCall(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	probe, _ := codec.PackAuthorizationState(common.Address{}, [32]byte{})
	if len(data) >= 4 && string(data[:4]) == string(probe[:4]) {
		out := make([]byte, 32)
		if f.authUsed {
			out[31] = 1
		}
		return out, nil
	}
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}
	return []byte{}, nil
}

func (f *fakeFullRPC) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeFullRPC) GetLatestBlockHeaderBaseFee(ctx context.Context) (*big.Int, bool, error) {
	return f.baseFee, f.baseFee != nil, nil
}

func (f *fakeFullRPC) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeFullRPC) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return f.gasEstimate, nil
}

func (f *fakeFullRPC) GetTransactionCount(ctx context.Context, addr common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeFullRPC) SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error) {
	f.sentRaw = rawTx
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	return common.Hash{0x01}, nil
}

type directOracle struct {
	priv *ecdsa.PrivateKey
}

func (o *directOracle) PublicKey(ctx context.Context, derivationPath string) ([]byte, error) {
	return crypto.FromECDSAPub(&o.priv.PublicKey), nil
}

func (o *directOracle) SignDigest(ctx context.Context, derivationPath string, digest [32]byte) (r, s [32]byte, err error) {
	sig, err := crypto.Sign(digest[:], o.priv)
	if err != nil {
		return r, s, err
	}
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	return r, s, nil
}

func setup(t *testing.T, rpc *fakeFullRPC) (*Coordinator, *store.Store, common.Address, admission.Authorization) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	relayerAddr := crypto.PubkeyToAddress(priv.PublicKey)

	var assetAddr [20]byte
	assetAddr[0] = 0xAA

	var relayerBytes [20]byte
	copy(relayerBytes[:], relayerAddr.Bytes())

	cfg := store.Config{
		ChainID:            137,
		ThresholdWei:       big.NewInt(1e16),
		MaxFeeMultiplier:   2.0,
		PriorityMultiplier: 1.2,
		RateLimitPerMinute: 10,
		DailyCapToken:      big.NewInt(1_000_000_000),
		RelayerAddress:     relayerBytes,
		RelayerAddressSet:  true,
	}
	s := store.New(cfg)
	_, err = s.AddAsset("jpyc", assetAddr, 0)
	require.NoError(t, err)

	adm := admission.New(s, rpc)
	oracle := &directOracle{priv: priv}
	coord := New(s, adm, rpc, oracle, zerolog.Nop())

	var from, to [20]byte
	from[0] = 1
	to[0] = 2
	var nonce [32]byte
	nonce[0] = 7

	auth := admission.Authorization{
		AssetID:     "jpyc",
		From:        from,
		To:          to,
		Value:       big.NewInt(1000),
		ValidAfter:  0,
		ValidBefore: uint64(time.Now().Add(time.Hour).Unix()),
		Nonce:       nonce,
	}
	return coord, s, relayerAddr, auth
}

func TestSubmit_HappyPath(t *testing.T) {
	rpc := &fakeFullRPC{
		baseFee:     big.NewInt(100_000_000_000),
		tip:         big.NewInt(2_000_000_000),
		gasEstimate: 60_000,
		nonce:       5,
		balance:     big.NewInt(5e16),
	}
	coord, s, _, auth := setup(t, rpc)

	txHash, err := coord.Submit(context.Background(), auth)
	require.NoError(t, err)
	require.NotEmpty(t, txHash)

	entries := s.LogRead(0, 10)
	require.Len(t, entries, 1)
	require.Equal(t, store.LogBroadcasted, entries[0].Status)
}

func TestSubmit_DoubleSpendNoBroadcast(t *testing.T) {
	rpc := &fakeFullRPC{
		baseFee:     big.NewInt(100_000_000_000),
		tip:         big.NewInt(2_000_000_000),
		gasEstimate: 60_000,
		nonce:       5,
		balance:     big.NewInt(5e16),
		authUsed:    true,
	}
	coord, s, _, auth := setup(t, rpc)

	_, err := coord.Submit(context.Background(), auth)
	require.Error(t, err)
	relayErr := err.(*Error)
	require.Equal(t, CodeDoubleSpend, relayErr.Code)
	require.Nil(t, rpc.sentRaw)

	entries := s.LogRead(0, 10)
	require.Equal(t, store.LogFailed, entries[0].Status)
}

func TestSubmit_GasEmptyNoEstimateNoBroadcast(t *testing.T) {
	rpc := &fakeFullRPC{
		balance: big.NewInt(1e15),
	}
	coord, _, _, auth := setup(t, rpc)

	_, err := coord.Submit(context.Background(), auth)
	require.Error(t, err)
	relayErr := err.(*Error)
	require.Equal(t, CodeGasEmpty, relayErr.Code)
	require.Nil(t, rpc.sentRaw)
}

func TestSubmit_SoftSuccessBroadcast(t *testing.T) {
	rpc := &fakeFullRPC{
		baseFee:     big.NewInt(100_000_000_000),
		tip:         big.NewInt(2_000_000_000),
		gasEstimate: 60_000,
		nonce:       5,
		balance:     big.NewInt(5e16),
		sendErr:     &rpcclient.RpcApplication{Method: "eth_sendRawTransaction", Code: -32000, Message: "already known"},
	}
	coord, s, _, auth := setup(t, rpc)

	txHash, err := coord.Submit(context.Background(), auth)
	require.NoError(t, err)
	require.NotEmpty(t, txHash)

	entries := s.LogRead(0, 10)
	require.Equal(t, store.LogBroadcasted, entries[0].Status)
}

func TestSubmit_BroadcastFailKeepsReservation(t *testing.T) {
	rpc := &fakeFullRPC{
		baseFee:     big.NewInt(100_000_000_000),
		tip:         big.NewInt(2_000_000_000),
		gasEstimate: 60_000,
		nonce:       5,
		balance:     big.NewInt(5e16),
		sendErr:     &rpcclient.RpcTransport{Method: "eth_sendRawTransaction"},
	}
	coord, s, _, auth := setup(t, rpc)

	_, err := coord.Submit(context.Background(), auth)
	require.Error(t, err)
	relayErr := err.(*Error)
	require.Equal(t, CodeBroadcastFail, relayErr.Code)

	// Reservation stays: resubmitting the same (from, nonce) is rejected
	// as double-spend, not retried as a fresh admission.
	_, err = coord.Submit(context.Background(), auth)
	require.Error(t, err)
	admErr := err.(*Error)
	require.Equal(t, CodeDoubleSpend, admErr.Code)

	entries := s.LogRead(0, 10)
	require.Len(t, entries, 2)
}
