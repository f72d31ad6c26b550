package admission

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/humandebri/jpycpay/internal/codec"
	"github.com/humandebri/jpycpay/internal/rpcclient"
	"github.com/humandebri/jpycpay/internal/store"
)

// Authorization is the caller-supplied input to submit_authorization.
type Authorization struct {
	AssetID     string
	From        [20]byte
	To          [20]byte
	Value       *big.Int
	ValidAfter  uint64
	ValidBefore uint64
	Nonce       [32]byte
	SigV        uint8
	SigR        [32]byte
	SigS        [32]byte
}

// Plan is what a successful Validate call hands to the fee planner: the
// resolved asset and a ready-to-pack calldata blob for
// transferWithAuthorization.
type Plan struct {
	Asset   store.Asset
	Calldata []byte
}

// RPC is the subset of rpcclient.Client the admission chain calls, kept as
// an interface so tests can substitute a fake oracle.
type RPC interface {
	EthCall(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Chain runs the admission pipeline against one store and RPC client.
type Chain struct {
	Store *store.Store
	RPC   RPC
}

// New returns an admission Chain over the given store and RPC client.
func New(s *store.Store, rpc RPC) *Chain {
	return &Chain{Store: s, RPC: rpc}
}

// Validate runs all nine checks of the admission pipeline in fixed order,
// short-circuiting on the first failure. On success it returns a Plan the
// fee planner and coordinator can build a transaction from; the reservation
// made in step 6 is NOT released by Validate itself — callers that fail
// later must call ReleaseAuthorization explicitly, except after step 7's
// on-chain double-spend finding, which is permanent.
func (c *Chain) Validate(ctx context.Context, cfg store.Config, auth Authorization, relayerAddress common.Address, now time.Time) (*Plan, error) {
	if cfg.Paused {
		return nil, newError(CodePaused, "")
	}

	asset, ok := c.Store.Asset(auth.AssetID)
	if !ok || asset.Status != store.AssetActive {
		return nil, newError(CodeAssetDisabled, fmt.Sprintf("asset %q is not active", auth.AssetID))
	}

	if auth.Value == nil || auth.Value.Sign() <= 0 || auth.From == auth.To || auth.From == ([20]byte{}) {
		return nil, newError(CodeBadInput, "")
	}

	nowUnix := uint64(now.Unix())
	if nowUnix >= auth.ValidBefore {
		return nil, newError(CodeExpired, "")
	}
	if nowUnix < auth.ValidAfter {
		return nil, newError(CodeNotYetValid, "")
	}

	if cfg.ChainID == 0 {
		return nil, newError(CodeUnconfigured, "chain_id is not set")
	}

	switch c.Store.ReserveAuthorization(auth.From, auth.Nonce, auth.Value, time.Unix(int64(auth.ValidBefore), 0), now, cfg.RateLimitPerMinute, cfg.DailyCapToken) {
	case store.ReserveRateExceeded:
		return nil, newError(CodeRateLimited, "")
	case store.ReserveDailyCapExceeded:
		return nil, newError(CodeDailyCapExceeded, "")
	case store.ReserveAlreadySeen:
		return nil, newError(CodeDoubleSpend, "nonce already seen by this process")
	}

	fromAddr := common.Address(auth.From)
	usedData, err := codec.PackAuthorizationState(fromAddr, auth.Nonce)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, newError(CodeEstimationFail, err.Error())
	}
	usedResult, err := c.RPC.EthCall(ctx, common.Address{}, common.Address(asset.EvmAddress), usedData)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, asRpcAdmissionError(err)
	}
	used, err := codec.UnpackAuthorizationState(usedResult)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, newError(CodeEstimationFail, err.Error())
	}
	if used {
		// On-chain double-spend is a permanent finding: the reservation
		// stays, since the (from, nonce) pair can never legitimately be
		// retried.
		return nil, newError(CodeDoubleSpend, "authorizationState reports nonce already used")
	}

	toAddr := common.Address(auth.To)
	calldata, err := codec.PackTransferWithAuthorization(fromAddr, toAddr, auth.Value, big.NewInt(int64(auth.ValidAfter)), big.NewInt(int64(auth.ValidBefore)), auth.Nonce, auth.SigV, auth.SigR, auth.SigS)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, newError(CodeEstimationFail, err.Error())
	}

	simResult, err := c.simulateFrom(ctx, relayerAddress, common.Address(asset.EvmAddress), calldata)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, err
	}
	_ = simResult

	balance, err := c.RPC.GetBalance(ctx, relayerAddress)
	if err != nil {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, asRpcAdmissionError(err)
	}
	c.Store.SetLastKnownGasWei(balance)
	if cfg.ThresholdWei != nil && balance.Cmp(cfg.ThresholdWei) < 0 {
		c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
		return nil, newError(CodeGasEmpty, "")
	}

	return &Plan{Asset: asset, Calldata: calldata}, nil
}

// simulateFrom performs the static eth_call simulation of
// transferWithAuthorization from the relayer address, decoding a revert
// reason if one is present.
func (c *Chain) simulateFrom(ctx context.Context, relayer, to common.Address, calldata []byte) ([]byte, error) {
	result, err := c.RPC.EthCall(ctx, relayer, to, calldata)
	if err != nil {
		if reason, ok := decodeRevertFromErr(err); ok {
			return nil, newError(CodeEstimationFail, reason)
		}
		return nil, asRpcAdmissionError(err)
	}
	return result, nil
}

func decodeRevertFromErr(err error) (string, bool) {
	appErr, ok := err.(*rpcclient.RpcApplication)
	if !ok {
		return "", false
	}
	if len(appErr.Data) > 0 {
		if reason, ok := codec.DecodeRevertReason(appErr.Data); ok {
			return reason, true
		}
	}
	return appErr.Message, true
}

func asRpcAdmissionError(err error) error {
	if rpcclient.IsSoftSuccess(err) {
		return nil
	}
	switch err.(type) {
	case *rpcclient.RpcTransport:
		return newError(CodeRpcTransport, err.Error())
	case *rpcclient.RpcApplication:
		return newError(CodeRpcApplication, err.Error())
	default:
		return newError(CodeEstimationFail, err.Error())
	}
}
