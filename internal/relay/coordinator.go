package relay

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/humandebri/jpycpay/internal/admission"
	"github.com/humandebri/jpycpay/internal/codec"
	"github.com/humandebri/jpycpay/internal/feeplanner"
	"github.com/humandebri/jpycpay/internal/metrics"
	"github.com/humandebri/jpycpay/internal/rpcclient"
	"github.com/humandebri/jpycpay/internal/signer"
	"github.com/humandebri/jpycpay/internal/store"
)

// RPC is everything the coordinator needs from the JSON-RPC oracle: its own
// direct calls (nonce lookup, broadcast) plus the feeplanner.RPC view it
// passes to the fee planner. The admission chain holds its own admission.RPC.
// A single *rpcclient.Client satisfies all three.
type RPC interface {
	GetTransactionCount(ctx context.Context, addr common.Address) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error)
	feeplanner.RPC
}

// Coordinator orchestrates one submit_authorization call end to end:
// admission, fee planning, transaction building, signing, and broadcast.
// A single mutex spans fee planning through broadcast so concurrent
// submissions never race on the relayer account's nonce; the reservation
// made during admission is atomic within the store and runs before that
// mutex is taken.
type Coordinator struct {
	Store     *store.Store
	Admission *admission.Chain
	RPC       RPC
	Oracle    signer.Oracle
	Log       zerolog.Logger

	mu sync.Mutex
}

// New builds a Coordinator from its collaborators.
func New(s *store.Store, adm *admission.Chain, rpc RPC, oracle signer.Oracle, log zerolog.Logger) *Coordinator {
	return &Coordinator{Store: s, Admission: adm, RPC: rpc, Oracle: oracle, Log: log}
}

// Submit runs the full Validate -> Plan -> Build -> Sign -> Broadcast state
// machine for one authorization. It appends a Pending log entry as soon as
// Validate starts and updates it exactly once, on the terminal transition.
func (c *Coordinator) Submit(ctx context.Context, auth admission.Authorization) (txHash string, err error) {
	start := time.Now()
	defer func() {
		metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
			if relayErr, ok := err.(*Error); ok {
				metrics.SubmissionFailuresByCode.WithLabelValues(string(relayErr.Code)).Inc()
			}
			return
		}
		metrics.SubmissionsTotal.WithLabelValues("broadcasted").Inc()
	}()

	cfg := c.Store.ConfigSnapshot()
	relayerAddr := common.Address(cfg.RelayerAddress)
	now := time.Now()

	logID := c.Store.LogAppend(store.LogEntry{
		Timestamp:   now,
		ChainID:     cfg.ChainID,
		AssetID:     auth.AssetID,
		From:        auth.From,
		To:          auth.To,
		Value:       valueString(auth.Value),
		ValidBefore: auth.ValidBefore,
		Nonce:       auth.Nonce,
		Status:      store.LogPending,
	})

	plan, err := c.Admission.Validate(ctx, cfg, auth, relayerAddr, now)
	if err != nil {
		code, reason := translateAdmissionError(err)
		c.Store.LogUpdate(logID, store.LogFailed, "", reason)
		return "", &Error{Code: code, Reason: reason}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	feePlan, err := feeplanner.Compute(ctx, c.RPC, relayerAddr, common.Address(plan.Asset.EvmAddress), plan.Calldata, cfg.MaxFeeMultiplier, cfg.PriorityMultiplier)
	if err != nil {
		c.releaseOnPreBroadcastFailure(auth)
		code, reason := translatePlanError(err)
		c.Store.LogUpdate(logID, store.LogFailed, "", reason)
		return "", &Error{Code: code, Reason: reason}
	}
	metrics.FeeMaxFeePerGasWei.Set(weiToFloat(feePlan.MaxFeePerGas))
	metrics.FeePriorityFeePerGasWei.Set(weiToFloat(feePlan.MaxPriorityFeePerGas))

	nonce, err := c.RPC.GetTransactionCount(ctx, relayerAddr)
	if err != nil {
		c.releaseOnPreBroadcastFailure(auth)
		c.Store.LogUpdate(logID, store.LogFailed, "", err.Error())
		return "", &Error{Code: CodeEstimationFail, Reason: err.Error()}
	}

	unsignedTx := codec.BuildDynamicFeeTx(codec.UnsignedFeeTx{
		ChainID:              new(big.Int).SetUint64(cfg.ChainID),
		Nonce:                nonce,
		MaxPriorityFeePerGas: feePlan.MaxPriorityFeePerGas,
		MaxFeePerGas:         feePlan.MaxFeePerGas,
		GasLimit:             feePlan.GasLimit,
		To:                   common.Address(plan.Asset.EvmAddress),
		Data:                 plan.Calldata,
	})

	chainIDBig := new(big.Int).SetUint64(cfg.ChainID)
	digest := codec.SigningHash(unsignedTx, chainIDBig)

	r, s, v, err := signer.Sign(ctx, c.Oracle, pathJoin(cfg.EcdsaDerivationPath), digest, relayerAddr)
	if err != nil {
		// Signing never touches the broadcast boundary: releasing the
		// reservation here is safe even though we already hold the
		// account-nonce lock.
		c.releaseOnPreBroadcastFailure(auth)
		c.Store.LogUpdate(logID, store.LogFailed, "", err.Error())
		code := CodeEstimationFail
		if _, ok := err.(*signer.SignerMismatch); ok {
			// A genuine recovered-key mismatch needs operator intervention;
			// anything else (oracle transport failure) is transient and
			// worth a caller retry.
			code = CodeSignerMismatch
		}
		return "", &Error{Code: code, Reason: err.Error()}
	}

	// v here is the legacy 27/28 form; London signer expects y_parity (0/1).
	signedTx, err := codec.WithSignature(unsignedTx, chainIDBig, r, s, v-27)
	if err != nil {
		c.releaseOnPreBroadcastFailure(auth)
		c.Store.LogUpdate(logID, store.LogFailed, "", err.Error())
		return "", &Error{Code: CodeEstimationFail, Reason: err.Error()}
	}

	rawTx, localHash, err := codec.EncodeSignedTx(signedTx)
	if err != nil {
		c.releaseOnPreBroadcastFailure(auth)
		c.Store.LogUpdate(logID, store.LogFailed, "", err.Error())
		return "", &Error{Code: CodeEstimationFail, Reason: err.Error()}
	}

	sentHash, err := c.RPC.SendRawTransaction(ctx, rawTx)
	if err != nil {
		if rpcclient.IsSoftSuccess(err) {
			hashHex := localHash.Hex()
			c.Store.LogUpdate(logID, store.LogBroadcasted, hashHex, "")
			return hashHex, nil
		}
		// Broadcast transport failure: the reservation is kept, never
		// released, since a retried broadcast of the same signed
		// transaction could still land.
		c.Store.LogUpdate(logID, store.LogFailed, "", err.Error())
		return "", &Error{Code: CodeBroadcastFail, Reason: err.Error()}
	}

	hashHex := sentHash.Hex()
	if hashHex == (common.Hash{}).Hex() {
		hashHex = localHash.Hex()
	}
	c.Store.LogUpdate(logID, store.LogBroadcasted, hashHex, "")
	return hashHex, nil
}

func (c *Coordinator) releaseOnPreBroadcastFailure(auth admission.Authorization) {
	c.Store.ReleaseAuthorization(auth.From, auth.Nonce, auth.Value)
}

func weiToFloat(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(wei).Float64()
	return f
}

func valueString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func pathJoin(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
