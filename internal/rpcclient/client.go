// Package rpcclient is a typed wrapper around the JSON-RPC oracle the relay
// submits transactions through. It is modeled on the teacher codebase's
// HTTP facilitator client (context-aware calls, typed error mapping) but
// speaks Ethereum JSON-RPC via go-ethereum's rpc.Client rather than a REST
// facilitator API.
package rpcclient

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/humandebri/jpycpay/internal/metrics"
)

// Client wraps a go-ethereum JSON-RPC client against a Polygon-compatible
// node, with a per-call deadline and typed transport/application error
// mapping.
type Client struct {
	rpc        *gethrpc.Client
	callDeadline func(ctx context.Context) (context.Context, context.CancelFunc)
}

// New dials the given endpoint and returns a Client. callTimeout, if
// non-nil, derives each individual RPC call's context from the caller's ctx
// (typically adding a per-call deadline); if nil, each call uses ctx as is.
func New(ctx context.Context, endpoint string, callTimeout func(ctx context.Context) (context.Context, context.CancelFunc)) (*Client, error) {
	rpc, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, &RpcTransport{Method: "dial", Err: err}
	}
	if callTimeout == nil {
		callTimeout = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		}
	}
	return &Client{rpc: rpc, callDeadline: callTimeout}, nil
}

func (c *Client) call(ctx context.Context, method string, result interface{}, args ...interface{}) error {
	callCtx, cancel := c.callDeadline(ctx)
	defer cancel()

	start := time.Now()
	err := c.rpc.CallContext(callCtx, result, method, args...)
	metrics.RPCCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if rpcErr, ok := err.(gethrpc.Error); ok {
		metrics.RPCCallErrors.WithLabelValues(method, "application").Inc()
		appErr := &RpcApplication{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		if dataErr, ok := err.(gethrpc.DataError); ok {
			if raw, ok := dataErr.ErrorData().(string); ok {
				appErr.Data, _ = hexutil.Decode(raw)
			}
		}
		return appErr
	}
	metrics.RPCCallErrors.WithLabelValues(method, "transport").Inc()
	return &RpcTransport{Method: method, Err: err}
}

// EthCall performs a static, non-state-changing contract call
// (eth_call at the latest block). A zero from is omitted from the call
// object rather than sent as the zero address, since callers that don't
// care who msg.sender is (e.g. the authorizationState replay check)
// should get the node's default sender, not an explicit zero override.
func (c *Client) EthCall(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	arg := map[string]interface{}{
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	if from != (common.Address{}) {
		arg["from"] = from
	}
	var result hexutil.Bytes
	if err := c.call(ctx, "eth_call", &result, arg, "latest"); err != nil {
		return nil, err
	}
	return result, nil
}

// EstimateGas performs eth_estimateGas for the given call.
func (c *Client) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	arg := map[string]interface{}{
		"from": from,
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	var result hexutil.Uint64
	if err := c.call(ctx, "eth_estimateGas", &result, arg); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// GetBalance returns the native-coin balance of addr at the latest block.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, "eth_getBalance", &result, addr, "latest"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// GetTransactionCount returns the pending-nonce of addr, used as the next
// transaction nonce.
func (c *Client) GetTransactionCount(ctx context.Context, addr common.Address) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, "eth_getTransactionCount", &result, addr, "pending"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// BlockHeader is the minimal subset of eth_getBlockByNumber's result the fee
// planner needs.
type BlockHeader struct {
	BaseFeePerGas *hexutil.Big `json:"baseFeePerGas"`
}

// GetLatestBlockHeader fetches the latest block header (without full
// transaction bodies).
func (c *Client) GetLatestBlockHeader(ctx context.Context) (*BlockHeader, error) {
	var result BlockHeader
	if err := c.call(ctx, "eth_getBlockByNumber", &result, "latest", false); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetLatestBlockHeaderBaseFee fetches the latest block's baseFeePerGas, and
// reports false if the field was absent (a pre-London node response).
func (c *Client) GetLatestBlockHeaderBaseFee(ctx context.Context) (*big.Int, bool, error) {
	header, err := c.GetLatestBlockHeader(ctx)
	if err != nil {
		return nil, false, err
	}
	if header.BaseFeePerGas == nil {
		return nil, false, nil
	}
	return (*big.Int)(header.BaseFeePerGas), true, nil
}

// MaxPriorityFeePerGas calls the non-standard eth_maxPriorityFeePerGas
// method some Polygon-compatible nodes expose as a tip suggestion.
func (c *Client) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, "eth_maxPriorityFeePerGas", &result); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// SendRawTransaction broadcasts a signed, RLP-encoded transaction. A
// response that represents a benign resubmission is reported through
// IsSoftSuccess rather than forcing callers to special-case it here.
func (c *Client) SendRawTransaction(ctx context.Context, rawTx []byte) (common.Hash, error) {
	var result common.Hash
	if err := c.call(ctx, "eth_sendRawTransaction", &result, hexutil.Bytes(rawTx)); err != nil {
		return common.Hash{}, err
	}
	return result, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}
