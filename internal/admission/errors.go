// Package admission runs the fixed-order, short-circuiting pre-broadcast
// validation chain: pause check, asset status, input shape, time window,
// chain-id configuration, rate/replay reservation, on-chain replay check,
// static simulation, and gas sufficiency.
package admission

import "fmt"

// Code is one of the stable, externally visible admission failure codes.
type Code string

const (
	CodePaused            Code = "paused"
	CodeAssetDisabled     Code = "asset_disabled"
	CodeBadInput          Code = "bad_input"
	CodeExpired           Code = "expired"
	CodeNotYetValid       Code = "not_yet_valid"
	CodeUnconfigured      Code = "unconfigured"
	CodeRateLimited       Code = "rate_limited"
	CodeDailyCapExceeded  Code = "daily_cap_exceeded"
	CodeDoubleSpend       Code = "double_spend"
	CodeEstimationFail    Code = "estimation_fail"
	CodeGasEmpty          Code = "gas_empty"
	CodeRpcTransport      Code = "rpc_transport"
	CodeRpcApplication    Code = "rpc_application"
)

// Error is a failed admission check: a stable code for the caller plus an
// internal reason string that only ever reaches the log, never the API
// response.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func newError(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}
