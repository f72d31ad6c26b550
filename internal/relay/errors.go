// Package relay implements the submission coordinator: the
// Validate -> Plan -> Build -> Sign -> Broadcast state machine that turns
// one caller-supplied Authorization into a broadcast transaction or a
// stable failure code, and the single mutex that serializes the relayer
// account's nonce usage across concurrent submissions.
package relay

import "fmt"

// Code is a stable, externally visible submission failure code. It is the
// union of every admission.Code plus the codes specific to planning,
// signing, and broadcasting.
type Code string

const (
	CodePaused           Code = "paused"
	CodeAssetDisabled    Code = "asset_disabled"
	CodeBadInput         Code = "bad_input"
	CodeExpired          Code = "expired"
	CodeNotYetValid      Code = "not_yet_valid"
	CodeUnconfigured     Code = "unconfigured"
	CodeRateLimited      Code = "rate_limited"
	CodeDailyCapExceeded Code = "daily_cap_exceeded"
	CodeDoubleSpend      Code = "double_spend"
	CodeEstimationFail   Code = "estimation_fail"
	CodeGasEmpty         Code = "gas_empty"
	CodeSignerMismatch   Code = "signer_mismatch"
	CodeBroadcastFail    Code = "broadcast_fail"
	CodeRpcTransport     Code = "rpc_transport"
	CodeRpcApplication   Code = "rpc_application"
)

// Error is a failed submission: a stable code for the API response plus an
// internal reason that is logged but never returned to the caller.
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
