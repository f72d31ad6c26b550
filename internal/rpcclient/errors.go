package rpcclient

import "fmt"

// RpcTransport indicates the RPC oracle could not be reached at all: dial
// failure, timeout, or context cancellation before a response arrived.
type RpcTransport struct {
	Method string
	Err    error
}

func (e *RpcTransport) Error() string {
	return fmt.Sprintf("rpcclient: transport error calling %s: %v", e.Method, e.Err)
}

func (e *RpcTransport) Unwrap() error { return e.Err }

// RpcApplication indicates the RPC endpoint answered with a JSON-RPC error
// object: the node accepted the request but rejected it.
type RpcApplication struct {
	Method  string
	Code    int
	Message string
	// Data carries the raw revert payload when the node's error object
	// includes one (the "data" member of a JSON-RPC error), so callers can
	// decode a Solidity Error(string) revert reason instead of parsing the
	// node's free-text message.
	Data []byte
}

func (e *RpcApplication) Error() string {
	return fmt.Sprintf("rpcclient: %s returned error %d: %s", e.Method, e.Code, e.Message)
}

// IsSoftSuccess reports whether an application error from
// eth_sendRawTransaction actually indicates the transaction is already known
// to the network (a benign race with a prior broadcast attempt or mempool
// propagation), per the relay's broadcast idempotence rule.
func IsSoftSuccess(err error) bool {
	appErr, ok := err.(*RpcApplication)
	if !ok {
		return false
	}
	if appErr.Code == -32000 && containsFold(appErr.Message, "nonce too low") {
		return true
	}
	return containsFold(appErr.Message, "already known")
}

func containsFold(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	n, m := len(s), len(substr)
	for i := 0; i+m <= n; i++ {
		if foldEqual(s[i:i+m], substr) {
			return true
		}
	}
	return false
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
