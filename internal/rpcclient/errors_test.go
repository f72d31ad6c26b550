package rpcclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSoftSuccess(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"already known", &RpcApplication{Method: "eth_sendRawTransaction", Code: -32000, Message: "already known"}, true},
		{"nonce too low", &RpcApplication{Method: "eth_sendRawTransaction", Code: -32000, Message: "nonce too low"}, true},
		{"mixed case nonce too low", &RpcApplication{Method: "eth_sendRawTransaction", Code: -32000, Message: "Nonce Too Low"}, true},
		{"wrong code", &RpcApplication{Method: "eth_sendRawTransaction", Code: -32003, Message: "nonce too low"}, false},
		{"unrelated application error", &RpcApplication{Method: "eth_sendRawTransaction", Code: -32000, Message: "insufficient funds"}, false},
		{"transport error", &RpcTransport{Method: "eth_sendRawTransaction", Err: nil}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsSoftSuccess(tc.err))
		})
	}
}

func TestRpcApplicationError(t *testing.T) {
	err := &RpcApplication{Method: "eth_call", Code: 3, Message: "execution reverted"}
	require.Contains(t, err.Error(), "eth_call")
	require.Contains(t, err.Error(), "execution reverted")
}
