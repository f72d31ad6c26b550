package codec

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// transferWithAuthorizationABI and authorizationStateABI are minimal ABI
// fragments for the two EIP-3009 entry points the relay calls: the mutating
// transfer and the replay-check view function. Packing through
// accounts/abi.ABI guarantees selector and argument encoding match the
// contract bit-for-bit.
const transferWithAuthorizationABI = `[{
	"name": "transferWithAuthorization",
	"type": "function",
	"inputs": [
		{"name": "from", "type": "address"},
		{"name": "to", "type": "address"},
		{"name": "value", "type": "uint256"},
		{"name": "validAfter", "type": "uint256"},
		{"name": "validBefore", "type": "uint256"},
		{"name": "nonce", "type": "bytes32"},
		{"name": "v", "type": "uint8"},
		{"name": "r", "type": "bytes32"},
		{"name": "s", "type": "bytes32"}
	],
	"outputs": []
}]`

const authorizationStateABI = `[{
	"name": "authorizationState",
	"type": "function",
	"stateMutability": "view",
	"inputs": [
		{"name": "authorizer", "type": "address"},
		{"name": "nonce", "type": "bytes32"}
	],
	"outputs": [{"name": "", "type": "bool"}]
}]`

var (
	transferWithAuthorizationParsed abi.ABI
	authorizationStateParsed        abi.ABI
)

func init() {
	var err error
	transferWithAuthorizationParsed, err = abi.JSON(strings.NewReader(transferWithAuthorizationABI))
	if err != nil {
		panic(fmt.Sprintf("codec: parse transferWithAuthorization ABI: %v", err))
	}
	authorizationStateParsed, err = abi.JSON(strings.NewReader(authorizationStateABI))
	if err != nil {
		panic(fmt.Sprintf("codec: parse authorizationState ABI: %v", err))
	}
}

// PackTransferWithAuthorization encodes a call to
// transferWithAuthorization(address,address,uint256,uint256,uint256,bytes32,uint8,bytes32,bytes32).
func PackTransferWithAuthorization(from, to common.Address, value, validAfter, validBefore *big.Int, nonce [32]byte, v uint8, r, s [32]byte) ([]byte, error) {
	data, err := transferWithAuthorizationParsed.Pack("transferWithAuthorization", from, to, value, validAfter, validBefore, nonce, v, r, s)
	if err != nil {
		return nil, fmt.Errorf("codec: pack transferWithAuthorization: %w", err)
	}
	return data, nil
}

// PackAuthorizationState encodes a call to authorizationState(address,bytes32),
// used by the admission pipeline's replay check.
func PackAuthorizationState(authorizer common.Address, nonce [32]byte) ([]byte, error) {
	data, err := authorizationStateParsed.Pack("authorizationState", authorizer, nonce)
	if err != nil {
		return nil, fmt.Errorf("codec: pack authorizationState: %w", err)
	}
	return data, nil
}

// UnpackAuthorizationState decodes the boolean result of an
// authorizationState eth_call.
func UnpackAuthorizationState(result []byte) (bool, error) {
	out, err := authorizationStateParsed.Unpack("authorizationState", result)
	if err != nil {
		return false, fmt.Errorf("codec: unpack authorizationState: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("codec: unexpected authorizationState output arity %d", len(out))
	}
	used, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("codec: authorizationState output is not bool")
	}
	return used, nil
}

// DecodeRevertReason extracts the message argument of a Solidity
// Error(string) revert payload, if the bytes match that selector.
func DecodeRevertReason(data []byte) (string, bool) {
	const errorSelector = "0x08c379a0"
	if len(data) < 4 || fmt.Sprintf("0x%x", data[:4]) != errorSelector {
		return "", false
	}
	strABI, _ := abi.JSON(strings.NewReader(`[{"name":"Error","type":"function","outputs":[{"name":"message","type":"string"}]}]`))
	out, err := strABI.Unpack("Error", data[4:])
	if err != nil || len(out) != 1 {
		return "", false
	}
	msg, ok := out[0].(string)
	return msg, ok
}
