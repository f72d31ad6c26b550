// Package codec implements the Ethereum wire encodings the relay needs:
// EIP-712 typed-data digesting, ABI selector packing for the two EIP-3009
// functions the relay calls, and EIP-1559 transaction envelopes.
package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain mirrors an EIP-712 domain separator for a TransferWithAuthorization
// verifying contract.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract string
}

var transferWithAuthorizationTypes = map[string][]apitypes.Type{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// HashTransferAuthorization computes the EIP-712 digest
// keccak256("\x19\x01" || domainSeparator || structHash) for a
// TransferWithAuthorization message. This is the digest the authorizing user
// signs and the digest the on-chain token recovers the signer from; the
// relay's signer oracle signs the transaction hash from SigningHash instead.
func HashTransferAuthorization(domain Domain, from, to string, value, validAfter, validBefore *big.Int, nonce [32]byte) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types:       apitypes.Types(transferWithAuthorizationTypes),
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(domain.ChainID),
			VerifyingContract: domain.VerifyingContract,
		},
		Message: map[string]interface{}{
			"from":        from,
			"to":          to,
			"value":       value,
			"validAfter":  validAfter,
			"validBefore": validBefore,
			"nonce":       nonce[:],
		},
	}

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("codec: hash struct: %w", err)
	}
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("codec: hash domain: %w", err)
	}

	raw := make([]byte, 0, 2+len(domainSeparator)+len(dataHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, dataHash...)
	return crypto.Keccak256(raw), nil
}
