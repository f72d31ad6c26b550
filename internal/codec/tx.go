package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// UnsignedFeeTx is the minimal set of fields the fee planner and coordinator
// need to build an EIP-1559 (type 0x02) transaction envelope.
type UnsignedFeeTx struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             uint64
	To                   common.Address
	Data                 []byte
}

// BuildDynamicFeeTx constructs the go-ethereum transaction value for an
// EIP-1559 envelope. Value is always zero: the relay only ever calls
// transferWithAuthorization, never sends ETH.
func BuildDynamicFeeTx(u UnsignedFeeTx) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:    u.ChainID,
		Nonce:      u.Nonce,
		GasTipCap:  u.MaxPriorityFeePerGas,
		GasFeeCap:  u.MaxFeePerGas,
		Gas:        u.GasLimit,
		To:         &u.To,
		Value:      big.NewInt(0),
		Data:       u.Data,
		AccessList: nil,
	})
}

// SigningHash returns the digest the signer oracle must sign for the given
// unsigned transaction, per EIP-155/EIP-1559 signing rules.
func SigningHash(tx *types.Transaction, chainID *big.Int) [32]byte {
	signer := types.NewLondonSigner(chainID)
	return signer.Hash(tx)
}

// WithSignature attaches an (r, s, v) signature to an unsigned transaction
// and returns the signed envelope ready for RLP marshaling.
func WithSignature(tx *types.Transaction, chainID *big.Int, r, s *big.Int, v uint8) (*types.Transaction, error) {
	signer := types.NewLondonSigner(chainID)
	sig := make([]byte, 65)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = v

	signedTx, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, fmt.Errorf("codec: attach signature: %w", err)
	}
	return signedTx, nil
}

// EncodeSignedTx returns the RLP-encoded signed transaction bytes suitable
// for eth_sendRawTransaction, and the transaction hash.
func EncodeSignedTx(tx *types.Transaction) ([]byte, common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("codec: marshal signed tx: %w", err)
	}
	return raw, tx.Hash(), nil
}

// RecoverSigner recovers the 20-byte address that produced (r, s) over
// digest for recovery id recoveryID (0 or 1), used by the signer package's
// recovery-id brute force. recoveryID is the raw y-parity bit, not the
// legacy 27/28 transaction v value: crypto.SigToPub adds the 27 offset
// itself.
func RecoverSigner(digest []byte, r, s *big.Int, recoveryID uint8) (common.Address, error) {
	sig := make([]byte, 65)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = recoveryID

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("codec: recover pubkey: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
