package codec

import "github.com/ethereum/go-ethereum/crypto"

// Keccak256 is the Ethereum-variant Keccak-256 hash used throughout the
// relay: function selectors, EIP-712 digests, and transaction hashes.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// AddressFromUncompressedPubkey recovers the 20-byte Ethereum address from a
// 64-byte uncompressed secp256k1 public key (X||Y), the shape the signer
// oracle returns. The 0x04 prefix, if present, is stripped first.
func AddressFromUncompressedPubkey(pubkey []byte) ([20]byte, error) {
	p := pubkey
	if len(p) == 65 && p[0] == 0x04 {
		p = p[1:]
	}
	if len(p) != 64 {
		return [20]byte{}, errInvalidPubkeyLen(len(pubkey))
	}
	hash := crypto.Keccak256(p)
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr, nil
}

type errInvalidPubkeyLen int

func (e errInvalidPubkeyLen) Error() string {
	return "codec: invalid public key length"
}
