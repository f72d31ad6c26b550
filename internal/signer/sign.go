package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/humandebri/jpycpay/internal/codec"
)

// secp256k1Halfn is half the curve order; an s-value above it is
// canonicalized to secp256k1N - s so that every relay-produced signature is
// low-s, matching what every production Ethereum signer emits.
var (
	secp256k1N     = mustBigHex("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	secp256k1Halfn = new(big.Int).Rsh(secp256k1N, 1)
)

func mustBigHex(hex string) *big.Int {
	n, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		panic("signer: invalid constant")
	}
	return n
}

// SignerMismatch is returned when neither recovery candidate for a produced
// signature recovers to the relay's configured address — the oracle
// produced a signature over a different key than the one the relay
// believes it controls.
type SignerMismatch struct {
	Expected common.Address
	Got      [2]common.Address
}

func (e *SignerMismatch) Error() string {
	return fmt.Sprintf("signer: recovered address %s/%s does not match expected relayer address %s", e.Got[0], e.Got[1], e.Expected)
}

// Sign requests a signature over digest from the oracle, canonicalizes it
// to low-s form, and brute-forces the recovery id (0 or 1) by recovering
// the public key and matching it against expectedAddress — the oracle
// returns a bare (r, s) pair with no v, since the threshold protocol has no
// notion of which of the two candidate public keys was used.
func Sign(ctx context.Context, oracle Oracle, derivationPath string, digest [32]byte, expectedAddress common.Address) (r, s *big.Int, v uint8, err error) {
	rRaw, sRaw, err := oracle.SignDigest(ctx, derivationPath, digest)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("signer: oracle sign: %w", err)
	}

	rBig := new(big.Int).SetBytes(rRaw[:])
	sBig := new(big.Int).SetBytes(sRaw[:])
	if sBig.Cmp(secp256k1Halfn) > 0 {
		sBig = new(big.Int).Sub(secp256k1N, sBig)
	}

	var candidates [2]common.Address
	for recID := uint8(0); recID < 2; recID++ {
		addr, recErr := codec.RecoverSigner(digest[:], rBig, sBig, recID)
		if recErr != nil {
			continue
		}
		candidates[recID] = addr
		if addr == expectedAddress {
			return rBig, sBig, recID + 27, nil
		}
	}
	return nil, nil, 0, &SignerMismatch{Expected: expectedAddress, Got: candidates}
}
