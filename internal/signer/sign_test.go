package signer

import (
	"context"
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/humandebri/jpycpay/internal/codec"
)

// directOracle signs with a real private key in-process, standing in for
// the threshold-ECDSA cluster in tests.
type directOracle struct {
	priv *ecdsa.PrivateKey
}

func (o *directOracle) PublicKey(ctx context.Context, derivationPath string) ([]byte, error) {
	return crypto.FromECDSAPub(&o.priv.PublicKey), nil
}

func (o *directOracle) SignDigest(ctx context.Context, derivationPath string, digest [32]byte) (r, s [32]byte, err error) {
	sig, err := crypto.Sign(digest[:], o.priv)
	if err != nil {
		return r, s, err
	}
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	return r, s, nil
}

func TestSign_RecoversExpectedAddress(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(priv.PublicKey)

	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	oracle := &directOracle{priv: priv}
	r, s, v, err := Sign(context.Background(), oracle, "m/0", digest, addr)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, s)
	require.True(t, v == 27 || v == 28)

	recovered, err := codec.RecoverSigner(digest[:], r, s, v-27)
	require.NoError(t, err)
	require.Equal(t, addr, recovered)
}

func TestSign_MismatchWhenWrongAddressExpected(t *testing.T) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	wrongAddr := crypto.PubkeyToAddress(other.PublicKey)

	var digest [32]byte
	oracle := &directOracle{priv: priv}

	_, _, _, err = Sign(context.Background(), oracle, "m/0", digest, wrongAddr)
	require.Error(t, err)
	var mismatch *SignerMismatch
	require.ErrorAs(t, err, &mismatch)
}
