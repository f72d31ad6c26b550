package codec

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestHashTransferAuthorization_Deterministic(t *testing.T) {
	domain := Domain{
		Name:              "JPY Coin",
		Version:           "1",
		ChainID:           big.NewInt(137),
		VerifyingContract: "0x431D5dfF03120AFA4bDf332c61A6e1766eF37BDB",
	}
	var nonce [32]byte
	nonce[0] = 0x01

	h1, err := HashTransferAuthorization(domain, "0x0000000000000000000000000000000000000001", "0x0000000000000000000000000000000000000002", big.NewInt(1000), big.NewInt(0), big.NewInt(2000000000), nonce)
	require.NoError(t, err)
	require.Len(t, h1, 32)

	h2, err := HashTransferAuthorization(domain, "0x0000000000000000000000000000000000000001", "0x0000000000000000000000000000000000000002", big.NewInt(1000), big.NewInt(0), big.NewInt(2000000000), nonce)
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	nonce[0] = 0x02
	h3, err := HashTransferAuthorization(domain, "0x0000000000000000000000000000000000000001", "0x0000000000000000000000000000000000000002", big.NewInt(1000), big.NewInt(0), big.NewInt(2000000000), nonce)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestPackTransferWithAuthorization_Selector(t *testing.T) {
	from := common.HexToAddress("0x1")
	to := common.HexToAddress("0x2")
	var nonce, r, s [32]byte
	data, err := PackTransferWithAuthorization(from, to, big.NewInt(1), big.NewInt(0), big.NewInt(1), nonce, 27, r, s)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 4)

	sig := "transferWithAuthorization(address,address,uint256,uint256,uint256,bytes32,uint8,bytes32,bytes32)"
	wantSelector := crypto.Keccak256([]byte(sig))[:4]
	require.Equal(t, wantSelector, data[:4])
}

func TestPackAuthorizationState_MatchesABIPack(t *testing.T) {
	authorizer := common.HexToAddress("0x3")
	var nonce [32]byte
	data, err := PackAuthorizationState(authorizer, nonce)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 4)

	trueResult, err := authorizationStateParsed.Pack("authorizationState", authorizer, nonce)
	require.NoError(t, err)
	require.Equal(t, data, trueResult)
}

func TestAddressFromUncompressedPubkey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	addr, err := AddressFromUncompressedPubkey(pub)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), common.Address(addr))
}
