package relaycfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	env, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", env.ListenAddr)
	require.Equal(t, "https://polygon-rpc.com", env.RPCEndpoint)
	require.Equal(t, uint64(137), env.InitialStore.ChainID)
	require.Equal(t, "10000000000000000", env.InitialStore.ThresholdWei.String())
	require.Equal(t, []string{"relay", "1"}, env.InitialStore.EcdsaDerivationPath)
	require.Empty(t, env.InitialStore.Admins)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("JPYCPAY_LISTEN_ADDR", ":9999")
	t.Setenv("JPYCPAY_CHAIN_ID", "80002")
	t.Setenv("JPYCPAY_ADMIN_PRINCIPALS", "alice, bob,,carol")
	t.Setenv("JPYCPAY_THRESHOLD_WEI", "42")

	env, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9999", env.ListenAddr)
	require.Equal(t, uint64(80002), env.InitialStore.ChainID)
	require.Equal(t, "42", env.InitialStore.ThresholdWei.String())
	require.Len(t, env.InitialStore.Admins, 3)
	require.Contains(t, env.InitialStore.Admins, "alice")
	require.Contains(t, env.InitialStore.Admins, "bob")
	require.Contains(t, env.InitialStore.Admins, "carol")
}

func TestLoad_RejectsNonIntegerThreshold(t *testing.T) {
	t.Setenv("JPYCPAY_THRESHOLD_WEI", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonIntegerChainID(t *testing.T) {
	t.Setenv("JPYCPAY_CHAIN_ID", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}
