package store

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		ChainID:            137,
		ThresholdWei:       big.NewInt(1e16),
		MaxFeeMultiplier:   DefaultMaxFeeMultiplier,
		PriorityMultiplier: DefaultPriorityMultiplier,
		RateLimitPerMinute: 10,
		DailyCapToken:      big.NewInt(1_000_000),
		Admins:             map[string]struct{}{"deployer": {}},
	}
}

func TestReserveAuthorization_RejectsDuplicateNonce(t *testing.T) {
	s := New(testConfig())
	var from [20]byte
	from[0] = 1
	var nonce [32]byte
	now := time.Now()

	res := s.ReserveAuthorization(from, nonce, big.NewInt(100), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveOK, res)

	res = s.ReserveAuthorization(from, nonce, big.NewInt(100), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveAlreadySeen, res)
}

func TestReserveAuthorization_ZeroRateLimitRejectsEverything(t *testing.T) {
	s := New(testConfig())
	var from [20]byte
	var nonce [32]byte
	now := time.Now()

	res := s.ReserveAuthorization(from, nonce, big.NewInt(1), now.Add(time.Hour), now, 0, big.NewInt(1_000_000))
	require.Equal(t, ReserveRateExceeded, res)
}

func TestReserveAuthorization_DailyCapExceeded(t *testing.T) {
	s := New(testConfig())
	var from [20]byte
	now := time.Now()

	var nonce1 [32]byte
	nonce1[0] = 1
	res := s.ReserveAuthorization(from, nonce1, big.NewInt(900_000), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveOK, res)

	var nonce2 [32]byte
	nonce2[0] = 2
	res = s.ReserveAuthorization(from, nonce2, big.NewInt(200_000), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveDailyCapExceeded, res)
}

func TestReleaseAuthorization_AllowsRetry(t *testing.T) {
	s := New(testConfig())
	var from [20]byte
	var nonce [32]byte
	now := time.Now()

	res := s.ReserveAuthorization(from, nonce, big.NewInt(100), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveOK, res)

	s.ReleaseAuthorization(from, nonce, big.NewInt(100))

	res = s.ReserveAuthorization(from, nonce, big.NewInt(100), now.Add(time.Hour), now, 10, big.NewInt(1_000_000))
	require.Equal(t, ReserveOK, res)
}

func TestAssetLifecycle_NoRegression(t *testing.T) {
	s := New(testConfig())
	var addr [20]byte
	addr[0] = 0xAA

	asset, err := s.AddAsset("jpyc", addr, 0)
	require.NoError(t, err)
	require.Equal(t, AssetActive, asset.Status)

	require.NoError(t, s.DisableAsset("jpyc")) // no-op: must be Deprecated first
	asset, _ = s.Asset("jpyc")
	require.Equal(t, AssetActive, asset.Status)

	require.NoError(t, s.DeprecateAsset("jpyc"))
	asset, _ = s.Asset("jpyc")
	require.Equal(t, AssetDeprecated, asset.Status)

	require.NoError(t, s.DisableAsset("jpyc"))
	asset, _ = s.Asset("jpyc")
	require.Equal(t, AssetDisabled, asset.Status)
}

func TestAssetRegistry_RejectsDuplicateActiveAddress(t *testing.T) {
	s := New(testConfig())
	var addr [20]byte
	addr[0] = 1

	_, err := s.AddAsset("a", addr, 0)
	require.NoError(t, err)

	_, err = s.AddAsset("b", addr, 0)
	require.Error(t, err)
}

func TestLogRing_MonotonicIDsAndEviction(t *testing.T) {
	ring := newLogRing()
	ring.capacity = 3

	var ids []uint64
	for i := 0; i < 5; i++ {
		id := ring.Append(LogEntry{ChainID: 137})
		ids = append(ids, id)
	}
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, ids)
	require.Len(t, ring.entries, 3)
	require.Equal(t, uint64(3), ring.entries[0].ID)
}

func TestLogRing_ReadNewestFirstAfterID(t *testing.T) {
	ring := newLogRing()
	id1 := ring.Append(LogEntry{})
	id2 := ring.Append(LogEntry{})
	id3 := ring.Append(LogEntry{})

	entries := ring.Read(id1, 10)
	require.Len(t, entries, 2)
	require.Equal(t, id3, entries[0].ID)
	require.Equal(t, id2, entries[1].ID)
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := testConfig()
	clone := cfg.Clone()
	clone.ThresholdWei.SetInt64(999)
	require.NotEqual(t, cfg.ThresholdWei.Int64(), clone.ThresholdWei.Int64())

	clone.Admins["new-admin"] = struct{}{}
	require.False(t, cfg.IsAdmin("new-admin"))
}

func TestIdempotency_InFlightThenComplete(t *testing.T) {
	idx := NewIdempotency(time.Minute)
	status, result, done := idx.CheckAndMark("key1")
	require.Equal(t, IdempotencyNotFound, status)
	require.Nil(t, result)
	require.NotNil(t, done)

	status2, _, done2 := idx.CheckAndMark("key1")
	require.Equal(t, IdempotencyInFlight, status2)
	require.Equal(t, done, done2)

	idx.Complete("key1", &SubmissionResult{TxHash: "0xabc"}, done)

	status3, result3, _ := idx.CheckAndMark("key1")
	require.Equal(t, IdempotencyCached, status3)
	require.Equal(t, "0xabc", result3.TxHash)
}
