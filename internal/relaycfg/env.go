// Package relaycfg loads the relay's process bootstrap configuration from
// the environment, the ambient counterpart to internal/store's in-memory,
// admin-mutable Config. Everything here is read once at startup; everything
// in internal/store.Config can change at runtime through internal/admin.
package relaycfg

import (
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/humandebri/jpycpay/internal/store"
)

// Env is the fully resolved process configuration: where the RPC node and
// signer oracle live, how the HTTP server binds, and the initial store.Config
// to seed the relay with before any admin call has run.
type Env struct {
	ListenAddr    string
	RPCEndpoint   string
	NetworkLabel  string
	OracleBaseURL string
	LogLevel      string
	CallTimeout   time.Duration

	InitialStore store.Config
}

// Load reads every JPYCPAY_* environment variable, applying the same
// defaults the relay would use on a fresh deploy. It never touches the
// network or the signer oracle — it only assembles the values to dial them
// with later.
func Load() (*Env, error) {
	env := &Env{
		ListenAddr:    getEnv("JPYCPAY_LISTEN_ADDR", ":8080"),
		RPCEndpoint:   getEnv("JPYCPAY_RPC_ENDPOINT", "https://polygon-rpc.com"),
		NetworkLabel:  getEnv("JPYCPAY_NETWORK_LABEL", "polygon-mainnet"),
		OracleBaseURL: getEnv("JPYCPAY_ORACLE_URL", "http://localhost:9090"),
		LogLevel:      getEnv("JPYCPAY_LOG_LEVEL", "info"),
	}

	callTimeoutSeconds, err := getEnvInt("JPYCPAY_RPC_CALL_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	env.CallTimeout = time.Duration(callTimeoutSeconds) * time.Second

	chainID, err := getEnvUint64("JPYCPAY_CHAIN_ID", 137)
	if err != nil {
		return nil, err
	}

	thresholdWei, ok := new(big.Int).SetString(getEnv("JPYCPAY_THRESHOLD_WEI", "10000000000000000"), 10)
	if !ok {
		return nil, errors.New("relaycfg: JPYCPAY_THRESHOLD_WEI is not a valid integer")
	}

	dailyCapToken, ok := new(big.Int).SetString(getEnv("JPYCPAY_DAILY_CAP_TOKEN", "0"), 10)
	if !ok {
		return nil, errors.New("relaycfg: JPYCPAY_DAILY_CAP_TOKEN is not a valid integer")
	}

	rateLimitPerMinute, err := getEnvUint64("JPYCPAY_RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	var derivationPath []string
	for _, p := range strings.Split(getEnv("JPYCPAY_ECDSA_DERIVATION_PATH", "relay/1"), "/") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			derivationPath = append(derivationPath, trimmed)
		}
	}

	admins := make(map[string]struct{})
	for _, p := range splitCSV(getEnv("JPYCPAY_ADMIN_PRINCIPALS", "")) {
		admins[p] = struct{}{}
	}

	env.InitialStore = store.Config{
		ChainID: chainID,
		RPCTarget: store.RPCTarget{
			Endpoint:     env.RPCEndpoint,
			NetworkLabel: env.NetworkLabel,
		},
		EcdsaKeyName:        getEnv("JPYCPAY_ECDSA_KEY_NAME", "jpycpay_relay_key"),
		EcdsaDerivationPath: derivationPath,
		ThresholdWei:        thresholdWei,
		MaxFeeMultiplier:    store.DefaultMaxFeeMultiplier,
		PriorityMultiplier:  store.DefaultPriorityMultiplier,
		RateLimitPerMinute:  uint32(rateLimitPerMinute),
		DailyCapToken:       dailyCapToken,
		Admins:              admins,
	}

	return env, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "relaycfg: %s is not an integer", key)
	}
	return n, nil
}

func getEnvUint64(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "relaycfg: %s is not an unsigned integer", key)
	}
	return n, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
