package httpapi

// Addresses and nonces cross the JSON boundary as base64, the nearest
// JSON-native equivalent of the canister boundary's raw Vec<u8> per the
// expanded spec's wire-contract note; hex stays reserved for tx hashes and
// other read-only API responses.

type submitRequest struct {
	AssetID     string `json:"asset_id"`
	From        string `json:"from"`         // base64, 20 bytes
	To          string `json:"to"`           // base64, 20 bytes
	Value       string `json:"value"`        // decimal string
	ValidAfter  uint64 `json:"valid_after"`  // unix seconds
	ValidBefore uint64 `json:"valid_before"` // unix seconds
	Nonce       string `json:"nonce"`        // base64, 32 bytes
	SigV        uint8  `json:"sig_v"`
	SigR        string `json:"sig_r"` // base64, 32 bytes
	SigS        string `json:"sig_s"` // base64, 32 bytes
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type infoResponse struct {
	ChainID         uint64 `json:"chain_id"`
	NetworkLabel    string `json:"network_label"`
	RelayerAddress  string `json:"relayer_address"`
	GasBalanceWei   string `json:"gas_balance_wei"`
	Paused          bool   `json:"paused"`
	ThresholdWei    string `json:"threshold_wei"`
	RateLimitPerMin uint32 `json:"rate_limit_per_minute"`
	DailyCapToken   string `json:"daily_cap_token"`
}

type logEntryResponse struct {
	ID          uint64 `json:"id"`
	TimestampMS int64  `json:"timestamp_ms"`
	ChainID     uint64 `json:"chain_id"`
	AssetID     string `json:"asset_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidBefore uint64 `json:"valid_before"`
	TxHash      string `json:"tx_hash,omitempty"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason,omitempty"`
}

type relayerAddressResponse struct {
	RelayerAddress string `json:"relayer_address"`
}

type setRPCTargetRequest struct {
	Endpoint     string `json:"endpoint"`
	NetworkLabel string `json:"network_label"`
}

type setChainIDRequest struct {
	ChainID uint64 `json:"chain_id"`
}

type setThresholdRequest struct {
	ThresholdWei string `json:"threshold_wei"`
}

type setDerivationPathRequest struct {
	Path []string `json:"path"`
}

type setRelayerAddressRequest struct {
	RelayerAddress string `json:"relayer_address"` // base64, 20 bytes
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type addAssetRequest struct {
	ID         string `json:"id"`
	EvmAddress string `json:"evm_address"` // base64, 20 bytes
	FeeBps     uint16 `json:"fee_bps"`
}

type deriveRelayerAddressRequest struct {
	DerivationPath string `json:"derivation_path"`
}

type deriveRelayerAddressResponse struct {
	RelayerAddress string `json:"relayer_address"`
	Mismatch       bool   `json:"mismatch"`
}

type refreshGasBalanceResponse struct {
	GasBalanceWei string `json:"gas_balance_wei"`
}

type adminPrincipalRequest struct {
	Principal string `json:"principal"`
}

type listAdminsResponse struct {
	Admins []string `json:"admins"`
}
