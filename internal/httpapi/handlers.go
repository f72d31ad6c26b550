package httpapi

import (
	"encoding/base64"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/humandebri/jpycpay/internal/admission"
	"github.com/humandebri/jpycpay/internal/relay"
	"github.com/humandebri/jpycpay/internal/store"
)

const idempotencyKeyHeader = "Idempotency-Key"

var errWrongLength = errors.New("httpapi: decoded field has the wrong byte length")

func decodeFixed(s string, out []byte) error {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	if len(decoded) != len(out) {
		return errWrongLength
	}
	copy(out, decoded)
	return nil
}

func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}

	var from, to [20]byte
	var nonce [32]byte
	var sigR, sigS [32]byte
	if decodeFixed(req.From, from[:]) != nil || decodeFixed(req.To, to[:]) != nil ||
		decodeFixed(req.Nonce, nonce[:]) != nil || decodeFixed(req.SigR, sigR[:]) != nil ||
		decodeFixed(req.SigS, sigS[:]) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}

	auth := admission.Authorization{
		AssetID:     req.AssetID,
		From:        from,
		To:          to,
		Value:       value,
		ValidAfter:  req.ValidAfter,
		ValidBefore: req.ValidBefore,
		Nonce:       nonce,
		SigV:        req.SigV,
		SigR:        sigR,
		SigS:        sigS,
	}

	idemKey := c.GetHeader(idempotencyKeyHeader)
	if idemKey == "" {
		s.submit(c, auth)
		return
	}

	status, cached, done := s.Store.Idempotency().CheckAndMark(idemKey)
	switch status {
	case store.IdempotencyCached:
		s.writeSubmissionResult(c, cached)
		return
	case store.IdempotencyInFlight:
		result, err := s.Store.Idempotency().WaitForResult(c.Request.Context(), idemKey, done)
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timeout"})
			return
		}
		s.writeSubmissionResult(c, result)
		return
	}

	txHash, err := s.Coordinator.Submit(c.Request.Context(), auth)
	if err != nil {
		relayErr, _ := err.(*relay.Error)
		code := "internal"
		if relayErr != nil {
			code = string(relayErr.Code)
		}
		s.Store.Idempotency().Complete(idemKey, &store.SubmissionResult{Failed: true, ErrCode: code}, done)
		logger := loggerFromContext(c)
		logger.Warn().Err(err).Str("code", code).Msg("submission failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": code})
		return
	}

	s.Store.Idempotency().Complete(idemKey, &store.SubmissionResult{TxHash: txHash}, done)
	c.JSON(http.StatusOK, submitResponse{TxHash: txHash})
}

func (s *Server) submit(c *gin.Context, auth admission.Authorization) {
	txHash, err := s.Coordinator.Submit(c.Request.Context(), auth)
	if err != nil {
		relayErr, _ := err.(*relay.Error)
		code := "internal"
		if relayErr != nil {
			code = string(relayErr.Code)
		}
		logger := loggerFromContext(c)
		logger.Warn().Err(err).Str("code", code).Msg("submission failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": code})
		return
	}
	c.JSON(http.StatusOK, submitResponse{TxHash: txHash})
}

func (s *Server) writeSubmissionResult(c *gin.Context, result *store.SubmissionResult) {
	if result.Failed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.ErrCode})
		return
	}
	c.JSON(http.StatusOK, submitResponse{TxHash: result.TxHash})
}

func (s *Server) handleInfo(c *gin.Context) {
	cfg := s.Store.ConfigSnapshot()
	c.JSON(http.StatusOK, infoResponse{
		ChainID:         cfg.ChainID,
		NetworkLabel:    cfg.RPCTarget.NetworkLabel,
		RelayerAddress:  common.Address(cfg.RelayerAddress).Hex(),
		GasBalanceWei:   s.Store.LastKnownGasWei().String(),
		Paused:          cfg.Paused,
		ThresholdWei:    cfg.ThresholdWei.String(),
		RateLimitPerMin: cfg.RateLimitPerMinute,
		DailyCapToken:   cfg.DailyCapToken.String(),
	})
}

func (s *Server) handleLogs(c *gin.Context) {
	var afterID uint64
	if v := c.Query("after_id"); v != "" {
		if parsed, ok := new(big.Int).SetString(v, 10); ok {
			afterID = parsed.Uint64()
		}
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, ok := new(big.Int).SetString(v, 10); ok {
			limit = int(parsed.Int64())
		}
	}

	entries := s.Store.LogRead(afterID, limit)
	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryResponse{
			ID:          e.ID,
			TimestampMS: e.Timestamp.UnixMilli(),
			ChainID:     e.ChainID,
			AssetID:     e.AssetID,
			From:        common.Address(e.From).Hex(),
			To:          common.Address(e.To).Hex(),
			Value:       e.Value,
			ValidBefore: e.ValidBefore,
			TxHash:      e.TxHash,
			Status:      e.Status.String(),
			FailReason:  e.FailReason,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRelayerAddress(c *gin.Context) {
	cfg := s.Store.ConfigSnapshot()
	c.JSON(http.StatusOK, relayerAddressResponse{
		RelayerAddress: common.Address(cfg.RelayerAddress).Hex(),
	})
}

func (s *Server) handleSetRPCTarget(c *gin.Context) {
	var req setRPCTargetRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.SetRPCTarget(principalFromContext(c), store.RPCTarget{Endpoint: req.Endpoint, NetworkLabel: req.NetworkLabel})
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSetChainID(c *gin.Context) {
	var req setChainIDRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.SetChainID(principalFromContext(c), req.ChainID)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSetThreshold(c *gin.Context) {
	var req setThresholdRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	thresholdWei, ok := new(big.Int).SetString(req.ThresholdWei, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.SetThreshold(principalFromContext(c), thresholdWei)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSetDerivationPath(c *gin.Context) {
	var req setDerivationPathRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.SetEcdsaDerivationPath(principalFromContext(c), req.Path)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSetRelayerAddress(c *gin.Context) {
	var req setRelayerAddressRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	var addr [20]byte
	if decodeFixed(req.RelayerAddress, addr[:]) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.SetRelayerAddress(principalFromContext(c), common.Address(addr))
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handlePause(c *gin.Context) {
	var req pauseRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.Pause(principalFromContext(c), req.Paused)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAddAsset(c *gin.Context) {
	var req addAssetRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	var addr [20]byte
	if decodeFixed(req.EvmAddress, addr[:]) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	asset, err := s.Admin.AddAsset(principalFromContext(c), req.ID, common.Address(addr), req.FeeBps)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": asset.ID, "status": asset.Status.String(), "version": asset.Version})
}

func (s *Server) handleDeprecateAsset(c *gin.Context) {
	err := s.Admin.DeprecateAsset(principalFromContext(c), c.Param("id"))
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDisableAsset(c *gin.Context) {
	err := s.Admin.DisableAsset(principalFromContext(c), c.Param("id"))
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDeriveRelayerAddress(c *gin.Context) {
	var req deriveRelayerAddressRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	addr, mismatch, err := s.Admin.DeriveRelayerAddress(c.Request.Context(), principalFromContext(c), req.DerivationPath)
	if respondAdminError(c, err) {
		return
	}
	if mismatch {
		logger := loggerFromContext(c)
		logger.Warn().Str("derived", addr.Hex()).Msg("derived relayer address disagrees with operator-set address")
	}
	c.JSON(http.StatusOK, deriveRelayerAddressResponse{RelayerAddress: addr.Hex(), Mismatch: mismatch})
}

func (s *Server) handleRefreshGasBalance(c *gin.Context) {
	balance, err := s.Admin.RefreshGasBalance(c.Request.Context(), principalFromContext(c))
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, refreshGasBalanceResponse{GasBalanceWei: balance.String()})
}

func (s *Server) handleAddAdmin(c *gin.Context) {
	var req adminPrincipalRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.AddAdmin(principalFromContext(c), req.Principal)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleRemoveAdmin(c *gin.Context) {
	var req adminPrincipalRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_input"})
		return
	}
	err := s.Admin.RemoveAdmin(principalFromContext(c), req.Principal)
	if respondAdminError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListAdmins(c *gin.Context) {
	c.JSON(http.StatusOK, listAdminsResponse{Admins: s.Admin.ListAdmins()})
}
