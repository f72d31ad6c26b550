// Package admin implements the ACL-gated configuration-mutation surface:
// every operation in spec §4.8, each atomic on the state store and gated
// by the caller's membership in the configured admin set.
package admin

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/humandebri/jpycpay/internal/codec"
	"github.com/humandebri/jpycpay/internal/metrics"
	"github.com/humandebri/jpycpay/internal/rpcclient"
	"github.com/humandebri/jpycpay/internal/signer"
	"github.com/humandebri/jpycpay/internal/store"
)

// ErrNotAdmin is returned by every operation when the caller is not a
// member of the current admin set.
var ErrNotAdmin = errors.New("admin: caller is not an admin")

// Surface is the admin operations surface over one store, RPC client, and
// signer oracle.
type Surface struct {
	Store  *store.Store
	RPC    *rpcclient.Client
	Oracle signer.Oracle
}

// New returns an admin Surface.
func New(s *store.Store, rpc *rpcclient.Client, oracle signer.Oracle) *Surface {
	return &Surface{Store: s, RPC: rpc, Oracle: oracle}
}

func (a *Surface) requireAdmin(caller string) (store.Config, error) {
	cfg := a.Store.ConfigSnapshot()
	if !cfg.IsAdmin(caller) {
		return store.Config{}, ErrNotAdmin
	}
	return cfg, nil
}

// SetRPCTarget updates the RPC endpoint and network label the relay
// submits through.
func (a *Surface) SetRPCTarget(caller string, target store.RPCTarget) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.RPCTarget = target
	a.Store.ReplaceConfig(cfg)
	return nil
}

// SetChainID updates the configured chain ID.
func (a *Surface) SetChainID(caller string, chainID uint64) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.ChainID = chainID
	a.Store.ReplaceConfig(cfg)
	return nil
}

// SetThreshold updates the minimum relayer balance required to submit.
func (a *Surface) SetThreshold(caller string, thresholdWei *big.Int) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.ThresholdWei = new(big.Int).Set(thresholdWei)
	a.Store.ReplaceConfig(cfg)
	return nil
}

// SetEcdsaDerivationPath updates the tECDSA derivation path used for
// signing and address derivation.
func (a *Surface) SetEcdsaDerivationPath(caller string, path []string) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.EcdsaDerivationPath = append([]string(nil), path...)
	a.Store.ReplaceConfig(cfg)
	return nil
}

// SetRelayerAddress is an operator override: it takes effect at once, until a
// later DeriveRelayerAddress replaces it and reports a mismatch if the
// derived address disagrees with it.
func (a *Surface) SetRelayerAddress(caller string, addr common.Address) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.RelayerAddress = [20]byte(addr)
	cfg.RelayerAddressSet = true
	a.Store.ReplaceConfig(cfg)
	return nil
}

// DeriveRelayerAddress is the only operation that both sets and returns the
// relayer address: it asks the signer oracle for the current public key,
// derives the address per C1, and caches it. If an operator previously set
// a different address via SetRelayerAddress, the derived address still
// replaces it; the returned mismatch flag reports the disagreement, which the
// HTTP handler logs as a warning.
func (a *Surface) DeriveRelayerAddress(ctx context.Context, caller string, derivationPath string) (addr common.Address, mismatch bool, err error) {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return common.Address{}, false, err
	}

	pubkey, err := a.Oracle.PublicKey(ctx, derivationPath)
	if err != nil {
		return common.Address{}, false, errors.Wrap(err, "admin: fetch public key")
	}
	derivedBytes, err := codec.AddressFromUncompressedPubkey(pubkey)
	if err != nil {
		return common.Address{}, false, errors.Wrap(err, "admin: derive address")
	}
	derived := common.Address(derivedBytes)

	mismatch = cfg.RelayerAddressSet && cfg.RelayerAddress != [20]byte(derived)
	cfg.RelayerAddress = [20]byte(derived)
	cfg.RelayerAddressSet = true
	a.Store.ReplaceConfig(cfg)
	return derived, mismatch, nil
}

// AddAsset registers a new Active asset in the registry.
func (a *Surface) AddAsset(caller, id string, evmAddress common.Address, feeBps uint16) (store.Asset, error) {
	if _, err := a.requireAdmin(caller); err != nil {
		return store.Asset{}, err
	}
	asset, err := a.Store.AddAsset(id, [20]byte(evmAddress), feeBps)
	if err != nil {
		return store.Asset{}, err
	}
	metrics.AssetsActive.Inc()
	return asset, nil
}

// DeprecateAsset transitions an asset Active -> Deprecated. DeprecateAsset
// on the store is a no-op if the asset isn't currently Active, so the gauge
// must only move when a transition actually happened.
func (a *Surface) DeprecateAsset(caller, id string) error {
	if _, err := a.requireAdmin(caller); err != nil {
		return err
	}
	asset, ok := a.Store.Asset(id)
	wasActive := ok && asset.Status == store.AssetActive
	if err := a.Store.DeprecateAsset(id); err != nil {
		return err
	}
	if wasActive {
		metrics.AssetsActive.Dec()
	}
	return nil
}

// DisableAsset transitions an asset Deprecated -> Disabled.
func (a *Surface) DisableAsset(caller, id string) error {
	if _, err := a.requireAdmin(caller); err != nil {
		return err
	}
	return a.Store.DisableAsset(id)
}

// Pause flips the global pause flag. A pause that takes effect mid-flight
// only affects submissions that have not yet started admission.
func (a *Surface) Pause(caller string, paused bool) error {
	if _, err := a.requireAdmin(caller); err != nil {
		return err
	}
	a.Store.SetPaused(paused)
	if paused {
		metrics.PauseState.Set(1)
	} else {
		metrics.PauseState.Set(0)
	}
	return nil
}

// RefreshGasBalance force-polls the RPC oracle for the relayer's current
// balance and caches it, independent of any in-flight submission.
func (a *Surface) RefreshGasBalance(ctx context.Context, caller string) (*big.Int, error) {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return nil, err
	}
	balance, err := a.RPC.GetBalance(ctx, common.Address(cfg.RelayerAddress))
	if err != nil {
		return nil, err
	}
	a.Store.SetLastKnownGasWei(balance)
	balanceFloat, _ := new(big.Float).SetInt(balance).Float64()
	metrics.RelayerGasBalanceWei.Set(balanceFloat)
	return balance, nil
}

// AddAdmin grants admin status to principal. Supplements the spec's
// hard-coded first-deploy admin set with a live roster API, since a
// long-running service needs a way to add operators without a restart.
func (a *Surface) AddAdmin(caller, principal string) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	cfg.Admins[principal] = struct{}{}
	a.Store.ReplaceConfig(cfg)
	return nil
}

// RemoveAdmin revokes principal's admin status.
func (a *Surface) RemoveAdmin(caller, principal string) error {
	cfg, err := a.requireAdmin(caller)
	if err != nil {
		return err
	}
	delete(cfg.Admins, principal)
	a.Store.ReplaceConfig(cfg)
	return nil
}

// ListAdmins returns the current admin principals.
func (a *Surface) ListAdmins() []string {
	cfg := a.Store.ConfigSnapshot()
	out := make([]string, 0, len(cfg.Admins))
	for p := range cfg.Admins {
		out = append(out, p)
	}
	return out
}
