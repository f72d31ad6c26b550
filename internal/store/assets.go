package store

import "github.com/pkg/errors"

// AssetStatus is the lifecycle state of an asset registry entry. Status
// transitions are one-directional: Active -> Deprecated -> Disabled. Any
// other attempted transition is a no-op, never an error that could be
// mistaken for a retryable failure.
type AssetStatus int

const (
	AssetActive AssetStatus = iota
	AssetDeprecated
	AssetDisabled
)

func (s AssetStatus) String() string {
	switch s {
	case AssetActive:
		return "active"
	case AssetDeprecated:
		return "deprecated"
	case AssetDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// canTransitionTo reports whether moving from s to next respects
// Active -> Deprecated -> Disabled with no regression.
func (s AssetStatus) canTransitionTo(next AssetStatus) bool {
	return next == s+1 && next <= AssetDisabled
}

// Asset is a registry entry mapping an opaque asset_id to the EVM token
// contract and its current lifecycle status.
type Asset struct {
	ID         string
	EvmAddress [20]byte
	Status     AssetStatus
	FeeBps     uint16
	Version    uint32
}

// AssetRegistry holds every known asset, keyed by ID. At most one Active
// entry may exist per EvmAddress.
type AssetRegistry struct {
	byID map[string]*Asset
}

func newAssetRegistry() *AssetRegistry {
	return &AssetRegistry{byID: make(map[string]*Asset)}
}

// Add registers a new asset as Active. Returns an error if the ID already
// exists or another Active entry already targets the same contract
// address, preserving the "at most one Active per evm_address" invariant.
func (r *AssetRegistry) Add(id string, evmAddress [20]byte, feeBps uint16) (*Asset, error) {
	if _, exists := r.byID[id]; exists {
		return nil, errors.Errorf("store: asset %q already registered", id)
	}
	for _, a := range r.byID {
		if a.Status == AssetActive && a.EvmAddress == evmAddress {
			return nil, errors.New("store: an active asset already targets this contract address")
		}
	}
	asset := &Asset{ID: id, EvmAddress: evmAddress, Status: AssetActive, FeeBps: feeBps, Version: 1}
	r.byID[id] = asset
	return asset, nil
}

// Lookup returns the asset registered under id, if any.
func (r *AssetRegistry) Lookup(id string) (Asset, bool) {
	a, ok := r.byID[id]
	if !ok {
		return Asset{}, false
	}
	return *a, true
}

// Deprecate transitions an Active asset to Deprecated. A no-op if the asset
// is not currently Active.
func (r *AssetRegistry) Deprecate(id string) error {
	return r.transition(id, AssetDeprecated)
}

// Disable transitions a Deprecated asset to Disabled. A no-op if the asset
// is not currently Deprecated.
func (r *AssetRegistry) Disable(id string) error {
	return r.transition(id, AssetDisabled)
}

func (r *AssetRegistry) transition(id string, next AssetStatus) error {
	a, ok := r.byID[id]
	if !ok {
		return errors.Errorf("store: unknown asset %q", id)
	}
	if !a.Status.canTransitionTo(next) {
		// No-op: requesting a transition the asset has already passed, or
		// skipped over, is not an error condition worth surfacing.
		return nil
	}
	a.Status = next
	a.Version++
	return nil
}
