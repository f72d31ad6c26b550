// Package store is the relay's single in-memory state owner: config, the
// asset registry, rate/cap state, the idempotency index, the pause flag,
// and the log ring. A single mutex guards this state for the duration of
// each store call, so every call (a reservation, an admin config
// replacement, a log update) is atomic; serializing build through broadcast
// is the job of internal/relay.Coordinator's own mutex.
package store

import (
	"math/big"
	"sync"
	"time"
)

// ReserveResult is the outcome of Store.ReserveAuthorization.
type ReserveResult int

const (
	ReserveOK ReserveResult = iota
	ReserveRateExceeded
	ReserveDailyCapExceeded
	ReserveAlreadySeen
)

// Store is the process-wide state singleton. Construct one with New and
// thread it through every component explicitly — there is no package-level
// global, so a test (or a future multi-tenant deployment) can hold more
// than one.
type Store struct {
	mu sync.Mutex

	config Config
	assets *AssetRegistry
	rates  *RateLimiter
	seen   map[seenKey]time.Time // (from, nonce) -> valid_before+grace deadline
	log    *LogRing
	idem   *Idempotency

	lastKnownGasWei *big.Int
}

type seenKey struct {
	from  [20]byte
	nonce [32]byte
}

// replayGrace is the minimum retention window past valid_before the spec
// requires for the idempotency index, covering clock skew between this
// process and the chain.
const replayGrace = 300 * time.Second

// New constructs a Store seeded with the given initial config and an empty
// asset registry, rate state, idempotency index, and log.
func New(initial Config) *Store {
	return &Store{
		config:          initial,
		assets:          newAssetRegistry(),
		rates:           newRateLimiter(),
		seen:            make(map[seenKey]time.Time),
		log:             newLogRing(),
		idem:            NewIdempotency(15 * time.Minute),
		lastKnownGasWei: new(big.Int),
	}
}

// ConfigSnapshot returns a deep-enough copy of the current config, safe to
// hold across the lifetime of one submission without observing later admin
// mutations.
func (s *Store) ConfigSnapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// ReplaceConfig atomically replaces the live config, used by every admin
// mutation in internal/admin.
func (s *Store) ReplaceConfig(next Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = next
}

// Asset looks up an asset registry entry by ID.
func (s *Store) Asset(id string) (Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.Lookup(id)
}

// AddAsset registers a new Active asset.
func (s *Store) AddAsset(id string, evmAddress [20]byte, feeBps uint16) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.assets.Add(id, evmAddress, feeBps)
	if err != nil {
		return Asset{}, err
	}
	return *a, nil
}

// DeprecateAsset transitions an asset Active -> Deprecated.
func (s *Store) DeprecateAsset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.Deprecate(id)
}

// DisableAsset transitions an asset Deprecated -> Disabled.
func (s *Store) DisableAsset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.Disable(id)
}

// ReserveAuthorization is the single atomic admission step that checks rate
// limits, the daily cap, and (from, nonce) replay within this process, and
// if all pass, records the reservation. Lazy eviction of expired
// idempotency entries happens here, on every call.
func (s *Store) ReserveAuthorization(from [20]byte, nonce [32]byte, value *big.Int, validBefore time.Time, now time.Time, limitPerMinute uint32, dailyCap *big.Int) ReserveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)

	key := seenKey{from: from, nonce: nonce}
	if _, seen := s.seen[key]; seen {
		return ReserveAlreadySeen
	}

	switch s.rates.CheckAndReserve(from, value, now, limitPerMinute, dailyCap) {
	case RateExceeded:
		return ReserveRateExceeded
	case DailyCapExceeded:
		return ReserveDailyCapExceeded
	}

	s.seen[key] = validBefore.Add(replayGrace)
	return ReserveOK
}

// ReleaseAuthorization undoes a reservation made by ReserveAuthorization,
// called on terminal pre-broadcast failure so the sender can retry. It must
// never be called once a broadcast has happened, successfully or not.
func (s *Store) ReleaseAuthorization(from [20]byte, nonce [32]byte, value *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, seenKey{from: from, nonce: nonce})
	s.rates.Release(from, value)
}

func (s *Store) evictExpiredLocked(now time.Time) {
	for key, deadline := range s.seen {
		if now.After(deadline) {
			delete(s.seen, key)
		}
	}
}

// Paused reports the current pause flag.
func (s *Store) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Paused
}

// SetPaused atomically flips the pause flag.
func (s *Store) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Paused = paused
}

// LogAppend appends a new Pending log entry and returns its ID.
func (s *Store) LogAppend(entry LogEntry) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Append(entry)
}

// LogUpdate applies a terminal status update to a log entry.
func (s *Store) LogUpdate(id uint64, status LogStatus, txHash, failReason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Update(id, status, txHash, failReason)
}

// LogRead returns up to limit entries newer than afterID, newest-first.
func (s *Store) LogRead(afterID uint64, limit int) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Read(afterID, limit)
}

// Idempotency exposes the submission-result cache for the HTTP layer's
// duplicate-request handling (distinct from the nonce-replay index above,
// which guards on-chain double-spend, not duplicate HTTP calls).
func (s *Store) Idempotency() *Idempotency {
	return s.idem
}

// LastKnownGasWei returns the most recently observed relayer gas balance
// without a live RPC round trip.
func (s *Store) LastKnownGasWei() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.lastKnownGasWei)
}

// SetLastKnownGasWei updates the cached gas balance, called after every
// successful balance check and by the admin refresh-gas-balance operation.
func (s *Store) SetLastKnownGasWei(balance *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKnownGasWei = new(big.Int).Set(balance)
}
