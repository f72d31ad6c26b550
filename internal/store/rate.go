package store

import (
	"math/big"
	"time"
)

const (
	minuteWindow = 60 * time.Second
	dayWindow    = 86400 * time.Second
)

// rateCounter tracks a single sender's per-minute submission count and daily
// token total over fixed windows that start at the sender's first
// submission after the previous window ended. Windows are wall-clock; a counter that has
// aged past its window resets rather than accumulating across windows.
type rateCounter struct {
	minuteWindowStart time.Time
	minuteCount       uint32
	dayWindowStart    time.Time
	dayTotal          *big.Int
}

func newRateCounter(now time.Time) *rateCounter {
	return &rateCounter{
		minuteWindowStart: now,
		dayWindowStart:    now,
		dayTotal:          new(big.Int),
	}
}

// RateLimiter enforces per-sender rate_limit_per_min and daily_cap_token.
type RateLimiter struct {
	bySender map[[20]byte]*rateCounter
}

func newRateLimiter() *RateLimiter {
	return &RateLimiter{bySender: make(map[[20]byte]*rateCounter)}
}

// RateCheckResult is the outcome of checking (and, if ok, reserving) one
// submission against a sender's rate state.
type RateCheckResult int

const (
	RateOK RateCheckResult = iota
	RateExceeded
	DailyCapExceeded
)

// CheckAndReserve validates from's rate state against limits and, if
// within bounds, increments the minute counter and adds value to the daily
// total. A rate_limit_per_min of 0 rejects every submission unconditionally,
// per the boundary rule that zero means "fully closed," not "unlimited."
func (r *RateLimiter) CheckAndReserve(from [20]byte, value *big.Int, now time.Time, limitPerMinute uint32, dailyCap *big.Int) RateCheckResult {
	counter, ok := r.bySender[from]
	if !ok {
		counter = newRateCounter(now)
		r.bySender[from] = counter
	}

	if now.Sub(counter.minuteWindowStart) >= minuteWindow {
		counter.minuteWindowStart = now
		counter.minuteCount = 0
	}
	if now.Sub(counter.dayWindowStart) >= dayWindow {
		counter.dayWindowStart = now
		counter.dayTotal = new(big.Int)
	}

	if limitPerMinute == 0 || counter.minuteCount >= limitPerMinute {
		return RateExceeded
	}

	projected := new(big.Int).Add(counter.dayTotal, value)
	if dailyCap != nil && dailyCap.Sign() > 0 && projected.Cmp(dailyCap) > 0 {
		return DailyCapExceeded
	}

	counter.minuteCount++
	counter.dayTotal = projected
	return RateOK
}

// Release undoes a reservation made by CheckAndReserve, used when a
// submission fails after reserving but before broadcast so the sender can
// retry without being penalized for the failed attempt.
func (r *RateLimiter) Release(from [20]byte, value *big.Int) {
	counter, ok := r.bySender[from]
	if !ok {
		return
	}
	if counter.minuteCount > 0 {
		counter.minuteCount--
	}
	counter.dayTotal.Sub(counter.dayTotal, value)
	if counter.dayTotal.Sign() < 0 {
		counter.dayTotal.SetInt64(0)
	}
}
