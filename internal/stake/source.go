// Package stake computes a user's effective staked PSP at a timestamp
// by summing the SPSP and (from SM_START_EPOCH onward) Safety Module
// stake sources (C2).
package stake

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceRequest names one address observed at one timestamp within the
// window currently being preloaded.
type BalanceRequest struct {
	Address   string
	Timestamp time.Time
}

// Source is a stake-balance collaborator (SPSP or Safety Module). Per
// spec.md §4.2, a Source must be loaded once for the set of points a
// caller is about to query via LoadRange, after which Balance is a
// pure, allocation-only lookup issuing no further network I/O.
type Source interface {
	// LoadRange preloads every (address, timestamp) point in requests so
	// that subsequent Balance calls for those exact points are pure. An
	// event-scan implementation may instead derive a covering block
	// range from the requested timestamps and preload that range in one
	// pass; either way, no per-Balance-call network I/O is permitted.
	LoadRange(ctx context.Context, requests []BalanceRequest) error

	// Balance returns the address's staked PSP as of timestamp, using
	// only data loaded by the most recent LoadRange call.
	Balance(ctx context.Context, address string, timestamp time.Time) (decimal.Decimal, error)
}
