package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one historical rate sample for a chain, as returned by
// the price oracle collaborator (spec.md §6).
type PricePoint struct {
	ChainID          ChainID
	Timestamp        time.Time
	PSPPriceUSD      decimal.Decimal
	ChainPriceUSD    decimal.Decimal
	PSPPerNativeRate decimal.Decimal
}

// SameUTCDay reports whether t falls on the same UTC calendar day as p.
func (p PricePoint) SameUTCDay(t time.Time) bool {
	py, pm, pd := p.Timestamp.UTC().Date()
	ty, tm, td := t.UTC().Date()
	return py == ty && pm == tm && pd == td
}
