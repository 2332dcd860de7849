// Package tier resolves a staked-PSP amount to a refund percentage
// (C1). It is a pure function with no I/O.
package tier

import (
	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// Resolve walks the tier table in descending minStake order and returns
// the percent of the first threshold at or below stake. It returns
// (zero, false) if stake is below model.MinStake, meaning the caller
// must treat the address as ineligible rather than defaulting to 0%.
func Resolve(stake decimal.Decimal) (decimal.Decimal, bool) {
	if stake.LessThan(model.MinStake) {
		return decimal.Zero, false
	}
	for _, t := range model.Tiers {
		if stake.GreaterThanOrEqual(t.MinStake) {
			return t.Percent, true
		}
	}
	return decimal.Zero, false
}
