// Package budget implements the three-cap budget enforcement described
// in spec.md §4.5 (C5): a yearly per-address USD cap, an epoch
// per-address USD cap (from EPOCH_BUDGET_EPOCH), and a yearly global
// PSP cap, applied in that order.
package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// MaxPSPGlobalYearly is MAX_PSP_GLOBAL_YEARLY = 30,000,000 * 10^18.
var MaxPSPGlobalYearly = decimal.New(30_000_000, 18)

// MaxUSDAddressYearly is MAX_USD_ADDRESS_YEARLY.
var MaxUSDAddressYearly = decimal.NewFromInt(30_000)

// MaxUSDAddressEpoch is MAX_USD_ADDRESS_YEARLY / EPOCHS_PER_YEAR.
var MaxUSDAddressEpoch = MaxUSDAddressYearly.Div(decimal.NewFromInt(model.EpochsPerYear))

// ValidatedTotals is what loadState needs from persisted storage: the
// sums of already-VALIDATED rows up to (but excluding) a given epoch.
type ValidatedTotals struct {
	TotalPSPForYear    decimal.Decimal
	YearlyUSDByAddress map[string]decimal.Decimal
}

// TotalsLoader is implemented by the store package; kept as an
// interface here so Guardian stays persistence-agnostic and unit
// testable with a fake.
type TotalsLoader interface {
	LoadValidatedTotals(ctx context.Context, upToEpochExclusive int64) (ValidatedTotals, error)
}

// AppliedCaps is the result of capping a single transaction's raw
// refund. Per spec.md §4.5 and §9, this is returned as a value rather
// than mutated into shared state mid-computation; a nil field means
// that cap did not further constrain the amount.
type AppliedCaps struct {
	CappedUSD *decimal.Decimal
	CappedPSP *decimal.Decimal
}

// Guardian holds the in-memory budget state for the single global
// re-validation pass (spec.md §3: BudgetState counters — the yearly
// global PSP cap and both per-address USD caps — are global, not
// chain-scoped). It is reloaded from persisted VALIDATED rows at the
// start of every pass (spec.md §4.5: "persisted deterministically by
// reloading from validated rows at pass start").
type Guardian struct {
	genesis          int64
	epochBudgetEpoch int64
	loader           TotalsLoader

	totalPSPForYear    decimal.Decimal
	yearlyUSDByAddress map[string]decimal.Decimal
	epochUSDByAddress  map[string]decimal.Decimal
}

func New(genesis, epochBudgetEpoch int64, loader TotalsLoader) *Guardian {
	return &Guardian{
		genesis:            genesis,
		epochBudgetEpoch:   epochBudgetEpoch,
		loader:             loader,
		totalPSPForYear:    decimal.Zero,
		yearlyUSDByAddress: make(map[string]decimal.Decimal),
		epochUSDByAddress:  make(map[string]decimal.Decimal),
	}
}

// LoadState sums VALIDATED rows with epoch < upToEpochExclusive across
// every chain into the yearly counters (spec.md §4.5 loadState).
func (g *Guardian) LoadState(ctx context.Context, upToEpochExclusive int64) error {
	totals, err := g.loader.LoadValidatedTotals(ctx, upToEpochExclusive)
	if err != nil {
		return fmt.Errorf("load validated totals: %w", err)
	}
	g.totalPSPForYear = totals.TotalPSPForYear
	g.yearlyUSDByAddress = make(map[string]decimal.Decimal, len(totals.YearlyUSDByAddress))
	for addr, v := range totals.YearlyUSDByAddress {
		g.yearlyUSDByAddress[addr] = v
	}
	g.epochUSDByAddress = make(map[string]decimal.Decimal)
	return nil
}

// BeginEpoch clears the per-epoch counters and, on a rolling-year
// boundary, also clears the yearly counters (spec.md §4.5 beginEpoch).
func (g *Guardian) BeginEpoch(epoch int64) {
	g.epochUSDByAddress = make(map[string]decimal.Decimal)
	if model.IsYearBoundary(epoch, g.genesis) {
		g.totalPSPForYear = decimal.Zero
		g.yearlyUSDByAddress = make(map[string]decimal.Decimal)
	}
}

func (g *Guardian) yearly(addr string) decimal.Decimal {
	if v, ok := g.yearlyUSDByAddress[addr]; ok {
		return v
	}
	return decimal.Zero
}

func (g *Guardian) epochSpent(addr string) decimal.Decimal {
	if v, ok := g.epochUSDByAddress[addr]; ok {
		return v
	}
	return decimal.Zero
}

// IsGlobalSpent reports whether the yearly global PSP cap has already
// been fully consumed.
func (g *Guardian) IsGlobalSpent() bool {
	return g.totalPSPForYear.GreaterThanOrEqual(MaxPSPGlobalYearly)
}

// RemainingGlobalPSP returns how much of the yearly global PSP cap is
// still unspent, floored at zero.
func (g *Guardian) RemainingGlobalPSP() decimal.Decimal {
	remaining := MaxPSPGlobalYearly.Sub(g.totalPSPForYear)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// HasAddressSpentYearly reports whether the address has already
// consumed its yearly USD cap.
func (g *Guardian) HasAddressSpentYearly(addr string) bool {
	return g.yearly(addr).GreaterThanOrEqual(MaxUSDAddressYearly)
}

// HasAddressSpentEpoch reports whether the address has already
// consumed its epoch USD cap.
func (g *Guardian) HasAddressSpentEpoch(addr string) bool {
	return g.epochSpent(addr).GreaterThanOrEqual(MaxUSDAddressEpoch)
}

// ApplyCaps implements spec.md §4.5's three-cap ordering for one
// transaction. epoch determines whether the epoch-USD cap is in
// effect.
func (g *Guardian) ApplyCaps(addr string, epoch int64, refundUSD, refundPSP, pspPriceUSD decimal.Decimal) (AppliedCaps, error) {
	var caps AppliedCaps
	chosenPSP := refundPSP
	yearlyTripped := false

	// 1. Yearly per-address USD.
	if g.yearly(addr).Add(refundUSD).GreaterThan(MaxUSDAddressYearly) {
		remaining := MaxUSDAddressYearly.Sub(g.yearly(addr))
		if remaining.IsNegative() {
			return AppliedCaps{}, fmt.Errorf("negative yearly cap remaining for %s: over-refunded", addr)
		}
		cappedUSD := remaining
		cappedPSP := derivePSPFromUSD(cappedUSD, pspPriceUSD)
		caps.CappedUSD = &cappedUSD
		caps.CappedPSP = &cappedPSP
		chosenPSP = cappedPSP
		yearlyTripped = true
	}

	// 2. Epoch per-address USD, only from EPOCH_BUDGET_EPOCH and only
	// if the yearly cap did not already trip.
	if !yearlyTripped && epoch >= g.epochBudgetEpoch {
		if g.epochSpent(addr).Add(refundUSD).GreaterThan(MaxUSDAddressEpoch) {
			remaining := MaxUSDAddressEpoch.Sub(g.epochSpent(addr))
			if remaining.IsNegative() {
				return AppliedCaps{}, fmt.Errorf("negative epoch cap remaining for %s: over-refunded", addr)
			}
			cappedUSD := remaining
			cappedPSP := derivePSPFromUSD(cappedUSD, pspPriceUSD)
			caps.CappedUSD = &cappedUSD
			caps.CappedPSP = &cappedPSP
			chosenPSP = cappedPSP
		}
	}

	// 3. Yearly global PSP. cappedUSD is deliberately left as-is here
	// (spec.md §4.5: "the global cap is asset-denominated").
	if g.totalPSPForYear.Add(chosenPSP).GreaterThan(MaxPSPGlobalYearly) {
		remaining := MaxPSPGlobalYearly.Sub(g.totalPSPForYear)
		if remaining.IsNegative() {
			return AppliedCaps{}, fmt.Errorf("negative global cap remaining: over-refunded")
		}
		globalCapped := remaining
		if caps.CappedPSP == nil || globalCapped.LessThan(*caps.CappedPSP) {
			caps.CappedPSP = &globalCapped
		}
	}

	return caps, nil
}

// Commit applies the effective (post-capping) amounts to the in-memory
// counters, per spec.md §4.7 step 4's increaseEpochUSD /
// increaseYearlyUSD / increaseTotalPSP commit rules. Call only for rows
// classified VALIDATED.
func (g *Guardian) Commit(addr string, epoch int64, effectiveUSD, effectivePSP decimal.Decimal) {
	if epoch >= g.epochBudgetEpoch {
		g.epochUSDByAddress[addr] = g.epochSpent(addr).Add(effectiveUSD)
	}
	g.yearlyUSDByAddress[addr] = g.yearly(addr).Add(effectiveUSD)
	g.totalPSPForYear = g.totalPSPForYear.Add(effectivePSP)
}

// derivePSPFromUSD implements spec.md §4.5's "cappedPSP = floor(cappedUSD
// / pspPriceUSD * 10^18)" — the 10^18 factor rescales into the same
// wei-denominated PSP units used throughout refundedAmountPSP.
func derivePSPFromUSD(usd, pspPriceUSD decimal.Decimal) decimal.Decimal {
	if pspPriceUSD.IsZero() {
		return decimal.Zero
	}
	return usd.Div(pspPriceUSD).Mul(decimal.New(1, 18)).Floor()
}
