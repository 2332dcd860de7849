package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

// storeTotalsLoader adapts store.TransactionRepository's string-encoded
// totals to the decimal-typed TotalsLoader this package operates on,
// keeping the store layer free of decimal/domain concerns.
type storeTotalsLoader struct {
	repo store.TransactionRepository
}

// NewStoreTotalsLoader wraps a TransactionRepository as a TotalsLoader.
func NewStoreTotalsLoader(repo store.TransactionRepository) TotalsLoader {
	return &storeTotalsLoader{repo: repo}
}

func (l *storeTotalsLoader) LoadValidatedTotals(ctx context.Context, upToEpochExclusive int64) (ValidatedTotals, error) {
	raw, err := l.repo.LoadValidatedTotals(ctx, upToEpochExclusive)
	if err != nil {
		return ValidatedTotals{}, err
	}

	totalPSP, err := decimal.NewFromString(raw.TotalPSPForYear)
	if err != nil {
		return ValidatedTotals{}, fmt.Errorf("parse total PSP for year: %w", err)
	}

	yearly := make(map[string]decimal.Decimal, len(raw.YearlyUSDByAddress))
	for addr, s := range raw.YearlyUSDByAddress {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return ValidatedTotals{}, fmt.Errorf("parse yearly USD for %s: %w", addr, err)
		}
		yearly[addr] = v
	}

	return ValidatedTotals{TotalPSPForYear: totalPSP, YearlyUSDByAddress: yearly}, nil
}
