// Package revalidation implements the deterministic re-validation pass
// (C7): a single-threaded, paginated replay of every persisted
// transaction in canonical order that re-classifies status and re-caps
// amounts. This is described in spec.md §4.7 as "the heart of
// correctness".
package revalidation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/budget"
	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
	"github.com/choppy227/paraswap-volume-tracker/internal/refund"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

// PageSize is the fixed page size spec.md §4.7 step 3 mandates.
const PageSize = 1000

// TierResolver is narrowed to the one function revalidation needs, so
// tests can substitute a table without pulling in the tier package's
// global state.
type TierResolver func(stake decimal.Decimal) (decimal.Decimal, bool)

// Config carries the epoch gates the pass is cumulative over.
type Config struct {
	Genesis              int64
	EpochBudgetEpoch     int64
	PrecisionGlitchEpoch int64
}

// Pass runs one deterministic re-validation scan across every chain's
// persisted rows.
type Pass struct {
	cfg      Config
	repo     store.TransactionRepository
	guardian *budget.Guardian
	resolve  TierResolver
}

func New(cfg Config, repo store.TransactionRepository, guardian *budget.Guardian, resolve TierResolver) *Pass {
	return &Pass{cfg: cfg, repo: repo, guardian: guardian, resolve: resolve}
}

// Run executes spec.md §4.7's algorithm end to end, globally across
// every chain (spec.md §2: "C7 runs globally across all persisted
// transactions in canonical order").
func (p *Pass) Run(ctx context.Context) error {
	lastRefunded, ok, err := p.repo.MaxValidatedEpoch(ctx)
	if err != nil {
		return fmt.Errorf("max validated epoch: %w", err)
	}
	startEpoch := p.cfg.Genesis
	if ok {
		startEpoch = lastRefunded + 1
	}

	if err := p.guardian.LoadState(ctx, startEpoch); err != nil {
		return fmt.Errorf("load budget state: %w", err)
	}

	prevEpoch := startEpoch
	offset := 0
	pagesRead := 0
	statusCounts := map[model.TxStatus]int{}

	for {
		page, err := p.repo.PageFromEpoch(ctx, startEpoch, PageSize, offset)
		if err != nil {
			return fmt.Errorf("page from epoch %d offset %d: %w", startEpoch, offset, err)
		}
		pagesRead++

		var updates []store.TransactionUpdate
		for _, row := range page.Rows {
			if row.Epoch != prevEpoch {
				p.guardian.BeginEpoch(row.Epoch)
				prevEpoch = row.Epoch
			}

			update, err := p.classify(row)
			if err != nil {
				return fmt.Errorf("classify row %s: %w", row.Hash, err)
			}
			if update != nil {
				updates = append(updates, *update)
				statusCounts[update.Status]++
			}
		}

		if len(updates) > 0 {
			if err := p.repo.ApplyUpdates(ctx, updates); err != nil {
				return fmt.Errorf("apply updates: %w", err)
			}
		}

		if !page.HasMore {
			break
		}
		offset = page.NextOffset
	}

	idle, err := p.repo.CountIdle(ctx)
	if err != nil {
		return fmt.Errorf("count idle: %w", err)
	}
	if idle > 0 {
		return fmt.Errorf("revalidation invariant violated: %d rows remain IDLE", idle)
	}

	for status, count := range statusCounts {
		metrics.RevalidationRowsProcessed.WithLabelValues(string(status)).Add(float64(count))
	}
	metrics.RevalidationPagesRead.Add(float64(pagesRead))
	metrics.BudgetGlobalPSPRemaining.Set(mustFloat(p.guardian.RemainingGlobalPSP()))

	return nil
}

// classify implements spec.md §4.7 step 4. It returns nil when neither
// the status nor the amounts changed, so callers can skip a no-op
// update.
func (p *Pass) classify(row model.GasRefundTransaction) (*store.TransactionUpdate, error) {
	stake, err := decimal.NewFromString(row.TotalStakeAmountPSP)
	if err != nil {
		return nil, fmt.Errorf("parse stake: %w", err)
	}
	tierPercent, ok := p.resolve(stake)
	if !ok {
		return nil, fmt.Errorf("address %s has no tier despite a persisted row (stake=%s)", row.Address, stake)
	}

	precisionGlitch := row.Epoch == p.cfg.PrecisionGlitchEpoch
	res, err := refund.Rederive(row, tierPercent, precisionGlitch)
	if err != nil {
		return nil, fmt.Errorf("rederive: %w", err)
	}

	epochBudgetActive := row.Epoch >= p.cfg.EpochBudgetEpoch
	var rejectReason string
	switch {
	case p.guardian.IsGlobalSpent():
		rejectReason = "global"
	case p.guardian.HasAddressSpentYearly(row.Address):
		rejectReason = "yearly_address"
	case epochBudgetActive && p.guardian.HasAddressSpentEpoch(row.Address):
		rejectReason = "epoch_address"
	}
	rejected := rejectReason != ""

	pspUSD, err := decimal.NewFromString(row.PSPUSD)
	if err != nil {
		return nil, fmt.Errorf("parse pspUsd: %w", err)
	}

	var newStatus model.TxStatus
	effectiveUSD := res.RefundUSD
	effectivePSP := res.RefundPSP
	var cappedUSDStr, cappedPSPStr string
	amountsChanged := false

	if rejected {
		newStatus = model.StatusRejected
	} else {
		newStatus = model.StatusValidated
		caps, err := p.guardian.ApplyCaps(row.Address, row.Epoch, res.RefundUSD, res.RefundPSP, pspUSD)
		if err != nil {
			return nil, fmt.Errorf("apply caps: %w", err)
		}
		if caps.CappedUSD != nil {
			effectiveUSD = *caps.CappedUSD
			amountsChanged = true
		}
		if caps.CappedPSP != nil {
			effectivePSP = *caps.CappedPSP
			amountsChanged = true
		}

		p.guardian.Commit(row.Address, row.Epoch, effectiveUSD, effectivePSP)
	}

	cappedUSDStr = effectiveUSD.String()
	cappedPSPStr = effectivePSP.StringFixed(0)

	statusChanged := newStatus != row.Status
	if !statusChanged && !amountsChanged && row.Status != model.StatusIdle {
		return nil, nil
	}

	if newStatus == model.StatusRejected {
		metrics.BudgetCapTripped.WithLabelValues(rejectReason).Inc()
	} else if amountsChanged {
		metrics.BudgetCapTripped.WithLabelValues("capped").Inc()
	}

	return &store.TransactionUpdate{
		ID:                row.ID,
		Status:            newStatus,
		RefundedAmountPSP: cappedPSPStr,
		RefundedAmountUSD: cappedUSDStr,
	}, nil
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
