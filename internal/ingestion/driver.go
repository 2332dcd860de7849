// Package ingestion implements the time-sliced scan driver (C6): for a
// given (chain, epoch) it fetches raw swaps in fixed-width windows,
// qualifies them, computes refunds and stages IDLE transaction rows.
// Re-classification is deferred entirely to the re-validation pass.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/choppy227/paraswap-volume-tracker/internal/budget"
	"github.com/choppy227/paraswap-volume-tracker/internal/chainclient"
	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
	"github.com/choppy227/paraswap-volume-tracker/internal/qualifier"
	"github.com/choppy227/paraswap-volume-tracker/internal/refund"
	"github.com/choppy227/paraswap-volume-tracker/internal/stake"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
	"github.com/choppy227/paraswap-volume-tracker/internal/tier"
)

// Slice is the fixed scan window width spec.md §4.6 mandates.
const Slice = 6 * time.Hour

// Config carries the epoch gates and worker sizing the driver needs.
type Config struct {
	TxOriginCheckEpoch   int64
	DedupEpoch           int64
	ContractTxsEpoch     int64
	PrecisionGlitchEpoch int64
	GasLookupWorkers     int
}

// Driver runs C6 for one (chain, epoch) window at a time.
type Driver struct {
	cfg       Config
	subgraph  chainclient.SubgraphClient
	explorer  chainclient.BlockExplorerClient
	blockInfo chainclient.BlockInfoClient
	prices    chainclient.PriceOracleClient
	blacklist store.ReorgBlacklistRepository
	repo      store.TransactionRepository
	stakeAgg  *stake.PreloadingAggregator
	guardian  *budget.Guardian
	logger    *slog.Logger
}

func New(
	cfg Config,
	subgraph chainclient.SubgraphClient,
	explorer chainclient.BlockExplorerClient,
	blockInfo chainclient.BlockInfoClient,
	prices chainclient.PriceOracleClient,
	blacklist store.ReorgBlacklistRepository,
	repo store.TransactionRepository,
	stakeAgg *stake.PreloadingAggregator,
	guardian *budget.Guardian,
	logger *slog.Logger,
) *Driver {
	if cfg.GasLookupWorkers <= 0 {
		cfg.GasLookupWorkers = 8
	}
	return &Driver{
		cfg: cfg, subgraph: subgraph, explorer: explorer, blockInfo: blockInfo, prices: prices,
		blacklist: blacklist, repo: repo, stakeAgg: stakeAgg, guardian: guardian,
		logger: logger.With("component", "ingestion"),
	}
}

// Run scans [calcStart, calcEnd) for chainID/epoch, resuming from the
// last processed timestamp, per spec.md §4.6.
func (d *Driver) Run(ctx context.Context, chainID model.ChainID, epoch int64, calcStart, calcEnd time.Time) error {
	start := calcStart
	if last, ok, err := d.repo.LastProcessedTimestamp(ctx, chainID, epoch); err != nil {
		return fmt.Errorf("last processed timestamp: %w", err)
	} else if ok {
		resume := time.Unix(last+1, 0).UTC()
		if resume.After(start) {
			start = resume
		}
	}

	blacklist, err := d.blacklist.BlacklistedBlockHashes(ctx, chainID)
	if err != nil {
		return fmt.Errorf("load reorg blacklist: %w", err)
	}

	q := qualifier.New(qualifier.Config{
		TxOriginCheckEpoch: d.cfg.TxOriginCheckEpoch,
		DedupEpoch:         d.cfg.DedupEpoch,
		ContractTxsEpoch:   d.cfg.ContractTxsEpoch,
	}, d.stakeAgg)

	for sliceStart := start; sliceStart.Before(calcEnd); sliceStart = sliceStart.Add(Slice) {
		if d.guardian.IsGlobalSpent() {
			d.logger.Warn("aborting chain loop: global yearly PSP budget exhausted", "chain", chainID.String())
			return nil
		}

		sliceEnd := sliceStart.Add(Slice)
		if sliceEnd.After(calcEnd) {
			sliceEnd = calcEnd
		}

		t0 := time.Now()
		batch, err := d.processSlice(ctx, chainID, epoch, sliceStart, sliceEnd, blacklist, q)
		metrics.IngestionSliceDuration.WithLabelValues(chainID.String()).Observe(time.Since(t0).Seconds())
		if err != nil {
			metrics.IngestionErrors.WithLabelValues(chainID.String()).Inc()
			return fmt.Errorf("process slice [%s,%s): %w", sliceStart, sliceEnd, err)
		}

		if len(batch) > 0 {
			if err := d.repo.InsertBatch(ctx, batch); err != nil {
				return fmt.Errorf("insert batch for slice [%s,%s): %w", sliceStart, sliceEnd, err)
			}
			metrics.IngestionTransactionsStaged.WithLabelValues(chainID.String()).Add(float64(len(batch)))
		}
		metrics.IngestionSlicesProcessed.WithLabelValues(chainID.String()).Inc()
	}

	return nil
}

func (d *Driver) processSlice(
	ctx context.Context,
	chainID model.ChainID,
	epoch int64,
	sliceStart, sliceEnd time.Time,
	blacklist map[string]bool,
	q *qualifier.Qualifier,
) ([]model.GasRefundTransaction, error) {
	rawSwaps, err := d.fetchSwapsByTime(ctx, chainID, sliceStart, sliceEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch swaps: %w", err)
	}
	metrics.IngestionSwapsFetched.WithLabelValues(chainID.String()).Add(float64(len(rawSwaps)))

	// Preload every txOrigin/timestamp point this slice will query before
	// qualification touches any of them, so stake.Source.Balance never
	// itself issues network I/O (spec.md §4.2).
	stakePoints := make([]stake.BalanceRequest, len(rawSwaps))
	for i, s := range rawSwaps {
		stakePoints[i] = stake.BalanceRequest{Address: s.TxOrigin, Timestamp: s.Timestamp}
	}
	if err := d.stakeAgg.LoadRange(ctx, stakePoints); err != nil {
		return nil, fmt.Errorf("preload stake balances for slice [%s,%s): %w", sliceStart, sliceEnd, err)
	}

	swaps := make([]model.Swap, 0, len(rawSwaps))
	for _, s := range rawSwaps {
		swaps = append(swaps, model.Swap{
			TxHash: s.TxHash, BlockHash: s.BlockHash, TxOrigin: s.TxOrigin,
			Initiator: s.Initiator, TxGasPrice: s.TxGasPrice, BlockNumber: s.BlockNumber,
			Timestamp: s.Timestamp, ChainID: chainID,
		})
	}

	qualified, err := q.Qualify(ctx, epoch, blacklist, swaps)
	if err != nil {
		return nil, fmt.Errorf("qualify: %w", err)
	}
	metrics.IngestionSwapsQualified.WithLabelValues(chainID.String()).Add(float64(len(qualified)))
	if len(qualified) == 0 {
		return nil, nil
	}

	type enriched struct {
		swap    model.Swap
		gasUsed *big.Int
	}
	results := make([]enriched, len(qualified))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.GasLookupWorkers)
	for i, swap := range qualified {
		i, swap := i, swap
		g.Go(func() error {
			gasUsed, err := d.explorer.TransactionGasUsed(gctx, chainID, swap.TxHash)
			if err != nil {
				return fmt.Errorf("gas used for %s: %w", swap.TxHash, err)
			}
			results[i] = enriched{swap: swap, gasUsed: gasUsed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make([]model.GasRefundTransaction, 0, len(results))
	for _, r := range results {
		price, err := d.resolvePrice(ctx, chainID, r.swap.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("resolve price for %s: %w", r.swap.TxHash, err)
		}

		stakeAmount, err := d.stakeAgg.Balance(ctx, r.swap.TxOrigin, r.swap.Timestamp, epoch)
		if err != nil {
			return nil, fmt.Errorf("stake balance for %s: %w", r.swap.TxOrigin, err)
		}
		tierPercent, ok := tier.Resolve(stakeAmount)
		if !ok {
			return nil, fmt.Errorf("swap %s survived qualification but has no tier (stake=%s)", r.swap.TxHash, stakeAmount)
		}

		precisionGlitch := epoch == d.cfg.PrecisionGlitchEpoch
		row := refund.StageTransaction(r.swap, r.gasUsed, price, stakeAmount, tierPercent, precisionGlitch, epoch)
		batch = append(batch, row)
	}

	return batch, nil
}

// fetchSwapsByTime converts [from,to) to a block range via the
// block-info collaborator before querying the subgraph, since the
// subgraph itself is indexed by block number (spec.md §6).
func (d *Driver) fetchSwapsByTime(ctx context.Context, chainID model.ChainID, from, to time.Time) ([]chainclient.RawSwap, error) {
	fromBlock, err := d.blockInfo.BlockAfterTimestamp(ctx, chainID, from)
	if err != nil {
		return nil, fmt.Errorf("resolve fromBlock: %w", err)
	}
	toBlock, err := d.blockInfo.BlockAfterTimestamp(ctx, chainID, to)
	if err != nil {
		return nil, fmt.Errorf("resolve toBlock: %w", err)
	}
	return d.subgraph.SwapsInRange(ctx, chainID, fromBlock, toBlock-1)
}

func (d *Driver) resolvePrice(ctx context.Context, chainID model.ChainID, ts time.Time) (model.PricePoint, error) {
	dayStart := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	points, err := d.prices.DailyRates(ctx, chainID, dayStart, dayEnd)
	if err != nil {
		return model.PricePoint{}, err
	}

	var best *model.PricePoint
	for i := range points {
		p := points[i]
		if p.Timestamp.After(ts) || !p.SameUTCDay(ts) {
			continue
		}
		if best == nil || p.Timestamp.After(best.Timestamp) {
			best = &p
		}
	}
	if best == nil {
		return model.PricePoint{}, fmt.Errorf("missing price point for chain %s at %s", chainID, ts)
	}
	return *best, nil
}
