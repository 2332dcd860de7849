// Package orchestrator implements the epoch orchestrator (C9): one
// worker per supported chain drives the ingestion driver across that
// chain's unfinished epochs under a distributed lock; once every chain
// has finished its pass, the re-validation pass runs once, globally,
// across every chain's persisted rows, then the Merkle builder seals
// any epoch whose transactions are all VALIDATED or REJECTED. Per
// spec.md §4.9, a single chain's C6 failure must not cancel the
// others, and Distribution is written atomically with its
// Participation rows.
package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/alert"
	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/merkle"
	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
	"github.com/choppy227/paraswap-volume-tracker/internal/revalidation"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
	"github.com/choppy227/paraswap-volume-tracker/internal/store/redislock"
)

// Lock is the narrow surface Orchestrator needs from a held distributed
// lock, so tests can substitute a fake instead of a live Redis
// instance.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker acquires named per-chain locks. *redislock.Locker satisfies
// this via RedisLocker below.
type Locker interface {
	AcquireBlocking(ctx context.Context, name string, poll time.Duration) (Lock, error)
}

// RedisLocker adapts *redislock.Locker to the Locker interface; Go's
// stricter return-type matching means the concrete type can't satisfy
// Locker directly, since AcquireBlocking returns *redislock.Lock rather
// than the Lock interface.
type RedisLocker struct {
	Inner *redislock.Locker
}

func (r RedisLocker) AcquireBlocking(ctx context.Context, name string, poll time.Duration) (Lock, error) {
	return r.Inner.AcquireBlocking(ctx, name, poll)
}

// ChainDriver is the surface Orchestrator needs from C6, narrowed so
// tests can substitute a fake instead of wiring a full
// ingestion.Driver with live collaborators. *ingestion.Driver
// satisfies this directly.
type ChainDriver interface {
	Run(ctx context.Context, chainID model.ChainID, epoch int64, calcStart, calcEnd time.Time) error
}

// Config carries the epoch-time mapping and lock tuning the
// orchestrator needs.
type Config struct {
	Genesis          int64
	GenesisTimestamp time.Time
	LockTTL          time.Duration
	LockPollInterval time.Duration
	// RoundInterval is how long Run waits between orchestration rounds.
	RoundInterval time.Duration
}

// Orchestrator drives C6 → C7 → C8 across every supported chain.
type Orchestrator struct {
	cfg        Config
	chains     []model.ChainID
	locker     Locker
	drivers    map[model.ChainID]ChainDriver
	pass       *revalidation.Pass
	txRepo     store.TransactionRepository
	distRepo   store.DistributionRepository
	partRepo   store.ParticipationRepository
	txBeginner store.TxBeginner
	alerter    alert.Alerter
	logger     *slog.Logger
}

func New(
	cfg Config,
	chains []model.ChainID,
	locker Locker,
	drivers map[model.ChainID]ChainDriver,
	pass *revalidation.Pass,
	txRepo store.TransactionRepository,
	distRepo store.DistributionRepository,
	partRepo store.ParticipationRepository,
	txBeginner store.TxBeginner,
	alerter alert.Alerter,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.LockPollInterval <= 0 {
		cfg.LockPollInterval = 2 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.RoundInterval <= 0 {
		cfg.RoundInterval = 5 * time.Minute
	}
	return &Orchestrator{
		cfg: cfg, chains: chains, locker: locker, drivers: drivers, pass: pass,
		txRepo: txRepo, distRepo: distRepo, partRepo: partRepo, txBeginner: txBeginner,
		alerter: alerter, logger: logger.With("component", "orchestrator"),
	}
}

// chainRun records how far one chain's C6 pass got, so later phases
// know which epochs to re-validate and attempt to seal.
type chainRun struct {
	chainID    model.ChainID
	startEpoch int64
	upToEpoch  int64 // exclusive; the highest epoch this run attempted
	err        error
}

// Run drives orchestration rounds until ctx is cancelled, pausing
// RoundInterval after every round, whatever it found to ingest. A
// round-level error (currently only a C7
// failure) is logged and alerted, then the loop waits out the interval
// and tries again rather than exiting the process.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.runRound(ctx); err != nil {
			o.logger.Error("orchestration round failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.RoundInterval):
		}
	}
}

// runRound executes one full orchestration round: C6 in parallel across
// chains, then C7 once globally across every chain's rows, then C8 per
// chain/epoch. A per-chain C6 failure is alerted and does not stop the
// other chains; a C7 failure aborts the round before any Merkle sealing
// (spec.md §7: "the whole run aborts before Merkle sealing").
func (o *Orchestrator) runRound(ctx context.Context) error {
	currentEpoch := model.Current(o.cfg.GenesisTimestamp, o.cfg.Genesis, time.Now())

	runs := o.runIngestionPhase(ctx, currentEpoch)

	for _, run := range runs {
		if run.err != nil {
			metrics.OrchestratorChainErrors.WithLabelValues(run.chainID.String()).Inc()
			o.alertf(ctx, alert.TypeChainRunFailed, run.chainID, 0, "chain run failed", run.err)
		}
	}

	// C7 runs once, globally across every chain's persisted rows
	// (spec.md §2), only after every chain's C6 pass has settled.
	if err := o.pass.Run(ctx); err != nil {
		o.logger.Error("re-validation pass failed", "error", err)
		o.alertf(ctx, alert.TypeIdleRowsSurvived, 0, 0, "re-validation pass failed", err)
		return fmt.Errorf("re-validation pass: %w", err)
	}

	for _, run := range runs {
		for epoch := run.startEpoch; epoch < run.upToEpoch; epoch++ {
			if err := o.sealEpoch(ctx, run.chainID, epoch); err != nil {
				o.logger.Error("seal epoch failed", "chain", run.chainID.String(), "epoch", epoch, "error", err)
				o.alertf(ctx, alert.TypeChainRunFailed, run.chainID, epoch, "merkle seal failed", err)
			}
		}
	}

	return nil
}

// runIngestionPhase runs C6 for every chain in parallel, each under its
// own distributed lock, and settles all of them regardless of
// individual failures (spec.md §4.9: a per-chain failure must not
// cancel the others).
func (o *Orchestrator) runIngestionPhase(ctx context.Context, currentEpoch int64) []chainRun {
	var wg sync.WaitGroup
	runs := make([]chainRun, len(o.chains))

	for i, chainID := range o.chains {
		i, chainID := i, chainID
		wg.Add(1)
		go func() {
			defer wg.Done()
			runs[i] = o.runChain(ctx, chainID, currentEpoch)
		}()
	}
	wg.Wait()

	return runs
}

func (o *Orchestrator) runChain(ctx context.Context, chainID model.ChainID, currentEpoch int64) chainRun {
	lockName := fmt.Sprintf("gas-refund:%d", int64(chainID))

	t0 := time.Now()
	lock, err := o.locker.AcquireBlocking(ctx, lockName, o.cfg.LockPollInterval)
	metrics.OrchestratorLockWaitSeconds.WithLabelValues(chainID.String()).Observe(time.Since(t0).Seconds())
	if err != nil {
		return chainRun{chainID: chainID, err: fmt.Errorf("acquire lock %s: %w", lockName, err)}
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			o.logger.Warn("release lock failed", "chain", chainID.String(), "error", err)
		}
	}()

	t0 = time.Now()
	defer func() {
		metrics.OrchestratorChainRunDuration.WithLabelValues(chainID.String()).Observe(time.Since(t0).Seconds())
	}()

	lastCompleted, ok, err := o.distRepo.LastCompletedEpoch(ctx, chainID)
	if err != nil {
		return chainRun{chainID: chainID, err: fmt.Errorf("last completed epoch: %w", err)}
	}
	startEpoch := o.cfg.Genesis
	if ok {
		startEpoch = lastCompleted + 1
	}

	driver, ok := o.drivers[chainID]
	if !ok {
		return chainRun{chainID: chainID, startEpoch: startEpoch, upToEpoch: startEpoch, err: fmt.Errorf("no driver configured for chain %s", chainID)}
	}

	epoch := startEpoch
	for ; epoch < currentEpoch; epoch++ {
		exists, err := o.distRepo.Exists(ctx, chainID, epoch)
		if err != nil {
			return chainRun{chainID: chainID, startEpoch: startEpoch, upToEpoch: epoch, err: fmt.Errorf("check distribution exists epoch %d: %w", epoch, err)}
		}
		if exists {
			continue
		}

		calcStart, calcEnd := model.Bounds(o.cfg.GenesisTimestamp, o.cfg.Genesis, epoch)
		if err := driver.Run(ctx, chainID, epoch, calcStart, calcEnd); err != nil {
			return chainRun{chainID: chainID, startEpoch: startEpoch, upToEpoch: epoch, err: fmt.Errorf("ingest epoch %d: %w", epoch, err)}
		}
	}

	return chainRun{chainID: chainID, startEpoch: startEpoch, upToEpoch: epoch}
}

// sealEpoch implements C8 plus the atomic Distribution+Participation
// write of spec.md §4.8 step 4. Epochs with no VALIDATED rows (either
// nothing qualified, or everything was REJECTED) are skipped, not
// treated as an error.
func (o *Orchestrator) sealEpoch(ctx context.Context, chainID model.ChainID, epoch int64) error {
	exists, err := o.distRepo.Exists(ctx, chainID, epoch)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return nil
	}

	validated, err := o.txRepo.ValidatedForEpoch(ctx, chainID, epoch)
	if err != nil {
		return fmt.Errorf("load validated rows: %w", err)
	}
	if len(validated) == 0 {
		return nil
	}

	sealed, err := merkle.BuildEpoch(chainID, epoch, validated)
	if err != nil {
		return fmt.Errorf("build merkle tree: %w", err)
	}

	tx, err := o.txBeginner.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	dist := model.Distribution{
		ChainID:                chainID,
		Epoch:                  epoch,
		MerkleRoot:             sealed.Root.Hex(),
		TotalPSPAmountToRefund: sealed.TotalPSPAmountToRefund,
		IsCompleted:            true,
	}
	if err := o.distRepo.Seal(ctx, tx, dist); err != nil {
		return fmt.Errorf("seal distribution: %w", err)
	}
	if err := o.partRepo.UpsertBatch(ctx, tx, sealed.Participations); err != nil {
		return fmt.Errorf("upsert participations: %w", err)
	}
	if err := o.partRepo.MarkCompleted(ctx, tx, chainID, epoch); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	metrics.MerkleRootsSealed.WithLabelValues(chainID.String()).Inc()
	metrics.MerkleLeavesPerRoot.WithLabelValues(chainID.String()).Observe(float64(len(sealed.Participations)))
	o.alertf(ctx, alert.TypeRootSealed, chainID, epoch, "root sealed", nil)

	return nil
}

func (o *Orchestrator) alertf(ctx context.Context, typ alert.Type, chainID model.ChainID, epoch int64, msg string, err error) {
	if o.alerter == nil {
		return
	}
	fields := map[string]string{}
	if err != nil {
		fields["error"] = err.Error()
	}
	sendErr := o.alerter.Send(ctx, alert.Alert{
		Type: typ, Chain: chainID.String(), Epoch: epoch,
		Title: msg, Message: msg, Fields: fields,
	})
	if sendErr != nil {
		o.logger.Warn("failed to send alert", "type", typ, "error", sendErr)
	}
}
