// Package store declares the persistence contracts the pipeline runs
// against; internal/store/postgres provides the concrete
// implementation.
package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// TxBeginner abstracts the ability to begin a database transaction, so
// callers that need cross-repository atomicity (C9's Distribution +
// Participation writes) can compose repositories without depending on
// *sql.DB directly.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TransactionPage is one page of a re-validation scan, ordered by
// (timestamp ASC, hash ASC) per spec.md §4.7 step 3.
type TransactionPage struct {
	Rows       []model.GasRefundTransaction
	NextOffset int
	HasMore    bool
}

// TransactionUpdate is a staged mutation to one persisted row, emitted
// by the re-validation pass when status or amounts changed.
type TransactionUpdate struct {
	ID                uuid.UUID
	Status            model.TxStatus
	RefundedAmountPSP string
	RefundedAmountUSD string
}

// TransactionRepository provides access to gas_refund_transaction rows.
type TransactionRepository interface {
	// InsertBatch persists a batch of IDLE-status rows staged by C6,
	// unique on (chainId, hash).
	InsertBatch(ctx context.Context, txns []model.GasRefundTransaction) error

	// LastProcessedTimestamp returns the latest swap timestamp already
	// persisted for (chain, epoch), so C6 can resume idempotently.
	LastProcessedTimestamp(ctx context.Context, chainID model.ChainID, epoch int64) (int64, bool, error)

	// MaxValidatedEpoch returns the highest epoch with status in
	// {VALIDATED, REJECTED} across all chains, used by C7 step 1 to
	// derive startEpoch. C7 runs globally (spec.md §2), so this carries
	// no chain predicate.
	MaxValidatedEpoch(ctx context.Context) (int64, bool, error)

	// PageFromEpoch pages through rows with epoch >= startEpoch across
	// every chain, ordered by (timestamp ASC, hash ASC), per spec.md
	// §4.7 step 3.
	PageFromEpoch(ctx context.Context, startEpoch int64, pageSize, offset int) (TransactionPage, error)

	// ApplyUpdates commits the re-validation pass's staged status and
	// amount changes in one transaction.
	ApplyUpdates(ctx context.Context, updates []TransactionUpdate) error

	// LoadValidatedTotals sums VALIDATED rows with epoch <
	// upToEpochExclusive across every chain, for the Budget Guardian's
	// global loadState (spec.md §3: BudgetState counters are global).
	LoadValidatedTotals(ctx context.Context, upToEpochExclusive int64) (ValidatedTotals, error)

	// CountIdle reports how many rows remain IDLE across every chain,
	// used to assert the §4.7 step 5 post-condition.
	CountIdle(ctx context.Context) (int, error)

	// ValidatedForEpoch returns every VALIDATED row for (chain, epoch),
	// the input to the Merkle Builder (C8).
	ValidatedForEpoch(ctx context.Context, chainID model.ChainID, epoch int64) ([]model.GasRefundTransaction, error)
}

// ValidatedTotals mirrors budget.ValidatedTotals; duplicated here (not
// imported) to keep store free of a dependency on the budget package,
// which itself depends on store via the TotalsLoader interface.
type ValidatedTotals struct {
	TotalPSPForYear    string
	YearlyUSDByAddress map[string]string
}

// ParticipationRepository provides access to gas_refund_participation
// rows.
type ParticipationRepository interface {
	UpsertBatch(ctx context.Context, tx *sql.Tx, rows []model.Participation) error
	MarkCompleted(ctx context.Context, tx *sql.Tx, chainID model.ChainID, epoch int64) error
}

// DistributionRepository provides access to gas_refund_distribution
// rows.
type DistributionRepository interface {
	Exists(ctx context.Context, chainID model.ChainID, epoch int64) (bool, error)
	Seal(ctx context.Context, tx *sql.Tx, d model.Distribution) error
	LastCompletedEpoch(ctx context.Context, chainID model.ChainID) (int64, bool, error)
}

// ReorgBlacklistRepository exposes the chain-specific set of reorg'd
// block hashes C3 must always exclude.
type ReorgBlacklistRepository interface {
	BlacklistedBlockHashes(ctx context.Context, chainID model.ChainID) (map[string]bool, error)
}
