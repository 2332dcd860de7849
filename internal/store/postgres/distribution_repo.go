package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

type DistributionRepo struct {
	db *DB
}

func NewDistributionRepo(db *DB) *DistributionRepo {
	return &DistributionRepo{db: db}
}

func (r *DistributionRepo) Exists(ctx context.Context, chainID model.ChainID, epoch int64) (bool, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM gas_refund_distribution WHERE chain_id = $1 AND epoch = $2)
	`, chainID, epoch).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check distribution exists: %w", err)
	}
	return exists, nil
}

// Seal writes the Merkle root for (chain, epoch), unique on
// (chain_id, epoch). Called inside the same transaction as the
// Participation upserts, so orchestrator failures never leave a
// Distribution without matching Participation rows (spec.md §4.9).
func (r *DistributionRepo) Seal(ctx context.Context, tx *sql.Tx, d model.Distribution) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gas_refund_distribution (chain_id, epoch, merkle_root, total_psp_amount_to_refund, is_completed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chain_id, epoch) DO UPDATE SET
			merkle_root = EXCLUDED.merkle_root,
			total_psp_amount_to_refund = EXCLUDED.total_psp_amount_to_refund,
			is_completed = EXCLUDED.is_completed
	`, d.ChainID, d.Epoch, d.MerkleRoot, d.TotalPSPAmountToRefund, d.IsCompleted); err != nil {
		return fmt.Errorf("seal distribution %s/%d: %w", d.ChainID, d.Epoch, err)
	}
	return nil
}

func (r *DistributionRepo) LastCompletedEpoch(ctx context.Context, chainID model.ChainID) (int64, bool, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var epoch sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(epoch) FROM gas_refund_distribution WHERE chain_id = $1 AND is_completed = true
	`, chainID).Scan(&epoch)
	if err != nil {
		return 0, false, fmt.Errorf("last completed epoch: %w", err)
	}
	if !epoch.Valid {
		return 0, false, nil
	}
	return epoch.Int64, true, nil
}

var _ store.DistributionRepository = (*DistributionRepo)(nil)
