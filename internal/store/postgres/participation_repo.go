package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

type ParticipationRepo struct {
	db *DB
}

func NewParticipationRepo(db *DB) *ParticipationRepo {
	return &ParticipationRepo{db: db}
}

// UpsertBatch writes the Merkle Builder's per-address aggregates,
// unique on (epoch, address, chain_id).
func (r *ParticipationRepo) UpsertBatch(ctx context.Context, tx *sql.Tx, rows []model.Participation) error {
	for _, p := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gas_refund_participation (chain_id, epoch, address, amount_psp, merkle_proofs, is_completed)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (epoch, address, chain_id) DO UPDATE SET
				amount_psp = EXCLUDED.amount_psp,
				merkle_proofs = EXCLUDED.merkle_proofs,
				is_completed = EXCLUDED.is_completed
		`, p.ChainID, p.Epoch, p.Address, p.AmountPSP, pq.Array(p.MerkleProofs), p.IsCompleted); err != nil {
			return fmt.Errorf("upsert participation %s/%d/%s: %w", p.ChainID, p.Epoch, p.Address, err)
		}
	}
	return nil
}

func (r *ParticipationRepo) MarkCompleted(ctx context.Context, tx *sql.Tx, chainID model.ChainID, epoch int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE gas_refund_participation SET is_completed = true
		WHERE chain_id = $1 AND epoch = $2
	`, chainID, epoch); err != nil {
		return fmt.Errorf("mark participation completed: %w", err)
	}
	return nil
}

var _ store.ParticipationRepository = (*ParticipationRepo)(nil)
