package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

type TransactionRepo struct {
	db *DB
}

func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// InsertBatch persists a batch of IDLE-status rows staged by C6, unique
// on (chain_id, hash). Runs one INSERT per row inside a single
// transaction; batches are bounded by the ingestion slice width so this
// stays well within statement size limits.
func (r *TransactionRepo) InsertBatch(ctx context.Context, txns []model.GasRefundTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	ctx, cancel := WithTimeout(ctx, LongQueryTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range txns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gas_refund_transaction (
				id, chain_id, epoch, hash, address, timestamp, block_number,
				gas_used, gas_used_chain_currency, psp_chain_currency, psp_usd,
				chain_currency_usd, total_stake_amount_psp,
				refunded_amount_psp, refunded_amount_usd, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (chain_id, hash) DO NOTHING
		`, t.ID, t.ChainID, t.Epoch, t.Hash, t.Address, t.Timestamp, t.BlockNumber,
			t.GasUsed, t.GasUsedChainCurrency, t.PSPChainCurrency, t.PSPUSD,
			t.ChainCurrencyUSD, t.TotalStakeAmountPSP,
			t.RefundedAmountPSP, t.RefundedAmountUSD, t.Status,
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.Hash, err)
		}
	}

	return tx.Commit()
}

func (r *TransactionRepo) LastProcessedTimestamp(ctx context.Context, chainID model.ChainID, epoch int64) (int64, bool, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var ts sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT EXTRACT(EPOCH FROM MAX(timestamp))::bigint
		FROM gas_refund_transaction
		WHERE chain_id = $1 AND epoch = $2
	`, chainID, epoch).Scan(&ts)
	if err != nil {
		return 0, false, fmt.Errorf("last processed timestamp: %w", err)
	}
	if !ts.Valid {
		return 0, false, nil
	}
	return ts.Int64, true, nil
}

func (r *TransactionRepo) MaxValidatedEpoch(ctx context.Context) (int64, bool, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var epoch sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(epoch) FROM gas_refund_transaction
		WHERE status IN ($1, $2)
	`, model.StatusValidated, model.StatusRejected).Scan(&epoch)
	if err != nil {
		return 0, false, fmt.Errorf("max validated epoch: %w", err)
	}
	if !epoch.Valid {
		return 0, false, nil
	}
	return epoch.Int64, true, nil
}

// PageFromEpoch pages through rows ordered by (timestamp ASC, hash ASC)
// per spec.md §4.7 step 3, the deterministic re-validation order. C7
// runs globally, so this carries no chain predicate.
func (r *TransactionRepo) PageFromEpoch(ctx context.Context, startEpoch int64, pageSize, offset int) (store.TransactionPage, error) {
	ctx, cancel := WithTimeout(ctx, LongQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chain_id, epoch, hash, address, timestamp, block_number,
			gas_used, gas_used_chain_currency, psp_chain_currency, psp_usd,
			chain_currency_usd, total_stake_amount_psp,
			refunded_amount_psp, refunded_amount_usd, status
		FROM gas_refund_transaction
		WHERE epoch >= $1
		ORDER BY timestamp ASC, hash ASC
		LIMIT $2 OFFSET $3
	`, startEpoch, pageSize+1, offset)
	if err != nil {
		return store.TransactionPage{}, fmt.Errorf("page from epoch: %w", err)
	}
	defer rows.Close()

	var out []model.GasRefundTransaction
	for rows.Next() {
		var t model.GasRefundTransaction
		if err := rows.Scan(&t.ID, &t.ChainID, &t.Epoch, &t.Hash, &t.Address, &t.Timestamp, &t.BlockNumber,
			&t.GasUsed, &t.GasUsedChainCurrency, &t.PSPChainCurrency, &t.PSPUSD,
			&t.ChainCurrencyUSD, &t.TotalStakeAmountPSP,
			&t.RefundedAmountPSP, &t.RefundedAmountUSD, &t.Status); err != nil {
			return store.TransactionPage{}, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return store.TransactionPage{}, fmt.Errorf("iterate rows: %w", err)
	}

	hasMore := len(out) > pageSize
	if hasMore {
		out = out[:pageSize]
	}

	return store.TransactionPage{Rows: out, NextOffset: offset + len(out), HasMore: hasMore}, nil
}

func (r *TransactionRepo) ApplyUpdates(ctx context.Context, updates []store.TransactionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := WithTimeout(ctx, LongQueryTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE gas_refund_transaction
			SET status = $1, refunded_amount_psp = $2, refunded_amount_usd = $3
			WHERE id = $4
		`, u.Status, u.RefundedAmountPSP, u.RefundedAmountUSD, u.ID); err != nil {
			return fmt.Errorf("apply update %s: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// LoadValidatedTotals sums VALIDATED rows across every chain, since the
// yearly/global budget counters spec.md §3 describes are not
// chain-scoped.
func (r *TransactionRepo) LoadValidatedTotals(ctx context.Context, upToEpochExclusive int64) (store.ValidatedTotals, error) {
	ctx, cancel := WithTimeout(ctx, LongQueryTimeout)
	defer cancel()

	var totalPSP sql.NullString
	if err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(refunded_amount_psp::numeric), 0)::text
		FROM gas_refund_transaction
		WHERE epoch < $1 AND status = $2
	`, upToEpochExclusive, model.StatusValidated).Scan(&totalPSP); err != nil {
		return store.ValidatedTotals{}, fmt.Errorf("sum validated psp: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT address, SUM(refunded_amount_usd::numeric)::text
		FROM gas_refund_transaction
		WHERE epoch < $1 AND status = $2
		GROUP BY address
	`, upToEpochExclusive, model.StatusValidated)
	if err != nil {
		return store.ValidatedTotals{}, fmt.Errorf("sum validated usd by address: %w", err)
	}
	defer rows.Close()

	byAddr := make(map[string]string)
	for rows.Next() {
		var addr, usd string
		if err := rows.Scan(&addr, &usd); err != nil {
			return store.ValidatedTotals{}, fmt.Errorf("scan yearly usd row: %w", err)
		}
		byAddr[addr] = usd
	}
	if err := rows.Err(); err != nil {
		return store.ValidatedTotals{}, fmt.Errorf("iterate yearly usd rows: %w", err)
	}

	total := "0"
	if totalPSP.Valid {
		total = totalPSP.String
	}
	return store.ValidatedTotals{TotalPSPForYear: total, YearlyUSDByAddress: byAddr}, nil
}

func (r *TransactionRepo) CountIdle(ctx context.Context) (int, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM gas_refund_transaction WHERE status = $1
	`, model.StatusIdle).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count idle: %w", err)
	}
	return count, nil
}

func (r *TransactionRepo) ValidatedForEpoch(ctx context.Context, chainID model.ChainID, epoch int64) ([]model.GasRefundTransaction, error) {
	ctx, cancel := WithTimeout(ctx, LongQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chain_id, epoch, hash, address, timestamp, block_number,
			gas_used, gas_used_chain_currency, psp_chain_currency, psp_usd,
			chain_currency_usd, total_stake_amount_psp,
			refunded_amount_psp, refunded_amount_usd, status
		FROM gas_refund_transaction
		WHERE chain_id = $1 AND epoch = $2 AND status = $3
		ORDER BY address
	`, chainID, epoch, model.StatusValidated)
	if err != nil {
		return nil, fmt.Errorf("validated for epoch: %w", err)
	}
	defer rows.Close()

	var out []model.GasRefundTransaction
	for rows.Next() {
		var t model.GasRefundTransaction
		if err := rows.Scan(&t.ID, &t.ChainID, &t.Epoch, &t.Hash, &t.Address, &t.Timestamp, &t.BlockNumber,
			&t.GasUsed, &t.GasUsedChainCurrency, &t.PSPChainCurrency, &t.PSPUSD,
			&t.ChainCurrencyUSD, &t.TotalStakeAmountPSP,
			&t.RefundedAmountPSP, &t.RefundedAmountUSD, &t.Status); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ store.TransactionRepository = (*TransactionRepo)(nil)
