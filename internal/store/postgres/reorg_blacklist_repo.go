package postgres

import (
	"context"
	"fmt"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/store"
)

type ReorgBlacklistRepo struct {
	db *DB
}

func NewReorgBlacklistRepo(db *DB) *ReorgBlacklistRepo {
	return &ReorgBlacklistRepo{db: db}
}

// BlacklistedBlockHashes returns every block hash a reorg detector has
// flagged for chainID, consulted unconditionally by C3 (spec.md §4.3
// "Always: drop swaps whose blockHash appears in a chain-specific reorg
// blacklist").
func (r *ReorgBlacklistRepo) BlacklistedBlockHashes(ctx context.Context, chainID model.ChainID) (map[string]bool, error) {
	ctx, cancel := WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT block_hash FROM gas_refund_reorg_blacklist WHERE chain_id = $1
	`, chainID)
	if err != nil {
		return nil, fmt.Errorf("blacklisted block hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan block hash: %w", err)
		}
		out[hash] = true
	}
	return out, rows.Err()
}

var _ store.ReorgBlacklistRepository = (*ReorgBlacklistRepo)(nil)
