package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// RawSwap is the shape the subgraph returns for a single swap event,
// before qualification.
type RawSwap struct {
	TxHash      string
	BlockNumber int64
	BlockHash   string
	Timestamp   time.Time
	Initiator   string
	TxOrigin    string
	TxGasPrice  *big.Int
	Contract    string
}

// SubgraphClient fetches raw swap events for one chain in a block
// range. Concrete implementations poll the deployed subgraph named in
// spec.md §6; the core only depends on this contract.
type SubgraphClient interface {
	SwapsInRange(ctx context.Context, chainID model.ChainID, fromBlock, toBlock int64) ([]RawSwap, error)
}

// BlockExplorerClient resolves the gas actually spent by a mined
// transaction. The subgraph's own gasUsed field is unreliable
// (spec.md §4.4), so the core always sources it here; txGasPrice comes
// from the swap itself.
type BlockExplorerClient interface {
	TransactionGasUsed(ctx context.Context, chainID model.ChainID, txHash string) (gasUsed *big.Int, err error)
}

// BlockInfoClient maps a timestamp to the first block mined at or after
// it, used to bound ingestion slices.
type BlockInfoClient interface {
	BlockAfterTimestamp(ctx context.Context, chainID model.ChainID, ts time.Time) (int64, error)
}

// PriceOracleClient serves the daily PSP/native exchange rate points
// spec.md §6 describes. Callers pick "the most recent point sharing the
// query timestamp's UTC day" via model.PricePoint.SameUTCDay.
type PriceOracleClient interface {
	DailyRates(ctx context.Context, chainID model.ChainID, from, to time.Time) ([]model.PricePoint, error)
}

// StakeBalanceRequest names one address/timestamp point in a batch
// preload call.
type StakeBalanceRequest struct {
	Address   string
	Timestamp time.Time
}

// StakeBalanceKey is the map key a StakeSourceClient uses to return each
// requested point's balance, so callers can look up a request's result
// without relying on response ordering.
func StakeBalanceKey(address string, ts time.Time) string {
	return fmt.Sprintf("%s:%d", address, ts.Unix())
}

// StakeSourceClient exposes staked PSP balances as of a timestamp,
// backing internal/stake.Source for either leg of the aggregate (one
// client for SPSP, one for the safety module). Balances are fetched in a single batch call per requested
// preload window so that internal/stake.Source.Balance never itself
// issues network I/O, per spec.md §4.2.
type StakeSourceClient interface {
	BatchBalanceAt(ctx context.Context, requests []StakeBalanceRequest) (map[string]string, error)
}
