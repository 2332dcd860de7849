package model

import (
	"math/big"
	"time"
)

// Swap is one successful aggregator swap as reported by the swaps
// subgraph, before qualification.
type Swap struct {
	TxHash      string
	BlockHash   string
	TxOrigin    string
	Initiator   string
	TxGasPrice  *big.Int // wei
	BlockNumber int64
	Timestamp   time.Time
	ChainID     ChainID
}

// GasUsed pairs a swap with its gasUsed value fetched from the block
// explorer, since the subgraph's own gasUsed field is unreliable
// (spec.md §4.4).
type GasUsed struct {
	TxHash string
	Amount *big.Int
}
