package model

import (
	"time"

	"github.com/google/uuid"
)

// TxStatus is the lifecycle state of a persisted GasRefundTransaction.
type TxStatus string

const (
	StatusIdle      TxStatus = "IDLE"
	StatusValidated TxStatus = "VALIDATED"
	StatusRejected  TxStatus = "REJECTED"
)

// GasRefundTransaction is the persisted per-swap refund record described
// in spec.md §3. Monetary fields are stored as decimal strings: PSP
// amounts are integer strings (decimals truncated), USD amounts keep
// full precision.
type GasRefundTransaction struct {
	ID      uuid.UUID
	ChainID ChainID
	Epoch   int64
	Hash    string
	Address string

	Timestamp   time.Time
	BlockNumber int64

	GasUsed               string // integer string, wei-denominated gas units
	GasUsedChainCurrency  string // integer string, wei
	PSPChainCurrency      string // decimal string, PSP per unit of native currency
	PSPUSD                string // decimal string
	ChainCurrencyUSD      string // decimal string
	TotalStakeAmountPSP   string // decimal string, staked PSP at swap time

	RefundedAmountPSP string // integer string (truncated)
	RefundedAmountUSD string // full-precision decimal string

	Status TxStatus
}
