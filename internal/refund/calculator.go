// Package refund computes the per-transaction PSP/USD entitlement for a
// qualified swap (C4), and re-derives the same formula during
// re-validation (§4.7) so both call sites share one source of truth.
package refund

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

// weiScale is 10^18, used to descale chain-currency and PSP amounts
// that are stored wei-denominated back to human units.
var weiScale = decimal.New(1, 18)

// Inputs bundles everything the formula in spec.md §4.4 needs, whether
// computed fresh at ingestion time or re-derived from a persisted row
// at re-validation time.
type Inputs struct {
	GasUsed          *big.Int // wei
	TxGasPrice       *big.Int // wei
	ChainPriceUSD    decimal.Decimal
	PSPPerNativeRate decimal.Decimal
	PSPPriceUSD      decimal.Decimal
	TierPercent      decimal.Decimal
	// PrecisionGlitch, if true, floors refundPSP_raw before refundUSD is
	// derived from it, preserving legacy behavior for one specific
	// epoch (spec.md §4.4, §8 S5).
	PrecisionGlitch bool
}

// Result is the derived, not-yet-capped refund for one transaction.
type Result struct {
	GasUsedChainCurrency decimal.Decimal // wei, integer
	GasUsedUSD           decimal.Decimal
	GasFeePSP            decimal.Decimal
	RefundPSPRaw         decimal.Decimal
	RefundUSD            decimal.Decimal
	RefundPSP            decimal.Decimal // floor(RefundPSPRaw), integer
}

// Compute applies spec.md §4.4's formula chain, in arbitrary-precision
// decimal throughout.
func Compute(in Inputs) Result {
	gasUsed := decimal.NewFromBigInt(in.GasUsed, 0)
	gasPrice := decimal.NewFromBigInt(in.TxGasPrice, 0)

	gasUsedChainCurrency := gasUsed.Mul(gasPrice)
	gasUsedUSD := gasUsedChainCurrency.Mul(in.ChainPriceUSD).Div(weiScale)
	gasFeePSP := gasUsedChainCurrency.Div(in.PSPPerNativeRate)

	refundPSPRaw := gasFeePSP.Mul(in.TierPercent)
	if in.PrecisionGlitch {
		refundPSPRaw = refundPSPRaw.Floor()
	}

	refundUSD := refundPSPRaw.Mul(in.PSPPriceUSD).Div(weiScale)
	refundPSP := refundPSPRaw.Floor()

	return Result{
		GasUsedChainCurrency: gasUsedChainCurrency,
		GasUsedUSD:           gasUsedUSD,
		GasFeePSP:            gasFeePSP,
		RefundPSPRaw:         refundPSPRaw,
		RefundUSD:            refundUSD,
		RefundPSP:            refundPSP,
	}
}

// StageTransaction builds the IDLE-status row C6 persists for a
// qualifying swap. Capping is not applied here — the in-memory
// optimistic budget update happens at ingestion time via the budget
// package, but the durable status transition (IDLE -> VALIDATED |
// REJECTED) and the final capped amounts are only ever committed by
// the re-validation pass (spec.md §3 Lifecycle, §4.6).
func StageTransaction(swap model.Swap, gasUsed *big.Int, price model.PricePoint, stakeAtSwap decimal.Decimal, tierPercent decimal.Decimal, precisionGlitch bool, epoch int64) model.GasRefundTransaction {
	res := Compute(Inputs{
		GasUsed:          gasUsed,
		TxGasPrice:       swap.TxGasPrice,
		ChainPriceUSD:    price.ChainPriceUSD,
		PSPPerNativeRate: price.PSPPerNativeRate,
		PSPPriceUSD:      price.PSPPriceUSD,
		TierPercent:      tierPercent,
		PrecisionGlitch:  precisionGlitch,
	})

	return model.GasRefundTransaction{
		ID:                   uuid.New(),
		ChainID:              swap.ChainID,
		Epoch:                epoch,
		Hash:                 swap.TxHash,
		Address:              swap.TxOrigin,
		Timestamp:            swap.Timestamp,
		BlockNumber:          swap.BlockNumber,
		GasUsed:              gasUsed.String(),
		GasUsedChainCurrency: res.GasUsedChainCurrency.StringFixed(0),
		PSPChainCurrency:     price.PSPPerNativeRate.String(),
		PSPUSD:               price.PSPPriceUSD.String(),
		ChainCurrencyUSD:     price.ChainPriceUSD.String(),
		TotalStakeAmountPSP:  stakeAtSwap.String(),
		RefundedAmountPSP:    res.RefundPSP.StringFixed(0),
		RefundedAmountUSD:    res.RefundUSD.String(),
		Status:               model.StatusIdle,
	}
}

// Rederive recomputes the formula chain from a persisted row's stored
// fields, exactly as re-validation must (spec.md §4.7 step 4): "using
// the same formula as §4.4 (including the precision-glitch carve-out)".
func Rederive(row model.GasRefundTransaction, tierPercent decimal.Decimal, precisionGlitch bool) (Result, error) {
	gasUsedChainCurrency, err := decimal.NewFromString(row.GasUsedChainCurrency)
	if err != nil {
		return Result{}, err
	}
	pspPerNative, err := decimal.NewFromString(row.PSPChainCurrency)
	if err != nil {
		return Result{}, err
	}
	pspUSD, err := decimal.NewFromString(row.PSPUSD)
	if err != nil {
		return Result{}, err
	}

	gasFeePSP := gasUsedChainCurrency.Div(pspPerNative)
	refundPSPRaw := gasFeePSP.Mul(tierPercent)
	if precisionGlitch {
		refundPSPRaw = refundPSPRaw.Floor()
	}
	refundUSD := refundPSPRaw.Mul(pspUSD).Div(weiScale)
	refundPSP := refundPSPRaw.Floor()

	return Result{
		GasUsedChainCurrency: gasUsedChainCurrency,
		GasFeePSP:            gasFeePSP,
		RefundPSPRaw:         refundPSPRaw,
		RefundUSD:            refundUSD,
		RefundPSP:            refundPSP,
	}, nil
}
