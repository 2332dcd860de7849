package refund

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

func TestCompute_BasicChain(t *testing.T) {
	res := Compute(Inputs{
		GasUsed:          big.NewInt(21000),
		TxGasPrice:       big.NewInt(50_000_000_000), // 50 gwei
		ChainPriceUSD:    decimal.NewFromFloat(3000),
		PSPPerNativeRate: decimal.NewFromFloat(4000), // PSP per native unit
		PSPPriceUSD:      decimal.NewFromFloat(0.05),
		TierPercent:      decimal.NewFromFloat(0.5),
	})

	wantGasUsedChainCurrency := decimal.NewFromInt(21000).Mul(decimal.NewFromInt(50_000_000_000))
	assert.True(t, res.GasUsedChainCurrency.Equal(wantGasUsedChainCurrency))
	assert.True(t, res.RefundPSP.LessThanOrEqual(res.RefundPSPRaw))
	assert.True(t, res.RefundPSP.Equal(res.RefundPSPRaw.Floor()))
}

func TestCompute_PrecisionGlitch_FloorsBeforeUSD(t *testing.T) {
	// Choose inputs where refundPSP_raw has a fractional component, so
	// flooring pre-USD changes the resulting refundUSD (spec.md §8 S5).
	base := Inputs{
		GasUsed:          big.NewInt(1),
		TxGasPrice:       big.NewInt(1_500_000_000_000_000_000), // 1.5 native units in wei
		ChainPriceUSD:    decimal.NewFromFloat(2000),
		PSPPerNativeRate: decimal.NewFromFloat(7),
		PSPPriceUSD:      decimal.NewFromFloat(1000),
		TierPercent:      decimal.NewFromFloat(1),
	}

	withGlitch := base
	withGlitch.PrecisionGlitch = true

	normal := Compute(base)
	glitched := Compute(withGlitch)

	assert.True(t, glitched.RefundPSPRaw.Equal(normal.RefundPSPRaw.Floor()))
	assert.True(t, glitched.RefundUSD.LessThanOrEqual(normal.RefundUSD),
		"flooring before the USD multiply must not increase refundUSD")
}

func TestStageTransaction_ProducesIdleRow(t *testing.T) {
	swap := model.Swap{
		TxHash:      "0xabc",
		TxOrigin:    "0xuser",
		Initiator:   "0xuser",
		TxGasPrice:  big.NewInt(30_000_000_000),
		BlockNumber: 100,
		Timestamp:   time.Unix(1000, 0),
		ChainID:     model.ChainMainnet,
	}
	price := model.PricePoint{
		ChainID:          model.ChainMainnet,
		Timestamp:        time.Unix(900, 0),
		PSPPriceUSD:      decimal.NewFromFloat(0.05),
		ChainPriceUSD:    decimal.NewFromFloat(3000),
		PSPPerNativeRate: decimal.NewFromFloat(4000),
	}

	row := StageTransaction(swap, big.NewInt(21000), price, decimal.New(1000, 18), decimal.NewFromFloat(0.25), false, 5)

	assert.Equal(t, model.StatusIdle, row.Status)
	assert.Equal(t, "0xabc", row.Hash)
	assert.Equal(t, "0xuser", row.Address)
	assert.Equal(t, int64(5), row.Epoch)
	assert.NotEmpty(t, row.RefundedAmountPSP)
	assert.NotEmpty(t, row.RefundedAmountUSD)
}

func TestRederive_MatchesComputeForFreshRow(t *testing.T) {
	swap := model.Swap{
		TxHash:      "0xabc",
		TxOrigin:    "0xuser",
		Initiator:   "0xuser",
		TxGasPrice:  big.NewInt(30_000_000_000),
		BlockNumber: 100,
		Timestamp:   time.Unix(1000, 0),
		ChainID:     model.ChainMainnet,
	}
	price := model.PricePoint{
		PSPPriceUSD:      decimal.NewFromFloat(0.05),
		ChainPriceUSD:    decimal.NewFromFloat(3000),
		PSPPerNativeRate: decimal.NewFromFloat(4000),
	}
	tier := decimal.NewFromFloat(0.25)
	row := StageTransaction(swap, big.NewInt(21000), price, decimal.New(1000, 18), tier, false, 5)

	rederived, err := Rederive(row, tier, false)
	require.NoError(t, err)

	original := Compute(Inputs{
		GasUsed:          big.NewInt(21000),
		TxGasPrice:       swap.TxGasPrice,
		ChainPriceUSD:    price.ChainPriceUSD,
		PSPPerNativeRate: price.PSPPerNativeRate,
		PSPPriceUSD:      price.PSPPriceUSD,
		TierPercent:      tier,
	})

	assert.True(t, rederived.RefundPSP.Equal(original.RefundPSP))
	assert.True(t, rederived.RefundUSD.Equal(original.RefundUSD))
}
