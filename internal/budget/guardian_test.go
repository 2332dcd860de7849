package budget

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	totals ValidatedTotals
	err    error
}

func (f *fakeLoader) LoadValidatedTotals(_ context.Context, _ int64) (ValidatedTotals, error) {
	return f.totals, f.err
}

func TestGuardian_LoadState_PopulatesCounters(t *testing.T) {
	loader := &fakeLoader{totals: ValidatedTotals{
		TotalPSPForYear:    decimal.New(1000, 18),
		YearlyUSDByAddress: map[string]decimal.Decimal{"0xa": decimal.NewFromInt(500)},
	}}
	g := New(0, 20, loader)
	require.NoError(t, g.LoadState(context.Background(), 10))

	assert.True(t, g.yearly("0xa").Equal(decimal.NewFromInt(500)))
	assert.False(t, g.IsGlobalSpent())
}

func TestGuardian_BeginEpoch_ClearsEpochAndYearOnBoundary(t *testing.T) {
	g := New(0, 20, &fakeLoader{})
	require.NoError(t, g.LoadState(context.Background(), 0))
	g.Commit("0xa", 5, decimal.NewFromInt(100), decimal.New(1, 18))

	g.BeginEpoch(6) // not a year boundary (genesis=0, 26 epochs/yr)
	assert.True(t, g.yearly("0xa").Equal(decimal.NewFromInt(100)), "yearly state survives non-boundary epoch")

	g.BeginEpoch(26) // (26-0)%26==0 -> year boundary
	assert.True(t, g.yearly("0xa").IsZero(), "yearly state clears on boundary")
}

// S2 (epoch cap): address with prior epoch USD spend of 1152.99 in an
// epoch >= EPOCH_BUDGET_EPOCH; a new refundUSD of 5.00 must be capped
// to MAX_USD_ADDRESS_EPOCH - 1152.99.
func TestApplyCaps_S2_EpochCapTrims(t *testing.T) {
	g := New(0, 20, &fakeLoader{})
	require.NoError(t, g.LoadState(context.Background(), 20))
	g.BeginEpoch(20)
	g.epochUSDByAddress["0xa"] = decimal.NewFromFloat(1152.99)

	caps, err := g.ApplyCaps("0xa", 20, decimal.NewFromFloat(5.00), decimal.New(100, 18), decimal.NewFromFloat(0.05))
	require.NoError(t, err)
	require.NotNil(t, caps.CappedUSD)

	wantRemaining := MaxUSDAddressEpoch.Sub(decimal.NewFromFloat(1152.99))
	assert.True(t, caps.CappedUSD.Equal(wantRemaining), "got %s want %s", caps.CappedUSD, wantRemaining)
}

// S3 (global cap): totalPSPRefundedForYear is 0.5*10^18 short of the
// cap; a swap deriving 2*10^18 must be capped to
// 0.5*10^18, with cappedUSD left unset.
func TestApplyCaps_S3_GlobalCapTrimsPSPOnly(t *testing.T) {
	loader := &fakeLoader{totals: ValidatedTotals{
		TotalPSPForYear:    MaxPSPGlobalYearly.Sub(decimal.New(5, 17)), // cap - 0.5e18
		YearlyUSDByAddress: map[string]decimal.Decimal{},
	}}
	g := New(0, 1_000_000, loader) // epoch budget epoch far in the future
	require.NoError(t, g.LoadState(context.Background(), 0))
	g.BeginEpoch(1)

	caps, err := g.ApplyCaps("0xa", 1, decimal.NewFromInt(10), decimal.New(2, 18), decimal.NewFromFloat(1))
	require.NoError(t, err)
	require.NotNil(t, caps.CappedPSP)
	assert.True(t, caps.CappedPSP.Equal(decimal.New(5, 17)), "got %s", caps.CappedPSP)
	assert.Nil(t, caps.CappedUSD, "global cap must not set cappedUSD")
}

func TestApplyCaps_S1_NoCapsTripped_ReturnsNil(t *testing.T) {
	g := New(0, 20, &fakeLoader{})
	require.NoError(t, g.LoadState(context.Background(), 0))
	g.BeginEpoch(1)

	caps, err := g.ApplyCaps("0xa", 1, decimal.NewFromInt(10), decimal.New(1, 18), decimal.NewFromFloat(0.05))
	require.NoError(t, err)
	assert.Nil(t, caps.CappedUSD)
	assert.Nil(t, caps.CappedPSP)
}

func TestApplyCaps_YearlyCapTripped_SkipsEpochCap(t *testing.T) {
	loader := &fakeLoader{totals: ValidatedTotals{
		YearlyUSDByAddress: map[string]decimal.Decimal{"0xa": decimal.NewFromInt(29_999)},
	}}
	g := New(0, 1, loader) // epoch cap active from epoch 1
	require.NoError(t, g.LoadState(context.Background(), 5))
	g.BeginEpoch(5)

	caps, err := g.ApplyCaps("0xa", 5, decimal.NewFromInt(10), decimal.New(1, 18), decimal.NewFromFloat(0.05))
	require.NoError(t, err)
	require.NotNil(t, caps.CappedUSD)
	assert.True(t, caps.CappedUSD.Equal(decimal.NewFromInt(1)), "yearly remaining should be 30000-29999=1")
}

func TestGuardian_HasAddressSpentYearly(t *testing.T) {
	loader := &fakeLoader{totals: ValidatedTotals{
		YearlyUSDByAddress: map[string]decimal.Decimal{"0xa": MaxUSDAddressYearly},
	}}
	g := New(0, 20, loader)
	require.NoError(t, g.LoadState(context.Background(), 0))
	assert.True(t, g.HasAddressSpentYearly("0xa"))
	assert.False(t, g.HasAddressSpentYearly("0xb"))
}
