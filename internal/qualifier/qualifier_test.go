package qualifier

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
)

type fakeBalancer struct {
	balances map[string]decimal.Decimal
	err      error
}

func (f *fakeBalancer) Balance(_ context.Context, address string, _ time.Time, _ int64) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	if b, ok := f.balances[address]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

func swap(hash, blockHash, initiator, origin string, ts int64) model.Swap {
	return model.Swap{
		TxHash:      hash,
		BlockHash:   blockHash,
		Initiator:   initiator,
		TxOrigin:    origin,
		Timestamp:   time.Unix(ts, 0),
		BlockNumber: 1,
		ChainID:     model.ChainMainnet,
	}
}

func TestQualify_DropsReorgBlacklistedBlocks(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 100, DedupEpoch: 100}, &fakeBalancer{
		balances: map[string]decimal.Decimal{"0xa": decimal.New(1_000_000, 18)},
	})
	swaps := []model.Swap{
		swap("0x1", "reorged", "0xa", "0xa", 10),
		swap("0x2", "good", "0xa", "0xa", 20),
	}
	out, err := q.Qualify(context.Background(), 1, map[string]bool{"reorged": true}, swaps)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "0x2", out[0].TxHash)
}

func TestQualify_TxOriginCheck_OnlyFromGateEpoch(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 10, DedupEpoch: 1000}, &fakeBalancer{
		balances: map[string]decimal.Decimal{"0xa": decimal.New(1_000_000, 18)},
	})
	swaps := []model.Swap{
		swap("0x1", "b1", "0xcontract", "0xa", 10),
	}

	// Before gate: contract-initiated swap passes through.
	out, err := q.Qualify(context.Background(), 9, nil, swaps)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// From gate: initiator must equal txOrigin.
	out, err = q.Qualify(context.Background(), 10, nil, swaps)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestQualify_DedupFromGateEpoch_FatalOnDuplicate(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 1000, DedupEpoch: 5}, &fakeBalancer{
		balances: map[string]decimal.Decimal{"0xa": decimal.New(1_000_000, 18)},
	})
	swaps := []model.Swap{
		swap("0xdupe", "b1", "0xa", "0xa", 10),
		swap("0xdupe", "b2", "0xa", "0xa", 20),
	}

	// Before gate: duplicates are tolerated.
	out, err := q.Qualify(context.Background(), 4, nil, swaps)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// From gate: duplicate txHash is fatal.
	_, err = q.Qualify(context.Background(), 5, nil, swaps)
	require.Error(t, err)
	var dupErr *DuplicateHashError
	assert.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "0xdupe", dupErr.TxHash)
}

func TestQualify_MinStakeGating(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 1000, DedupEpoch: 1000}, &fakeBalancer{
		balances: map[string]decimal.Decimal{
			"0xrich": decimal.New(500, 18),
			"0xpoor": decimal.New(499, 18),
		},
	})
	swaps := []model.Swap{
		swap("0x1", "b1", "0xrich", "0xrich", 10),
		swap("0x2", "b2", "0xpoor", "0xpoor", 20),
	}
	out, err := q.Qualify(context.Background(), 1, nil, swaps)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "0xrich", out[0].TxOrigin)
}

func TestQualify_ReturnsChronologicallyStable(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 1000, DedupEpoch: 1000}, &fakeBalancer{
		balances: map[string]decimal.Decimal{"0xa": decimal.New(1_000_000, 18)},
	})
	swaps := []model.Swap{
		swap("0x3", "b3", "0xa", "0xa", 30),
		swap("0x1", "b1", "0xa", "0xa", 10),
		swap("0x2", "b2", "0xa", "0xa", 20),
	}
	out, err := q.Qualify(context.Background(), 1, nil, swaps)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, []string{out[0].TxHash, out[1].TxHash, out[2].TxHash})
}

func TestQualify_BalanceLookupError_Propagates(t *testing.T) {
	q := New(Config{TxOriginCheckEpoch: 1000, DedupEpoch: 1000}, &fakeBalancer{err: assert.AnError})
	swaps := []model.Swap{swap("0x1", "b1", "0xa", "0xa", 10)}
	_, err := q.Qualify(context.Background(), 1, nil, swaps)
	require.Error(t, err)
}
