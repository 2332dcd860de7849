package stake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choppy227/paraswap-volume-tracker/internal/chainclient"
)

type fakeStakeSourceClient struct {
	balances map[string]string
	err      error
	calls    int
}

func (f *fakeStakeSourceClient) BatchBalanceAt(ctx context.Context, requests []chainclient.StakeBalanceRequest) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

func TestHTTPSource_Balance_ServesFromPreloadedCache(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	key := chainclient.StakeBalanceKey("0xaddr", ts)
	client := &fakeStakeSourceClient{balances: map[string]string{key: "1000000000000000000000"}}
	src := NewHTTPSource(client)

	require.NoError(t, src.LoadRange(context.Background(), []BalanceRequest{{Address: "0xaddr", Timestamp: ts}}))

	bal, err := src.Balance(context.Background(), "0xaddr", ts)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", bal.String())
	assert.Equal(t, 1, client.calls, "LoadRange must issue exactly one batch call")
}

func TestHTTPSource_LoadRange_BatchesAllPointsIntoOneCall(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	client := &fakeStakeSourceClient{balances: map[string]string{
		chainclient.StakeBalanceKey("0xaaa", ts): "100",
		chainclient.StakeBalanceKey("0xbbb", ts): "200",
	}}
	src := NewHTTPSource(client)

	require.NoError(t, src.LoadRange(context.Background(), []BalanceRequest{
		{Address: "0xaaa", Timestamp: ts},
		{Address: "0xbbb", Timestamp: ts},
	}))
	assert.Equal(t, 1, client.calls, "a whole slice's worth of addresses must be preloaded in a single round trip")

	balA, err := src.Balance(context.Background(), "0xaaa", ts)
	require.NoError(t, err)
	assert.Equal(t, "100", balA.String())

	balB, err := src.Balance(context.Background(), "0xbbb", ts)
	require.NoError(t, err)
	assert.Equal(t, "200", balB.String())
}

func TestHTTPSource_Balance_WithoutPreload_ReturnsErrorInsteadOfNetworkCall(t *testing.T) {
	client := &fakeStakeSourceClient{}
	src := NewHTTPSource(client)

	_, err := src.Balance(context.Background(), "0xaddr", time.Now())
	assert.Error(t, err)
	assert.Equal(t, 0, client.calls, "an unpreloaded lookup must fail rather than fall back to a network call")
}

func TestHTTPSource_LoadRange_ReplacesPreviousCache(t *testing.T) {
	tsOld := time.Unix(1, 0)
	tsNew := time.Unix(2, 0)
	client := &fakeStakeSourceClient{balances: map[string]string{
		chainclient.StakeBalanceKey("0xaddr", tsOld): "40",
		chainclient.StakeBalanceKey("0xaddr", tsNew): "50",
	}}
	src := NewHTTPSource(client)

	require.NoError(t, src.LoadRange(context.Background(), []BalanceRequest{{Address: "0xaddr", Timestamp: tsOld}}))
	require.NoError(t, src.LoadRange(context.Background(), []BalanceRequest{{Address: "0xaddr", Timestamp: tsNew}}))

	_, err := src.Balance(context.Background(), "0xaddr", tsOld)
	assert.Error(t, err, "a prior slice's points must not leak into the next slice's cache")

	bal, err := src.Balance(context.Background(), "0xaddr", tsNew)
	require.NoError(t, err)
	assert.Equal(t, "50", bal.String())
}
