package stake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/choppy227/paraswap-volume-tracker/internal/chainclient"
)

// HTTPSource adapts a chainclient.StakeSourceClient to the Source
// interface. LoadRange issues one batch HTTP call for every requested
// point and keeps the parsed result in memory; Balance then serves
// exclusively from that cache, replaced wholesale on each LoadRange
// call, so it never itself reaches the network. Real on-chain stake
// trackers that preload by scanning events over a block range would
// implement Source directly instead of wrapping this adapter.
type HTTPSource struct {
	client chainclient.StakeSourceClient

	mu    sync.RWMutex
	cache map[string]decimal.Decimal
}

func NewHTTPSource(client chainclient.StakeSourceClient) *HTTPSource {
	return &HTTPSource{client: client, cache: map[string]decimal.Decimal{}}
}

func (s *HTTPSource) LoadRange(ctx context.Context, requests []BalanceRequest) error {
	if len(requests) == 0 {
		s.mu.Lock()
		s.cache = map[string]decimal.Decimal{}
		s.mu.Unlock()
		return nil
	}

	batch := make([]chainclient.StakeBalanceRequest, len(requests))
	for i, r := range requests {
		batch[i] = chainclient.StakeBalanceRequest{Address: r.Address, Timestamp: r.Timestamp}
	}

	raw, err := s.client.BatchBalanceAt(ctx, batch)
	if err != nil {
		return fmt.Errorf("batch stake source balance lookup for %d points: %w", len(batch), err)
	}

	cache := make(map[string]decimal.Decimal, len(requests))
	for _, r := range requests {
		key := chainclient.StakeBalanceKey(r.Address, r.Timestamp)
		rawBal, ok := raw[key]
		if !ok {
			return fmt.Errorf("stake source did not return a balance for %s at %s", r.Address, r.Timestamp)
		}
		bal, err := decimal.NewFromString(rawBal)
		if err != nil {
			return fmt.Errorf("parse stake balance %q for %s: %w", rawBal, r.Address, err)
		}
		cache[key] = bal
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

func (s *HTTPSource) Balance(ctx context.Context, address string, timestamp time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bal, ok := s.cache[chainclient.StakeBalanceKey(address, timestamp)]
	if !ok {
		return decimal.Zero, fmt.Errorf("stake balance for %s at %s was not preloaded by LoadRange", address, timestamp)
	}
	return bal, nil
}
