// Package chainclient implements the HTTP adapters for the five
// out-of-scope external collaborators spec.md §6 names as contract-only
// interfaces: the swaps subgraph, the block explorer, the block-info
// service, the price oracle and the stake sources. Only the interface contracts are
// core-relevant; these adapters exist to give the domain stack's
// rate-limiting, circuit-breaking and retry-classification libraries a
// concrete home to run against.
package chainclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/choppy227/paraswap-volume-tracker/internal/domain/model"
	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
)

// Limiter wraps a token-bucket limiter for one collaborator's outbound
// call rate.
type Limiter struct {
	limiter      *rate.Limiter
	collaborator string
}

func NewLimiter(rps float64, burst int, collaborator string) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst), collaborator: collaborator}
}

// Wait blocks until the limiter admits one request, or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("chainclient: cannot reserve rate-limit token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.CollaboratorRateLimitWaits.WithLabelValues(l.collaborator).Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

// ChainEndpoints resolves a per-chain base URL, since the subgraph and
// explorer each expose one deployment per supported chain.
type ChainEndpoints map[model.ChainID]string

func (e ChainEndpoints) For(chainID model.ChainID) (string, error) {
	url, ok := e[chainID]
	if !ok {
		return "", fmt.Errorf("chainclient: no endpoint configured for chain %s", chainID)
	}
	return url, nil
}
