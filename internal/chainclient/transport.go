package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/circuitbreaker"
	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
	"github.com/choppy227/paraswap-volume-tracker/internal/retryclassify"
)

// guardedTransport wraps a plain JSON-over-HTTP call with the outbound
// rate limiter, a circuit breaker and error classification, one
// instance per named collaborator (subgraph, explorer, block-info,
// price-oracle, stake-source).
type guardedTransport struct {
	httpClient   *http.Client
	limiter      *Limiter
	breaker      *circuitbreaker.Breaker
	collaborator string
	logger       *slog.Logger
	maxRetries   int
	backoffBase  time.Duration
}

func newGuardedTransport(collaborator string, timeout time.Duration, rps float64, burst int, logger *slog.Logger) *guardedTransport {
	return &guardedTransport{
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      NewLimiter(rps, burst, collaborator),
		breaker:      circuitbreaker.New(collaborator, circuitbreaker.Config{}, logger),
		collaborator: collaborator,
		logger:       logger,
		maxRetries:   3,
		backoffBase:  200 * time.Millisecond,
	}
}

// postJSON POSTs reqBody as JSON and unmarshals the response into out,
// retrying transient failures with exponential backoff and bailing
// immediately on a terminal classification or an open circuit.
func (t *guardedTransport) postJSON(ctx context.Context, url string, reqBody, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.CollaboratorRetries.WithLabelValues(t.collaborator).Inc()
			select {
			case <-time.After(t.backoffBase * (1 << uint(attempt-1))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := t.breaker.Allow(); err != nil {
			return fmt.Errorf("%s: %w", t.collaborator, err)
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit wait: %w", t.collaborator, err)
		}

		err := t.doOnce(ctx, url, reqBody, out)
		if err == nil {
			t.breaker.RecordSuccess()
			metrics.CollaboratorRequestsTotal.WithLabelValues(t.collaborator, "ok").Inc()
			return nil
		}

		t.breaker.RecordFailure()
		lastErr = err
		decision := retryclassify.Classify(err)
		metrics.CollaboratorRequestsTotal.WithLabelValues(t.collaborator, string(decision.Class)).Inc()
		if !decision.IsTransient() {
			return err
		}
		t.logger.Warn("collaborator call failed, retrying", "collaborator", t.collaborator, "attempt", attempt, "reason", decision.Reason, "err", err)
	}
	return fmt.Errorf("%s: exhausted retries: %w", t.collaborator, lastErr)
}

func (t *guardedTransport) doOnce(ctx context.Context, url string, reqBody, out interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return retryclassify.Terminal(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retryclassify.Terminal(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return &retryclassify.HTTPStatus{Code: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return retryclassify.Terminal(fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
