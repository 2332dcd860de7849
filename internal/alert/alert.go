// Package alert fans out operational alerts (budget caps tripped, fatal
// run aborts, failed chain runs, sealed roots) to one or more channels with a
// per-key cooldown so a flapping condition does not page repeatedly.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
)

// Type categorizes the kind of alert.
type Type string

const (
	TypeBudgetCapTripped   Type = "BUDGET_CAP_TRIPPED"
	TypeFatalRunAbort      Type = "FATAL_RUN_ABORT"
	TypeMissingPricePoint  Type = "MISSING_PRICE_POINT"
	TypeIdleRowsSurvived   Type = "IDLE_ROWS_SURVIVED_REVALIDATION"
	TypeChainRunFailed     Type = "CHAIN_RUN_FAILED"
	TypeRootSealed         Type = "ROOT_SEALED"
)

// Alert represents a single alert event.
type Alert struct {
	Type    Type
	Chain   string
	Epoch   int64
	Title   string
	Message string
	Fields  map[string]string
}

// Alerter is the interface for sending alerts.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// MultiAlerter fans out alerts to multiple channels, deduping by
// (type, chain, epoch) within a cooldown window.
type MultiAlerter struct {
	alerters []Alerter
	cooldown time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewMultiAlerter creates a new multi-channel alerter with cooldown.
func NewMultiAlerter(cooldown time.Duration, logger *slog.Logger, alerters ...Alerter) *MultiAlerter {
	return &MultiAlerter{
		alerters: alerters,
		cooldown: cooldown,
		logger:   logger.With("component", "alerter"),
		lastSent: make(map[string]time.Time),
	}
}

func cooldownKey(a Alert) string {
	return fmt.Sprintf("%s:%s:%d", a.Type, a.Chain, a.Epoch)
}

// Send dispatches alert to all channels, respecting cooldown.
func (m *MultiAlerter) Send(ctx context.Context, a Alert) error {
	key := cooldownKey(a)

	m.mu.Lock()
	if last, ok := m.lastSent[key]; ok && time.Since(last) < m.cooldown {
		m.mu.Unlock()
		m.logger.Debug("alert suppressed by cooldown", "key", key)
		return nil
	}
	m.lastSent[key] = time.Now()
	m.mu.Unlock()

	var firstErr error
	for _, alerter := range m.alerters {
		if err := alerter.Send(ctx, a); err != nil {
			m.logger.Warn("alert send failed", "type", a.Type, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.CollaboratorRequestsTotal.WithLabelValues("alert", "ok").Inc()
	}
	return firstErr
}

// WebhookAlerter sends alerts to a generic HTTP webhook.
type WebhookAlerter struct {
	url    string
	client *http.Client
}

// NewWebhookAlerter creates a generic webhook alerter.
func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send sends an alert to the webhook endpoint.
func (w *WebhookAlerter) Send(ctx context.Context, a Alert) error {
	payload := map[string]any{
		"type":    string(a.Type),
		"chain":   a.Chain,
		"epoch":   a.Epoch,
		"title":   a.Title,
		"message": a.Message,
		"fields":  a.Fields,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopAlerter does nothing. Used when no alert channels are configured.
type NoopAlerter struct{}

func (n *NoopAlerter) Send(_ context.Context, _ Alert) error { return nil }
