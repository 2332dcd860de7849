package alert

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAlert() Alert {
	return Alert{
		Type:    TypeBudgetCapTripped,
		Chain:   "137",
		Epoch:   20,
		Title:   "Yearly per-address USD cap tripped",
		Message: "address capped at MAX_USD_ADDRESS_YEARLY",
		Fields:  map[string]string{"address": "0xabc"},
	}
}

func TestMultiAlerter_Send_AllChannels(t *testing.T) {
	var received atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	webhook := NewWebhookAlerter(srv.URL)
	multi := NewMultiAlerter(time.Hour, testLogger(), webhook)

	err := multi.Send(context.Background(), testAlert())
	require.NoError(t, err)
	assert.Equal(t, int32(1), received.Load())
}

func TestMultiAlerter_CooldownDedup(t *testing.T) {
	var received atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	webhook := NewWebhookAlerter(srv.URL)
	multi := NewMultiAlerter(time.Hour, testLogger(), webhook)

	a := testAlert()
	require.NoError(t, multi.Send(context.Background(), a))
	require.NoError(t, multi.Send(context.Background(), a))

	assert.Equal(t, int32(1), received.Load(), "second send within cooldown should be suppressed")
}

func TestMultiAlerter_DifferentEpochsNotDeduped(t *testing.T) {
	var received atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	webhook := NewWebhookAlerter(srv.URL)
	multi := NewMultiAlerter(time.Hour, testLogger(), webhook)

	a1 := testAlert()
	a2 := testAlert()
	a2.Epoch = 21

	require.NoError(t, multi.Send(context.Background(), a1))
	require.NoError(t, multi.Send(context.Background(), a2))

	assert.Equal(t, int32(2), received.Load())
}

func TestWebhookAlerter_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	webhook := NewWebhookAlerter(srv.URL)
	err := webhook.Send(context.Background(), testAlert())
	assert.Error(t, err)
}

func TestNoopAlerter(t *testing.T) {
	n := &NoopAlerter{}
	assert.NoError(t, n.Send(context.Background(), testAlert()))
}
