package alert_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/alert"
	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/ledger"
)

func TestWebhookNotifierDeliversAlert(t *testing.T) {
	var mu sync.Mutex
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		require.NoError(t, json.Unmarshal(body, &got))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := alert.NewWebhookNotifier(config.AlertConfig{WebhookURL: server.URL, MaxRetries: 3})
	notifier.IntegrityFailure(context.Background(), &ledger.IntegrityError{Index: 7, Reason: "hash mismatch"}, 12)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, float64(7), got["block"])
	assert.Equal(t, "hash mismatch", got["reason"])
	assert.Equal(t, float64(12), got["height"])
	assert.NotEmpty(t, got["detected_at"])
}

func TestWebhookNotifierRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := alert.NewWebhookNotifier(config.AlertConfig{WebhookURL: server.URL, MaxRetries: 3})
	notifier.IntegrityFailure(context.Background(), &ledger.IntegrityError{Index: 3, Reason: "broken link"}, 5)

	require.Equal(t, int32(2), calls.Load())
}

func TestWebhookNotifierStopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifier := alert.NewWebhookNotifier(config.AlertConfig{WebhookURL: server.URL, MaxRetries: 5})
	notifier.IntegrityFailure(ctx, &ledger.IntegrityError{Index: 1, Reason: "tampered payload"}, 2)

	require.LessOrEqual(t, calls.Load(), int32(1))
}

func TestWebhookNotifierIgnoresEmptyURL(t *testing.T) {
	notifier := alert.NewWebhookNotifier(config.AlertConfig{MaxRetries: 3})
	notifier.IntegrityFailure(context.Background(), &ledger.IntegrityError{Index: 1, Reason: "tampered payload"}, 2)
}
