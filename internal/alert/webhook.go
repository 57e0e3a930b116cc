// Package alert delivers chain integrity notifications to operators.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/matdaan/vicore/internal/config"
	"github.com/matdaan/vicore/internal/ledger"
)

type payload struct {
	Block      uint64    `json:"block"`
	Reason     string    `json:"reason"`
	Height     uint64    `json:"height"`
	DetectedAt time.Time `json:"detected_at"`
}

// WebhookNotifier posts integrity failures to an operator webhook. A
// notifier built from an empty URL drops alerts silently.
type WebhookNotifier struct {
	client     *resty.Client
	url        string
	maxRetries uint
}

func NewWebhookNotifier(cfg config.AlertConfig) *WebhookNotifier {
	return &WebhookNotifier{
		client:     resty.New().SetTimeout(10 * time.Second),
		url:        cfg.WebhookURL,
		maxRetries: cfg.MaxRetries,
	}
}

func (n *WebhookNotifier) IntegrityFailure(ctx context.Context, failure *ledger.IntegrityError, height uint64) {
	if n.url == "" {
		return
	}

	body := payload{
		Block:      failure.Index,
		Reason:     failure.Reason,
		Height:     height,
		DetectedAt: time.Now().UTC(),
	}

	var err error
	for attempt := uint(1); attempt <= n.maxRetries; attempt++ {
		err = n.post(ctx, body)
		if err == nil {
			return
		}
		slog.Warn("Retrying integrity alert delivery", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			slog.Error("Integrity alert delivery interrupted", "error", ctx.Err())
			return
		case <-time.After(time.Duration(2*attempt) * time.Second):
		}
	}

	slog.Error("Failed to deliver integrity alert", "retries", n.maxRetries, "error", err)
}

func (n *WebhookNotifier) post(ctx context.Context, body payload) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(n.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
