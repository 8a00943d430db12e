package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-sentinel/internal/domain"
)

// Notifier delivers an enriched signal to one outbound channel. Delivery is
// best effort; callers log failures and keep going.
type Notifier interface {
	Deliver(ctx context.Context, sig domain.Signal, persona string) error
}

// WebhookNotifier POSTs the signal payload as JSON to a configured URL
// (Discord-style incoming webhook).
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Deliver(ctx context.Context, sig domain.Signal, persona string) error {
	payload := struct {
		Signal  domain.Signal `json:"signal"`
		Persona string        `json:"persona"`
	}{Signal: sig, Persona: persona}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
