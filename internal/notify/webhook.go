package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"scout/internal/store"
)

// WebhookDeliverer posts notifications to an external push gateway.
type WebhookDeliverer struct {
	url        string
	httpClient *http.Client
}

// NewWebhookDeliverer creates a deliverer posting to the given URL.
func NewWebhookDeliverer(url string) *WebhookDeliverer {
	return &WebhookDeliverer{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type webhookPayload struct {
	UserID       string `json:"user_id"`
	AssignmentID string `json:"assignment_id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

// Deliver implements Deliverer.
func (d *WebhookDeliverer) Deliver(ctx context.Context, n *store.Notification) error {
	body, err := json.Marshal(webhookPayload{
		UserID:       n.UserID.String(),
		AssignmentID: n.AssignmentID.String(),
		Kind:         n.Kind,
		Title:        n.Title,
		Body:         n.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopDeliverer discards notifications. Used when no push gateway is
// configured; clients fall back to polling the notification feed.
type NoopDeliverer struct{}

// Deliver implements Deliverer.
func (NoopDeliverer) Deliver(ctx context.Context, n *store.Notification) error {
	return nil
}
