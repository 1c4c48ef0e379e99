package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/erazemk/inventar/internal/model"
)

// Event is the JSON body posted to the webhook.
type Event struct {
	Type          string    `json:"type"`
	ResourceID    int64     `json:"resource_id,omitempty"`
	ResourceName  string    `json:"resource_name,omitempty"`
	Quantity      int       `json:"quantity"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	UserID        int64     `json:"user_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Webhook is an inventory.Notifier that posts events to an HTTP endpoint,
// retrying on network errors and 5xx responses.
type Webhook struct {
	client *resty.Client
	url    string
	now    func() time.Time
}

// NewWebhook creates a webhook notifier for url.
func NewWebhook(url string, timeout time.Duration, retries int) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "inventar").
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Webhook{client: client, url: url, now: time.Now}
}

func (w *Webhook) send(ctx context.Context, e Event) error {
	e.OccurredAt = w.now().UTC()

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(e).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("posting %s webhook: %w", e.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("posting %s webhook: %s", e.Type, resp.Status())
	}
	return nil
}

// NotifyLowStock posts a low_stock event carrying the remaining quantity.
func (w *Webhook) NotifyLowStock(ctx context.Context, resourceID int64, name string, remaining int) error {
	return w.send(ctx, Event{
		Type:         model.NotificationLowStock,
		ResourceID:   resourceID,
		ResourceName: name,
		Quantity:     remaining,
	})
}

// NotifyResourceAdded posts a resource_added event carrying the initial quantity.
func (w *Webhook) NotifyResourceAdded(ctx context.Context, resourceID int64, name string, quantity int) error {
	return w.send(ctx, Event{
		Type:         model.NotificationResourceAdded,
		ResourceID:   resourceID,
		ResourceName: name,
		Quantity:     quantity,
	})
}

// NotifyOverdue posts an overdue event for the borrower's transaction.
func (w *Webhook) NotifyOverdue(ctx context.Context, tx model.Transaction) error {
	return w.send(ctx, Event{
		Type:          model.NotificationOverdue,
		ResourceID:    tx.ResourceID,
		ResourceName:  tx.ResourceName,
		Quantity:      tx.Quantity,
		TransactionID: tx.ID,
		UserID:        tx.UserID,
	})
}
