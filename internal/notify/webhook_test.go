package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erazemk/inventar/internal/model"
)

func TestWebhookPostsEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, 0)
	if err := w.NotifyLowStock(context.Background(), 5, "Markers", 1); err != nil {
		t.Fatalf("NotifyLowStock: %v", err)
	}

	if got.Type != model.NotificationLowStock || got.ResourceID != 5 || got.Quantity != 1 || got.ResourceName != "Markers" {
		t.Errorf("unexpected event: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Error("expected occurred_at to be set")
	}
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, 2)
	if err := w.NotifyOverdue(context.Background(), model.Transaction{ID: 1, UserID: 2}); err != nil {
		t.Fatalf("NotifyOverdue: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestWebhookClientErrorFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, 2)
	if err := w.NotifyResourceAdded(context.Background(), 1, "Globe", 1); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retries on 4xx, got %d calls", calls.Load())
	}
}
