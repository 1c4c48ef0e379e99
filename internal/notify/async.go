package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

// ErrQueueFull is returned when the dispatch queue cannot take more events.
var ErrQueueFull = errors.New("notification queue full")

// ErrClosed is returned for events sent after Close.
var ErrClosed = errors.New("notifier closed")

// deliveryTimeout bounds a single queued delivery.
const deliveryTimeout = 30 * time.Second

type job struct {
	name string
	run  func(context.Context) error
}

// Async is an inventory.Notifier that hands events to a background worker so
// callers never wait on delivery. Failed deliveries are logged. A nil error
// from its Notify methods means the event was queued.
type Async struct {
	next   inventory.Notifier
	logger *slog.Logger
	queue  chan job
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a worker delivering to next through a queue of size slots.
func NewAsync(next inventory.Notifier, size int, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		next:   next,
		logger: logger,
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := j.run(ctx); err != nil {
			a.logger.Error("notification delivery failed", "event", j.name, "error", err)
		}
		cancel()
	}
}

func (a *Async) enqueue(name string, run func(context.Context) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- job{name: name, run: run}:
		return nil
	default:
		a.logger.Warn("dropping notification, queue full", "event", name)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until queued ones are delivered or
// ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyLowStock queues a low stock event.
func (a *Async) NotifyLowStock(_ context.Context, resourceID int64, name string, remaining int) error {
	return a.enqueue(model.NotificationLowStock, func(ctx context.Context) error {
		return a.next.NotifyLowStock(ctx, resourceID, name, remaining)
	})
}

// NotifyResourceAdded queues a resource added event.
func (a *Async) NotifyResourceAdded(_ context.Context, resourceID int64, name string, quantity int) error {
	return a.enqueue(model.NotificationResourceAdded, func(ctx context.Context) error {
		return a.next.NotifyResourceAdded(ctx, resourceID, name, quantity)
	})
}

// NotifyOverdue queues an overdue reminder.
func (a *Async) NotifyOverdue(_ context.Context, tx model.Transaction) error {
	return a.enqueue(model.NotificationOverdue, func(ctx context.Context) error {
		return a.next.NotifyOverdue(ctx, tx)
	})
}
