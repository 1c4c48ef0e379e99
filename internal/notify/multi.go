package notify

import (
	"context"
	"errors"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

// Multi is an inventory.Notifier that fans every event out to all notifiers
// and joins their errors.
type Multi []inventory.Notifier

// NotifyLowStock calls every notifier, even after one fails.
func (m Multi) NotifyLowStock(ctx context.Context, resourceID int64, name string, remaining int) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyLowStock(ctx, resourceID, name, remaining))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyResourceAdded(ctx context.Context, resourceID int64, name string, quantity int) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyResourceAdded(ctx, resourceID, name, quantity))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyOverdue(ctx context.Context, tx model.Transaction) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyOverdue(ctx, tx))
	}
	return errors.Join(errs...)
}
