package inventory

import (
	"context"

	"github.com/erazemk/inventar/internal/model"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=inventory

// Notifier is told about inventory events after they are committed.
// Errors are logged by the caller and never undo the change.
type Notifier interface {
	NotifyLowStock(ctx context.Context, resourceID int64, name string, remaining int) error
	NotifyResourceAdded(ctx context.Context, resourceID int64, name string, quantity int) error
	NotifyOverdue(ctx context.Context, tx model.Transaction) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyLowStock(context.Context, int64, string, int) error      { return nil }
func (nopNotifier) NotifyResourceAdded(context.Context, int64, string, int) error { return nil }
func (nopNotifier) NotifyOverdue(context.Context, model.Transaction) error        { return nil }
