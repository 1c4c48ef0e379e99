package inventory

import (
	"context"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// LedgerResult describes one committed-to-be quantity change.
type LedgerResult struct {
	ResourceID     int64
	Name           string
	Before         model.ResourceStatus
	BeforeQuantity int
	NewQuantity    int
	NewStatus      model.ResourceStatus
}

// enteredLowStock reports whether the write moved the resource into low or
// out of stock.
func (r LedgerResult) enteredLowStock() bool {
	return isLowStock(r.NewStatus) && !isLowStock(r.Before)
}

// applyDelta changes a resource's quantity by delta inside q and recomputes
// its status. Maintenance is kept. The write is a compare-and-set on the
// resource version; a lost race surfaces as store.ErrVersionConflict.
func applyDelta(ctx context.Context, q store.Querier, resourceID int64, delta int) (*LedgerResult, error) {
	r, err := store.GetResource(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	if r == nil || r.DeletedAt != nil {
		return nil, errorf(KindNotFound, "resource %d not found", resourceID)
	}

	newQuantity := r.Quantity + delta
	if newQuantity < 0 {
		return nil, errorf(KindInsufficientQuantity,
			"insufficient quantity of %s: %d available, %d requested", r.Name, r.Quantity, -delta)
	}

	newStatus := DeriveStatus(r.Status, newQuantity, r.MinQuantity, true)
	if err := store.UpdateResourceStock(ctx, q, r.ID, newQuantity, newStatus, r.Version); err != nil {
		return nil, fmt.Errorf("writing ledger: %w", err)
	}

	return &LedgerResult{
		ResourceID:     r.ID,
		Name:           r.Name,
		Before:         r.Status,
		BeforeQuantity: r.Quantity,
		NewQuantity:    newQuantity,
		NewStatus:      newStatus,
	}, nil
}
