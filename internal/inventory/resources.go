package inventory

import (
	"context"
	"database/sql"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// InitialAdditionNote is recorded on the addition that seeds a new resource.
const InitialAdditionNote = "Initial inventory addition"

// ResourceParams describes a new resource. A nil MinQuantity means
// model.DefaultMinQuantity.
type ResourceParams struct {
	Name          string
	Description   string
	CategoryID    *int64
	Location      string
	Barcode       string
	UnitCostCents int64
	Quantity      int
	MinQuantity   *int
}

// ResourceUpdate changes a resource's descriptive fields. Nil fields are left
// as they are. Quantity can only change through transactions.
type ResourceUpdate struct {
	Name          *string
	Description   *string
	CategoryID    *int64
	ClearCategory bool
	Location      *string
	Barcode       *string
	UnitCostCents *int64
	MinQuantity   *int
	// Maintenance puts the resource into or takes it out of maintenance.
	Maintenance *bool
}

func checkCategory(ctx context.Context, q store.Querier, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := store.GetCategory(ctx, q, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return errorf(KindValidation, "category %d does not exist", *id)
	}
	return nil
}

func validateResource(r *model.Resource) error {
	if strings.TrimSpace(r.Name) == "" {
		return errorf(KindValidation, "name is required")
	}
	if r.MinQuantity < 0 {
		return errorf(KindValidation, "min_quantity must not be negative")
	}
	if r.UnitCostCents < 0 {
		return errorf(KindValidation, "unit_cost_cents must not be negative")
	}
	return nil
}

// CreateResource adds a resource. Initial stock is booked as a completed
// addition so the ledger and transaction log agree from the start.
func (s *Service) CreateResource(ctx context.Context, actorID int64, p ResourceParams) (_ *model.Resource, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.create_resource",
		trace.WithAttributes(attribute.Int("quantity", p.Quantity)),
	)
	defer func() { endSpan(span, err) }()

	r := &model.Resource{
		Name:          strings.TrimSpace(p.Name),
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Location:      p.Location,
		Barcode:       p.Barcode,
		UnitCostCents: p.UnitCostCents,
		MinQuantity:   model.DefaultMinQuantity,
		Status:        model.StatusOutOfStock,
		CreatedBy:     &actorID,
	}
	if p.MinQuantity != nil {
		r.MinQuantity = *p.MinQuantity
	}
	if err := validateResource(r); err != nil {
		return nil, err
	}
	if p.Quantity < 0 {
		return nil, errorf(KindValidation, "quantity must not be negative")
	}

	err = s.unitOfWork(ctx, "create resource", func(tx *sql.Tx, after *afterCommit) error {
		if err := checkCategory(ctx, tx, r.CategoryID); err != nil {
			return err
		}

		r.Quantity = 0
		r.Status = model.StatusOutOfStock
		if err := store.InsertResource(ctx, tx, r); err != nil {
			return err
		}

		if p.Quantity > 0 {
			if _, err := applyDelta(ctx, tx, r.ID, p.Quantity); err != nil {
				return err
			}
			if err := store.InsertTransaction(ctx, tx, &model.Transaction{
				ResourceID: r.ID,
				UserID:     actorID,
				Type:       model.TypeAddition,
				Quantity:   p.Quantity,
				Status:     model.TxCompleted,
				Notes:      InitialAdditionNote,
			}); err != nil {
				return err
			}
		}

		if err := store.AppendAudit(ctx, tx, &actorID, store.AuditResourceCreate, "resource", r.ID,
			map[string]any{"name": r.Name, "quantity": p.Quantity, "min_quantity": r.MinQuantity}); err != nil {
			return err
		}

		id, name := r.ID, r.Name
		after.add(func(ctx context.Context) {
			if err := s.notifier.NotifyResourceAdded(ctx, id, name, p.Quantity); err != nil {
				s.logger.Error("resource added notification failed", "resource_id", id, "error", err)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("resource.id", r.ID))
	s.logger.Info("resource created", "id", r.ID, "name", r.Name, "quantity", p.Quantity, "user_id", actorID)

	return store.GetResource(ctx, s.db, r.ID)
}

// UpdateResource applies u to a resource and recomputes its status against
// the possibly new threshold.
func (s *Service) UpdateResource(ctx context.Context, actorID, id int64, u ResourceUpdate) (_ *model.Resource, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.update_resource",
		trace.WithAttributes(attribute.Int64("resource.id", id)),
	)
	defer func() { endSpan(span, err) }()

	err = s.unitOfWork(ctx, "update resource", func(tx *sql.Tx, after *afterCommit) error {
		r, err := store.GetResource(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil || r.DeletedAt != nil {
			return errorf(KindNotFound, "resource %d not found", id)
		}
		before := r.Status
		version := r.Version

		if u.Name != nil {
			r.Name = strings.TrimSpace(*u.Name)
		}
		if u.Description != nil {
			r.Description = *u.Description
		}
		if u.ClearCategory {
			r.CategoryID = nil
		} else if u.CategoryID != nil {
			r.CategoryID = u.CategoryID
		}
		if u.Location != nil {
			r.Location = *u.Location
		}
		if u.Barcode != nil {
			r.Barcode = *u.Barcode
		}
		if u.UnitCostCents != nil {
			r.UnitCostCents = *u.UnitCostCents
		}
		if u.MinQuantity != nil {
			r.MinQuantity = *u.MinQuantity
		}
		if err := validateResource(r); err != nil {
			return err
		}
		if err := checkCategory(ctx, tx, r.CategoryID); err != nil {
			return err
		}

		switch {
		case u.Maintenance == nil:
			r.Status = DeriveStatus(r.Status, r.Quantity, r.MinQuantity, true)
		case *u.Maintenance:
			r.Status = model.StatusMaintenance
		default:
			r.Status = RecomputeStatus(r.Quantity, r.MinQuantity)
		}

		if err := store.UpdateResourceDetails(ctx, tx, r, version); err != nil {
			return err
		}
		if err := store.AppendAudit(ctx, tx, &actorID, store.AuditResourceUpdate, "resource", id,
			map[string]any{"previous_status": before, "status": r.Status, "min_quantity": r.MinQuantity}); err != nil {
			return err
		}

		s.notifyLowStock(after, &LedgerResult{
			ResourceID:     r.ID,
			Name:           r.Name,
			Before:         before,
			BeforeQuantity: r.Quantity,
			NewQuantity:    r.Quantity,
			NewStatus:      r.Status,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store.GetResource(ctx, s.db, id)
}

// DeleteResource soft-deletes a resource. It is refused while open
// transactions or reservations still reference it.
func (s *Service) DeleteResource(ctx context.Context, actorID, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.delete_resource",
		trace.WithAttributes(attribute.Int64("resource.id", id)),
	)
	defer func() { endSpan(span, err) }()

	err = s.unitOfWork(ctx, "delete resource", func(tx *sql.Tx, _ *afterCommit) error {
		r, err := store.GetResource(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil || r.DeletedAt != nil {
			return errorf(KindNotFound, "resource %d not found", id)
		}

		open, err := store.CountOpenReferences(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return errorf(KindConflict, "resource %s has %d open transactions or reservations", r.Name, open)
		}

		if err := store.SoftDeleteResource(ctx, tx, id); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, &actorID, store.AuditResourceDelete, "resource", id,
			map[string]any{"name": r.Name, "quantity": r.Quantity})
	})
	if err != nil {
		return err
	}

	s.logger.Info("resource deleted", "id", id, "user_id", actorID)
	return nil
}
