package inventory

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ReservationParams describes a booking request.
type ReservationParams struct {
	ResourceID int64
	Start      time.Time
	End        time.Time
	Quantity   int
	Purpose    string
}

var reservationTransitions = map[string][]string{
	model.ReservationPending:  {model.ReservationApproved, model.ReservationRejected, model.ReservationCancelled},
	model.ReservationApproved: {model.ReservationCompleted, model.ReservationCancelled},
}

func reservationTerminal(status string) bool {
	_, open := reservationTransitions[status]
	return !open
}

// checkCapacity fails if booking quantity more units of r over the window
// would exceed its stock.
func checkCapacity(ctx context.Context, q store.Querier, r *model.Resource, start, end time.Time, quantity int, excludeID int64) error {
	reserved, err := store.ReservedQuantity(ctx, q, r.ID, start, end, excludeID)
	if err != nil {
		return err
	}
	if reserved+quantity > r.Quantity {
		return errorf(KindInsufficientQuantity,
			"only %d of %s free in that window, %d requested", max(r.Quantity-reserved, 0), r.Name, quantity)
	}
	return nil
}

// CreateReservation books a resource for actorID. The reservation starts out
// pending.
func (s *Service) CreateReservation(ctx context.Context, actorID int64, p ReservationParams) (*model.Reservation, error) {
	if p.ResourceID <= 0 {
		return nil, errorf(KindValidation, "resource_id is required")
	}
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	if p.Quantity < 1 {
		return nil, errorf(KindValidation, "quantity must be at least 1")
	}
	if p.Start.IsZero() || !p.End.After(p.Start) {
		return nil, errorf(KindValidation, "end_time must be after start_time")
	}

	v := &model.Reservation{
		ResourceID: p.ResourceID,
		UserID:     actorID,
		StartTime:  p.Start.UTC(),
		EndTime:    p.End.UTC(),
		Quantity:   p.Quantity,
		Purpose:    p.Purpose,
		Status:     model.ReservationPending,
	}

	err := s.unitOfWork(ctx, "create reservation", func(tx *sql.Tx, _ *afterCommit) error {
		r, err := store.GetResource(ctx, tx, p.ResourceID)
		if err != nil {
			return err
		}
		if r == nil || r.DeletedAt != nil {
			return errorf(KindNotFound, "resource %d not found", p.ResourceID)
		}
		if err := checkCapacity(ctx, tx, r, v.StartTime, v.EndTime, v.Quantity, 0); err != nil {
			return err
		}
		if err := store.InsertReservation(ctx, tx, v); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, &actorID, store.AuditReservationCreate, "reservation", v.ID,
			map[string]any{"resource_id": v.ResourceID, "quantity": v.Quantity})
	})
	if err != nil {
		return nil, err
	}

	return store.GetReservation(ctx, s.db, v.ID)
}

// UpdateReservationStatus moves a reservation to a new status. Approval
// re-checks that the window still has room.
func (s *Service) UpdateReservationStatus(ctx context.Context, actorID, id int64, to string) (*model.Reservation, error) {
	err := s.unitOfWork(ctx, "update reservation status", func(tx *sql.Tx, _ *afterCommit) error {
		v, err := store.GetReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return errorf(KindNotFound, "reservation %d not found", id)
		}
		if reservationTerminal(v.Status) {
			return errorf(KindTerminalState, "reservation %d is %s and cannot change", id, v.Status)
		}

		allowed := false
		for _, next := range reservationTransitions[v.Status] {
			if next == to {
				allowed = true
				break
			}
		}
		if !allowed {
			return errorf(KindInvalidTransition, "cannot move reservation from %s to %s", v.Status, to)
		}

		if to == model.ReservationApproved {
			r, err := store.GetResource(ctx, tx, v.ResourceID)
			if err != nil {
				return err
			}
			if r == nil || r.DeletedAt != nil {
				return errorf(KindNotFound, "resource %d not found", v.ResourceID)
			}
			if err := checkCapacity(ctx, tx, r, v.StartTime, v.EndTime, v.Quantity, v.ID); err != nil {
				return err
			}
		}

		if err := store.SetReservationStatus(ctx, tx, id, v.Status, to); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, &actorID, store.AuditReservationStatus, "reservation", id,
			map[string]any{"previous_status": v.Status, "status": to})
	})
	if err != nil {
		return nil, err
	}

	return store.GetReservation(ctx, s.db, id)
}
