// Package notify delivers inventory events to people: as in-app
// notifications, to an outbound webhook, or both.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// overdueRepeatHours keeps the overdue sweep from nagging more than once a day.
const overdueRepeatHours = 24

// Store is an inventory.Notifier that records notifications in the database.
// Stock events go to every admin and staff user; overdue reminders go to the
// borrower.
type Store struct {
	DB *sql.DB
}

// NewStore creates an in-app notifier.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) broadcast(ctx context.Context, n model.Notification) error {
	ids, err := store.ListUserIDsByRole(ctx, s.DB, model.RoleAdmin, model.RoleStaff)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		msg := n
		msg.UserID = id
		if err := store.InsertNotification(ctx, s.DB, &msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Store) NotifyLowStock(ctx context.Context, resourceID int64, name string, remaining int) error {
	title := "Low stock: " + name
	message := fmt.Sprintf("%s has %d left.", name, remaining)
	if remaining == 0 {
		title = "Out of stock: " + name
		message = name + " is out of stock."
	}
	return s.broadcast(ctx, model.Notification{
		Title:             title,
		Message:           message,
		Type:              model.NotificationLowStock,
		RelatedEntityType: "resource",
		RelatedEntityID:   &resourceID,
	})
}

func (s *Store) NotifyResourceAdded(ctx context.Context, resourceID int64, name string, quantity int) error {
	return s.broadcast(ctx, model.Notification{
		Title:             "New resource: " + name,
		Message:           fmt.Sprintf("%s was added with %d units.", name, quantity),
		Type:              model.NotificationResourceAdded,
		RelatedEntityType: "resource",
		RelatedEntityID:   &resourceID,
	})
}

func (s *Store) NotifyOverdue(ctx context.Context, tx model.Transaction) error {
	recent, err := store.HasRecentNotification(ctx, s.DB, tx.UserID, model.NotificationOverdue, tx.ID, overdueRepeatHours)
	if err != nil {
		return err
	}
	if recent {
		return nil
	}

	message := fmt.Sprintf("Please return %d × %s.", tx.Quantity, tx.ResourceName)
	if tx.ScheduledReturnDate != nil {
		message = fmt.Sprintf("Please return %d × %s, due %s.",
			tx.Quantity, tx.ResourceName, tx.ScheduledReturnDate.Format("2006-01-02"))
	}

	id := tx.ID
	return store.InsertNotification(ctx, s.DB, &model.Notification{
		UserID:            tx.UserID,
		Title:             "Overdue: " + tx.ResourceName,
		Message:           message,
		Type:              model.NotificationOverdue,
		RelatedEntityType: "transaction",
		RelatedEntityID:   &id,
	})
}
