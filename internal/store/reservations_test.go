package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestReservations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "teacher", model.RoleTeacher)
	r := mustCreateResource(t, database, "Projector", 3, 1, model.StatusAvailable)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first := &model.Reservation{
		ResourceID: r.ID, UserID: u.ID, Quantity: 2, Purpose: "Lecture",
		StartTime: start, EndTime: start.Add(2 * time.Hour), Status: model.ReservationPending,
	}
	if err := InsertReservation(ctx, database, first); err != nil {
		t.Fatalf("InsertReservation: %v", err)
	}

	got, err := GetReservation(ctx, database, first.ID)
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.Purpose != "Lecture" || got.ResourceName != "Projector" || !got.StartTime.Equal(start) {
		t.Errorf("unexpected reservation: %+v", got)
	}

	// Overlapping window.
	n, err := ReservedQuantity(ctx, database, r.ID, start.Add(time.Hour), start.Add(3*time.Hour), 0)
	if err != nil {
		t.Fatalf("ReservedQuantity: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 reserved, got %d", n)
	}

	// Back-to-back windows do not overlap.
	n, _ = ReservedQuantity(ctx, database, r.ID, start.Add(2*time.Hour), start.Add(3*time.Hour), 0)
	if n != 0 {
		t.Errorf("expected 0 reserved for adjacent window, got %d", n)
	}

	n, _ = ReservedQuantity(ctx, database, r.ID, start, start.Add(time.Hour), first.ID)
	if n != 0 {
		t.Errorf("expected excluded reservation not to count, got %d", n)
	}

	if err := SetReservationStatus(ctx, database, first.ID, model.ReservationPending, model.ReservationCancelled); err != nil {
		t.Fatalf("SetReservationStatus: %v", err)
	}
	err = SetReservationStatus(ctx, database, first.ID, model.ReservationPending, model.ReservationApproved)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	mine, _ := ListReservations(ctx, database, ReservationFilter{UserID: u.ID})
	if len(mine) != 1 || mine[0].Status != model.ReservationCancelled {
		t.Errorf("unexpected reservations: %+v", mine)
	}
}
