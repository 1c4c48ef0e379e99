package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestInsertAndGetTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "teacher", model.RoleTeacher)
	r := mustCreateResource(t, database, "Laptop", 10, 5, model.StatusAvailable)
	due := time.Now().Add(72 * time.Hour)

	tx := &model.Transaction{
		ResourceID:          r.ID,
		UserID:              u.ID,
		Type:                model.TypeCheckOut,
		Quantity:            2,
		Status:              model.TxApproved,
		ScheduledReturnDate: &due,
		Notes:               "Science fair",
	}
	if err := InsertTransaction(ctx, database, tx); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	got, err := GetTransaction(ctx, database, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Type != model.TypeCheckOut || got.Status != model.TxApproved || got.Quantity != 2 {
		t.Errorf("unexpected transaction: %+v", got)
	}
	if got.ResourceName != "Laptop" || got.Username != "teacher" {
		t.Errorf("expected joined names, got %q/%q", got.ResourceName, got.Username)
	}
	if got.ScheduledReturnDate == nil || !got.ScheduledReturnDate.Truncate(time.Second).Equal(due.Truncate(time.Second)) {
		t.Errorf("expected scheduled return %v, got %v", due, got.ScheduledReturnDate)
	}
	if got.ActualReturnDate != nil {
		t.Errorf("expected no actual return date, got %v", got.ActualReturnDate)
	}

	missing, _ := GetTransaction(ctx, database, 9999)
	if missing != nil {
		t.Error("expected nil for missing transaction")
	}
}

func TestSetTransactionStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "student", model.RoleStudent)
	r := mustCreateResource(t, database, "Calculator", 30, 5, model.StatusAvailable)

	tx := &model.Transaction{ResourceID: r.ID, UserID: u.ID, Type: model.TypeCheckIn, Quantity: 1, Status: model.TxApproved}
	if err := InsertTransaction(ctx, database, tx); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	now := time.Now()
	if err := SetTransactionStatus(ctx, database, tx.ID, model.TxApproved, model.TxCompleted, "returned", &now); err != nil {
		t.Fatalf("SetTransactionStatus: %v", err)
	}

	// The row is no longer approved.
	err := SetTransactionStatus(ctx, database, tx.ID, model.TxApproved, model.TxRejected, "", nil)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := GetTransaction(ctx, database, tx.ID)
	if got.Status != model.TxCompleted || got.Notes != "returned" || got.ActualReturnDate == nil {
		t.Errorf("unexpected transaction: %+v", got)
	}
}

func TestListTransactionsAndOverdue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := mustCreateUser(t, database, "alice", model.RoleTeacher)
	bob := mustCreateUser(t, database, "bob", model.RoleTeacher)
	r := mustCreateResource(t, database, "Tablet", 20, 5, model.StatusAvailable)

	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	for _, tx := range []*model.Transaction{
		{ResourceID: r.ID, UserID: alice.ID, Type: model.TypeCheckOut, Quantity: 1, Status: model.TxApproved, ScheduledReturnDate: &past},
		{ResourceID: r.ID, UserID: alice.ID, Type: model.TypeCheckOut, Quantity: 1, Status: model.TxApproved, ScheduledReturnDate: &future},
		{ResourceID: r.ID, UserID: bob.ID, Type: model.TypeCheckOut, Quantity: 1, Status: model.TxPending, ScheduledReturnDate: &past},
		{ResourceID: r.ID, UserID: bob.ID, Type: model.TypeAddition, Quantity: 5, Status: model.TxCompleted},
	} {
		if err := InsertTransaction(ctx, database, tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	mine, err := ListTransactions(ctx, database, TransactionFilter{UserID: alice.ID})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 transactions for alice, got %d", len(mine))
	}

	additions, _ := ListTransactions(ctx, database, TransactionFilter{Type: model.TypeAddition})
	if len(additions) != 1 {
		t.Errorf("expected 1 addition, got %d", len(additions))
	}

	overdue, err := ListOverdueTransactions(ctx, database, now)
	if err != nil {
		t.Fatalf("ListOverdueTransactions: %v", err)
	}
	if len(overdue) != 1 || overdue[0].UserID != alice.ID {
		t.Errorf("expected alice's single overdue check-out, got %+v", overdue)
	}
}

func TestCountOpenReferences(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "u", model.RoleTeacher)
	r := mustCreateResource(t, database, "Camera", 3, 1, model.StatusAvailable)

	n, _ := CountOpenReferences(ctx, database, r.ID)
	if n != 0 {
		t.Fatalf("expected 0 open references, got %d", n)
	}

	InsertTransaction(ctx, database, &model.Transaction{ResourceID: r.ID, UserID: u.ID, Type: model.TypeAddition, Quantity: 1, Status: model.TxCompleted})
	InsertTransaction(ctx, database, &model.Transaction{ResourceID: r.ID, UserID: u.ID, Type: model.TypeCheckIn, Quantity: 1, Status: model.TxPending})
	InsertReservation(ctx, database, &model.Reservation{
		ResourceID: r.ID, UserID: u.ID, Quantity: 1, Status: model.ReservationApproved,
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
	})

	n, err := CountOpenReferences(ctx, database, r.ID)
	if err != nil {
		t.Fatalf("CountOpenReferences: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 open references, got %d", n)
	}
}

func TestGetTransactionStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u := mustCreateUser(t, database, "teacher", model.RoleTeacher)
	r := mustCreateResource(t, database, "Projector", 10, 2, model.StatusAvailable)

	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	for _, tx := range []*model.Transaction{
		{Type: model.TypeCheckIn, Quantity: 1, Status: model.TxPending},
		{Type: model.TypeCheckOut, Quantity: 1, Status: model.TxApproved, ScheduledReturnDate: &past},
		{Type: model.TypeCheckOut, Quantity: 2, Status: model.TxApproved, ScheduledReturnDate: &future},
		{Type: model.TypeAddition, Quantity: 5, Status: model.TxCompleted},
		{Type: model.TypeCheckOut, Quantity: 1, Status: model.TxRejected, ScheduledReturnDate: &past},
	} {
		tx.ResourceID = r.ID
		tx.UserID = u.ID
		if err := InsertTransaction(ctx, database, tx); err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}

	stats, err := GetTransactionStats(ctx, database, now)
	if err != nil {
		t.Fatalf("GetTransactionStats: %v", err)
	}
	want := TransactionStats{Pending: 1, ActiveCheckOuts: 2, Overdue: 1, CompletedThisWeek: 1}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}
}
