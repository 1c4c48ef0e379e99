// Package inventory keeps resource quantities and transaction records
// consistent. Every change to a resource's quantity goes through Service.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// maxAttempts bounds retries of a unit of work that lost a version race.
const maxAttempts = 3

// Service is the transaction state machine.
type Service struct {
	db       *sql.DB
	notifier Notifier
	policy   Policy
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the approval policy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for retries and notification failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service. A nil notifier discards notifications.
func NewService(db *sql.DB, notifier Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	s := &Service{
		db:       db,
		notifier: notifier,
		policy:   DefaultPolicy(),
		now:      time.Now,
		tracer:   otel.Tracer("inventar/inventory"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the approval policy in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// afterCommit collects work to run once the unit of work has committed.
type afterCommit []func(context.Context)

func (a *afterCommit) add(f func(context.Context)) {
	*a = append(*a, f)
}

// unitOfWork runs fn in a database transaction and retries it when a
// compare-and-set lost to a concurrent writer. Work registered on after runs
// only if the final attempt commits.
func (s *Service) unitOfWork(ctx context.Context, op string, fn func(tx *sql.Tx, after *afterCommit) error) error {
	span := trace.SpanFromContext(ctx)

	for attempt := 1; ; attempt++ {
		var after afterCommit
		err := s.runTx(ctx, func(tx *sql.Tx) error { return fn(tx, &after) })
		if err == nil {
			for _, f := range after {
				f(ctx)
			}
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}

		span.AddEvent("version.conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
		if attempt == maxAttempts {
			return errorf(KindConflict, "%s: resource changed concurrently, try again", op)
		}
		s.logger.Warn("retrying after concurrent update", "op", op, "attempt", attempt)
	}
}

func (s *Service) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// notifyLowStock queues a low-stock notification if the ledger write moved
// the resource into low or out of stock.
func (s *Service) notifyLowStock(after *afterCommit, res *LedgerResult) {
	if res == nil || !res.enteredLowStock() {
		return
	}
	r := *res
	after.add(func(ctx context.Context) {
		if err := s.notifier.NotifyLowStock(ctx, r.ResourceID, r.Name, r.NewQuantity); err != nil {
			s.logger.Error("low stock notification failed", "resource_id", r.ResourceID, "error", err)
		}
	})
}

// CreateTransaction records a new inventory event for actorID and applies
// its ledger change, all in one unit of work.
func (s *Service) CreateTransaction(ctx context.Context, actorID int64, req Request) (_ *model.Transaction, err error) {
	if req == nil {
		return nil, errorf(KindValidation, "request is required")
	}
	f := req.fields()

	ctx, span := s.tracer.Start(ctx, "inventory.create_transaction",
		trace.WithAttributes(
			attribute.String("transaction.type", string(req.Type())),
			attribute.Int64("resource.id", f.resourceID),
			attribute.Int("quantity", f.quantity),
		),
	)
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := s.policy.initialStatus(req.Type())

	var id int64
	err = s.unitOfWork(ctx, "create transaction", func(tx *sql.Tx, after *afterCommit) error {
		r, err := store.GetResource(ctx, tx, f.resourceID)
		if err != nil {
			return err
		}
		if r == nil || r.DeletedAt != nil {
			return errorf(KindNotFound, "resource %d not found", f.resourceID)
		}

		// Pending check-outs do not touch the ledger yet but must still fit.
		if req.Type() == model.TypeCheckOut && f.quantity > r.Quantity {
			return errorf(KindInsufficientQuantity,
				"insufficient quantity of %s: %d available, %d requested", r.Name, r.Quantity, f.quantity)
		}

		t := &model.Transaction{
			ResourceID:          r.ID,
			UserID:              actorID,
			Type:                req.Type(),
			Quantity:            f.quantity,
			Status:              status,
			ScheduledReturnDate: f.dueDate,
			Notes:               f.notes,
		}
		if t.Type == model.TypeCheckIn && status == model.TxCompleted {
			now := s.now().UTC()
			t.ActualReturnDate = &now
		}

		var res *LedgerResult
		if delta := creationDelta(t.Type, status, t.Quantity); delta != 0 {
			res, err = applyDelta(ctx, tx, r.ID, delta)
			if err != nil {
				return err
			}
		}

		if err := store.InsertTransaction(ctx, tx, t); err != nil {
			return err
		}
		if err := store.AppendAudit(ctx, tx, &actorID, store.AuditTransactionCreate, "transaction", t.ID,
			transactionAudit(t.Type, "", status, t.Quantity, res)); err != nil {
			return err
		}

		id = t.ID
		s.notifyLowStock(after, res)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("transaction.id", id))
	s.logger.Info("transaction recorded",
		"id", id,
		"type", req.Type(),
		"resource_id", f.resourceID,
		"quantity", f.quantity,
		"status", status,
		"user_id", actorID,
	)

	return store.GetTransaction(ctx, s.db, id)
}

// UpdateTransactionStatus moves a transaction to a new status, applying the
// ledger change the transition implies. Non-empty notes replace the stored
// notes.
func (s *Service) UpdateTransactionStatus(ctx context.Context, actorID, id int64, to model.TransactionStatus, notes string) (_ *model.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.update_transaction_status",
		trace.WithAttributes(
			attribute.Int64("transaction.id", id),
			attribute.String("transaction.status", string(to)),
		),
	)
	defer func() { endSpan(span, err) }()

	if !validTransactionStatus(to) {
		return nil, errorf(KindValidation, "invalid status %q", to)
	}

	var from model.TransactionStatus
	err = s.unitOfWork(ctx, "update transaction status", func(tx *sql.Tx, after *afterCommit) error {
		t, err := store.GetTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return errorf(KindNotFound, "transaction %d not found", id)
		}

		delta, err := checkTransition(t, to)
		if err != nil {
			return err
		}

		var res *LedgerResult
		if delta != 0 {
			res, err = applyDelta(ctx, tx, t.ResourceID, delta)
			if err != nil {
				return err
			}
		}

		var returned *time.Time
		if to == model.TxCompleted && t.Type == model.TypeCheckIn {
			now := s.now().UTC()
			returned = &now
		}

		if err := store.SetTransactionStatus(ctx, tx, id, t.Status, to, notes, returned); err != nil {
			return err
		}
		if err := store.AppendAudit(ctx, tx, &actorID, store.AuditTransactionStatus, "transaction", id,
			transactionAudit(t.Type, t.Status, to, t.Quantity, res)); err != nil {
			return err
		}

		from = t.Status
		s.notifyLowStock(after, res)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction status changed", "id", id, "from", from, "to", to, "user_id", actorID)

	return store.GetTransaction(ctx, s.db, id)
}

func transactionAudit(t model.TransactionType, from, to model.TransactionStatus, quantity int, res *LedgerResult) map[string]any {
	d := map[string]any{
		"transaction_type": t,
		"status":           to,
		"quantity":         quantity,
	}
	if from != "" {
		d["previous_status"] = from
	}
	if res != nil {
		d["resource_id"] = res.ResourceID
		d["quantity_before"] = res.BeforeQuantity
		d["quantity_after"] = res.NewQuantity
		d["resource_status"] = res.NewStatus
	}
	return d
}

// OverdueTransactions returns approved check-outs past their return date.
func (s *Service) OverdueTransactions(ctx context.Context) ([]model.Transaction, error) {
	return store.ListOverdueTransactions(ctx, s.db, s.now())
}

// UserTransactions returns a user's transactions, newest first.
func (s *Service) UserTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return store.ListTransactions(ctx, s.db, store.TransactionFilter{UserID: userID})
}

// SweepOverdue notifies borrowers of overdue check-outs and returns how many
// reminders the notifier accepted. With an asynchronous notifier that is the
// number queued, not delivered.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.OverdueTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing overdue transactions: %w", err)
	}

	accepted := 0
	for _, t := range overdue {
		if err := s.notifier.NotifyOverdue(ctx, t); err != nil {
			s.logger.Error("overdue notification failed", "transaction_id", t.ID, "error", err)
			continue
		}
		accepted++
	}
	return accepted, nil
}

// LowStockDigest re-announces every resource that is low or out of stock and,
// like SweepOverdue, returns how many announcements the notifier accepted.
func (s *Service) LowStockDigest(ctx context.Context) (int, error) {
	resources, err := store.ListLowStockResources(ctx, s.db)
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, r := range resources {
		if err := s.notifier.NotifyLowStock(ctx, r.ID, r.Name, r.Quantity); err != nil {
			s.logger.Error("low stock notification failed", "resource_id", r.ID, "error", err)
			continue
		}
		accepted++
	}
	return accepted, nil
}
