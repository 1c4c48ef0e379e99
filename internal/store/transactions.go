package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/inventar/internal/model"
)

const selectTransactionColumns = `
	t.id, t.resource_id, t.user_id, t.transaction_type, t.quantity, t.status,
	t.scheduled_return_date, t.actual_return_date, t.notes, t.created_at, t.updated_at,
	r.name AS resource_name, u.username`

const transactionJoins = `
	FROM transactions t
	JOIN resources r ON r.id = t.resource_id
	JOIN users u ON u.id = t.user_id`

func scanTransaction(s scanner) (*model.Transaction, error) {
	var t model.Transaction
	var txType, status string
	var notes sql.NullString
	if err := s.Scan(&t.ID, &t.ResourceID, &t.UserID, &txType, &t.Quantity, &status,
		&t.ScheduledReturnDate, &t.ActualReturnDate, &notes, &t.CreatedAt, &t.UpdatedAt,
		&t.ResourceName, &t.Username); err != nil {
		return nil, err
	}
	t.Type = model.TransactionType(txType)
	t.Status = model.TransactionStatus(status)
	t.Notes = notes.String
	return &t, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// InsertTransaction appends a transaction record and fills in its ID.
func InsertTransaction(ctx context.Context, q Querier, t *model.Transaction) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO transactions (resource_id, user_id, transaction_type, quantity, status,
		                           scheduled_return_date, actual_return_date, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ResourceID, t.UserID, string(t.Type), t.Quantity, string(t.Status),
		utcPtr(t.ScheduledReturnDate), utcPtr(t.ActualReturnDate), nullString(t.Notes),
	)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting transaction id: %w", err)
	}
	t.ID = id
	return nil
}

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, q Querier, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+selectTransactionColumns+transactionJoins+` WHERE t.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// SetTransactionStatus moves a transaction from one status to another. The
// update only applies if the row is still in status from; otherwise
// ErrVersionConflict is returned. Non-empty notes replace the stored notes.
func SetTransactionStatus(ctx context.Context, q Querier, id int64, from, to model.TransactionStatus, notes string, actualReturn *time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE transactions
		 SET status = ?,
		     notes = COALESCE(?, notes),
		     actual_return_date = COALESCE(?, actual_return_date),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(to), nullString(notes), utcPtr(actualReturn), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating transaction status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transaction status update: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	ResourceID int64
	UserID     int64
	Type       model.TransactionType
	Status     model.TransactionStatus
	Limit      int
}

// ListTransactions returns transactions matching the filter, newest first.
func ListTransactions(ctx context.Context, q Querier, f TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + transactionJoins + ` WHERE 1=1`
	var args []any

	if f.ResourceID > 0 {
		query += ` AND t.resource_id = ?`
		args = append(args, f.ResourceID)
	}
	if f.UserID > 0 {
		query += ` AND t.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		query += ` AND t.transaction_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		query += ` AND t.status = ?`
		args = append(args, string(f.Status))
	}

	query += ` ORDER BY t.created_at DESC, t.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListOverdueTransactions returns approved check-outs whose scheduled return
// date is before now and that have not been returned, oldest due date first.
func ListOverdueTransactions(ctx context.Context, q Querier, now time.Time) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectTransactionColumns+transactionJoins+`
		 WHERE t.transaction_type = 'check_out'
		   AND t.status = 'approved'
		   AND t.actual_return_date IS NULL
		   AND t.scheduled_return_date < ?
		 ORDER BY t.scheduled_return_date`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing overdue transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// utcPtr converts an optional timestamp to a driver value in UTC so stored
// values compare correctly as text.
func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// TransactionStats summarizes open transactions for the dashboard.
type TransactionStats struct {
	Pending           int `json:"pending"`
	ActiveCheckOuts   int `json:"active_check_outs"`
	Overdue           int `json:"overdue"`
	CompletedThisWeek int `json:"completed_this_week"`
}

// GetTransactionStats counts pending transactions, unreturned check-outs and
// those among them that are past due at now.
func GetTransactionStats(ctx context.Context, q Querier, now time.Time) (*TransactionStats, error) {
	s := &TransactionStats{}
	now = now.UTC()
	err := q.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN transaction_type = 'check_out' AND status = 'approved'
		                      AND actual_return_date IS NULL THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN transaction_type = 'check_out' AND status = 'approved'
		                      AND actual_return_date IS NULL AND scheduled_return_date < ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = 'completed' AND updated_at >= ? THEN 1 ELSE 0 END), 0)
		 FROM transactions`,
		now, now.AddDate(0, 0, -7),
	).Scan(&s.Pending, &s.ActiveCheckOuts, &s.Overdue, &s.CompletedThisWeek)
	if err != nil {
		return nil, fmt.Errorf("getting transaction stats: %w", err)
	}
	return s, nil
}
