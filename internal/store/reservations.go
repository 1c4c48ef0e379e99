package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/inventar/internal/model"
)

const selectReservationColumns = `
	v.id, v.resource_id, v.user_id, v.start_time, v.end_time, v.quantity, v.purpose,
	v.status, v.created_at, v.updated_at, r.name AS resource_name, u.username`

const reservationJoins = `
	FROM reservations v
	JOIN resources r ON r.id = v.resource_id
	JOIN users u ON u.id = v.user_id`

func scanReservation(s scanner) (*model.Reservation, error) {
	var v model.Reservation
	var purpose sql.NullString
	if err := s.Scan(&v.ID, &v.ResourceID, &v.UserID, &v.StartTime, &v.EndTime, &v.Quantity, &purpose,
		&v.Status, &v.CreatedAt, &v.UpdatedAt, &v.ResourceName, &v.Username); err != nil {
		return nil, err
	}
	v.Purpose = purpose.String
	return &v, nil
}

// InsertReservation stores a new reservation and fills in its ID.
func InsertReservation(ctx context.Context, q Querier, v *model.Reservation) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO reservations (resource_id, user_id, start_time, end_time, quantity, purpose, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ResourceID, v.UserID, v.StartTime.UTC(), v.EndTime.UTC(), v.Quantity, nullString(v.Purpose), v.Status,
	)
	if err != nil {
		return fmt.Errorf("creating reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting reservation id: %w", err)
	}
	v.ID = id
	return nil
}

// GetReservation returns a reservation by ID.
func GetReservation(ctx context.Context, q Querier, id int64) (*model.Reservation, error) {
	v, err := scanReservation(q.QueryRowContext(ctx,
		`SELECT `+selectReservationColumns+reservationJoins+` WHERE v.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return v, nil
}

// ReservationFilter narrows ListReservations. Zero values mean "no filter".
type ReservationFilter struct {
	ResourceID int64
	UserID     int64
	Status     string
}

// ListReservations returns reservations matching the filter, soonest first.
func ListReservations(ctx context.Context, q Querier, f ReservationFilter) ([]model.Reservation, error) {
	query := `SELECT ` + selectReservationColumns + reservationJoins + ` WHERE 1=1`
	var args []any

	if f.ResourceID > 0 {
		query += ` AND v.resource_id = ?`
		args = append(args, f.ResourceID)
	}
	if f.UserID > 0 {
		query += ` AND v.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		query += ` AND v.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY v.start_time, v.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		v, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, *v)
	}
	return reservations, rows.Err()
}

// ReservedQuantity sums pending and approved reservations of a resource that
// overlap the window [start, end). excludeID skips one reservation.
func ReservedQuantity(ctx context.Context, q Querier, resourceID int64, start, end time.Time, excludeID int64) (int, error) {
	var total int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM reservations
		 WHERE resource_id = ? AND id != ?
		   AND status IN ('pending', 'approved')
		   AND start_time < ? AND end_time > ?`,
		resourceID, excludeID, end.UTC(), start.UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing reserved quantity: %w", err)
	}
	return total, nil
}

// SetReservationStatus moves a reservation from one status to another.
// Returns ErrVersionConflict if the reservation is no longer in status from.
func SetReservationStatus(ctx context.Context, q Querier, id int64, from, to string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking reservation status update: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}
