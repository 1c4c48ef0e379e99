package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

const selectUserColumns = `id, username, full_name, password_hash, role, department, created_at, deleted_at`

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var department sql.NullString
	if err := s.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &department,
		&u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	u.Department = department.String
	return &u, nil
}

// CreateUser creates a new user. Username, password hash and role are
// required; full name and department are copied from u.
func CreateUser(ctx context.Context, q Querier, u *model.User) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (username, full_name, password_hash, role, department) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.FullName, u.PasswordHash, u.Role, nullString(u.Department),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, q Querier, username string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListUserIDsByRole returns IDs of active users holding any of the given roles.
func ListUserIDsByRole(ctx context.Context, q Querier, roles ...string) ([]int64, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	query := `SELECT id FROM users WHERE deleted_at IS NULL AND role IN (?` + repeatPlaceholders(len(roles)-1) + `) ORDER BY id`
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = r
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateUser updates a user's role, full name and department.
func UpdateUser(ctx context.Context, q Querier, id int64, role, fullName, department string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET role = ?, full_name = ?, department = ? WHERE id = ? AND deleted_at IS NULL`,
		role, fullName, nullString(department), id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id int64, passwordHash string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

func repeatPlaceholders(n int) string {
	s := ""
	for range n {
		s += ", ?"
	}
	return s
}
