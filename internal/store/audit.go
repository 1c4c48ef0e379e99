package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

// Audit actions.
const (
	AuditResourceCreate    = "resource_create"
	AuditResourceUpdate    = "resource_update"
	AuditResourceDelete    = "resource_delete"
	AuditTransactionCreate = "transaction_create"
	AuditTransactionStatus = "transaction_status"
	AuditReservationCreate = "reservation_create"
	AuditReservationStatus = "reservation_status"
)

// AppendAudit records an action. details is encoded as JSON.
func AppendAudit(ctx context.Context, q Querier, userID *int64, action, entityType string, entityID int64, details any) error {
	var encoded sql.NullString
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding audit details: %w", err)
		}
		encoded = sql.NullString{String: string(b), Valid: true}
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details) VALUES (?, ?, ?, ?, ?)`,
		userID, action, entityType, entityID, encoded,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries for an entity, newest first.
func ListAudit(ctx context.Context, q Querier, entityType string, entityID int64) ([]model.AuditEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, details, created_at
		 FROM audit_logs WHERE entity_type = ? AND entity_id = ?
		 ORDER BY id DESC`, entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
