package model

import "time"

// Notification types.
const (
	NotificationLowStock      = "low_stock"
	NotificationResourceAdded = "resource_added"
	NotificationOverdue       = "overdue"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	Type              string     `json:"type"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64     `json:"related_entity_id,omitempty"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AuditEntry records one state-changing action.
type AuditEntry struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
