package model

import "time"

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationApproved  = "approved"
	ReservationRejected  = "rejected"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Reservation books a quantity of a resource for a time window.
type Reservation struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resource_id"`
	UserID     int64     `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Quantity   int       `json:"quantity"`
	Purpose    string    `json:"purpose,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ResourceName string `json:"resource_name,omitempty"`
	Username     string `json:"username,omitempty"`
}
