package model

import "time"

// TransactionType is the kind of inventory-affecting event.
type TransactionType string

// Transaction types.
const (
	TypeCheckOut TransactionType = "check_out"
	TypeCheckIn  TransactionType = "check_in"
	TypeAddition TransactionType = "addition"
	TypeRemoval  TransactionType = "removal"
)

// TransactionStatus is the approval lifecycle state of a transaction.
type TransactionStatus string

// Transaction statuses.
const (
	TxPending   TransactionStatus = "pending"
	TxApproved  TransactionStatus = "approved"
	TxRejected  TransactionStatus = "rejected"
	TxCompleted TransactionStatus = "completed"
)

// Transaction is a single inventory-affecting event.
type Transaction struct {
	ID                  int64             `json:"id"`
	ResourceID          int64             `json:"resource_id"`
	UserID              int64             `json:"user_id"`
	Type                TransactionType   `json:"transaction_type"`
	Quantity            int               `json:"quantity"`
	Status              TransactionStatus `json:"status"`
	ScheduledReturnDate *time.Time        `json:"scheduled_return_date,omitempty"`
	ActualReturnDate    *time.Time        `json:"actual_return_date,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	// Joined fields (not always populated).
	ResourceName string `json:"resource_name,omitempty"`
	Username     string `json:"username,omitempty"`
}

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeCheckOut, TypeCheckIn, TypeAddition, TypeRemoval:
		return true
	}
	return false
}

// Terminal reports whether the transaction can no longer change.
func (t *Transaction) Terminal() bool {
	return t.Status == TxCompleted
}
