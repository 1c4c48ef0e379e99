package inventory

import "github.com/erazemk/inventar/internal/model"

// Policy decides whether check-outs and check-ins take effect immediately or
// wait for staff approval.
type Policy struct {
	AutoApproveCheckOut bool
	AutoApproveCheckIn  bool
}

// DefaultPolicy approves everything immediately.
func DefaultPolicy() Policy {
	return Policy{AutoApproveCheckOut: true, AutoApproveCheckIn: true}
}

// initialStatus is the status a new transaction is recorded with.
func (p Policy) initialStatus(t model.TransactionType) model.TransactionStatus {
	switch t {
	case model.TypeCheckOut:
		if p.AutoApproveCheckOut {
			return model.TxApproved
		}
		return model.TxPending
	case model.TypeCheckIn:
		if p.AutoApproveCheckIn {
			return model.TxCompleted
		}
		return model.TxPending
	}
	return model.TxCompleted
}

// creationDelta is the ledger change applied when a transaction is recorded
// with the given status. Pending transactions do not move stock.
func creationDelta(t model.TransactionType, status model.TransactionStatus, quantity int) int {
	if status == model.TxPending {
		return 0
	}
	switch t {
	case model.TypeCheckOut, model.TypeRemoval:
		return -quantity
	case model.TypeCheckIn, model.TypeAddition:
		return quantity
	}
	return 0
}

type statusChange struct {
	from, to model.TransactionStatus
}

// transitions lists the allowed status changes and, per transaction type,
// the ledger delta sign they apply (0 for no ledger change).
var transitions = map[statusChange]map[model.TransactionType]int{
	{model.TxPending, model.TxApproved}: {
		model.TypeCheckOut: -1,
		model.TypeCheckIn:  0,
	},
	{model.TxPending, model.TxRejected}: {
		model.TypeCheckOut: 0,
		model.TypeCheckIn:  0,
		model.TypeAddition: 0,
		model.TypeRemoval:  0,
	},
	{model.TxApproved, model.TxCompleted}: {
		model.TypeCheckIn: 1,
	},
	{model.TxApproved, model.TxRejected}: {
		model.TypeCheckOut: 1,
	},
}

// checkTransition validates moving tx to status to and returns the ledger
// delta the move applies.
func checkTransition(tx *model.Transaction, to model.TransactionStatus) (int, error) {
	if tx.Terminal() {
		return 0, errorf(KindTerminalState, "transaction %d is completed and cannot change", tx.ID)
	}

	byType, ok := transitions[statusChange{tx.Status, to}]
	if !ok {
		return 0, errorf(KindInvalidTransition, "cannot move transaction from %s to %s", tx.Status, to)
	}
	sign, ok := byType[tx.Type]
	if !ok {
		return 0, errorf(KindInvalidTransition, "cannot move %s transaction from %s to %s", tx.Type, tx.Status, to)
	}
	return sign * tx.Quantity, nil
}

func validTransactionStatus(s model.TransactionStatus) bool {
	switch s {
	case model.TxPending, model.TxApproved, model.TxRejected, model.TxCompleted:
		return true
	}
	return false
}
