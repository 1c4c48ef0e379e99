package inventory

import (
	"time"

	"github.com/erazemk/inventar/internal/model"
)

// Request is a validated-before-use description of one inventory event.
// The concrete variants are CheckOut, CheckIn, Addition and Removal.
type Request interface {
	Type() model.TransactionType
	Validate() error
	fields() requestFields
}

type requestFields struct {
	resourceID int64
	quantity   int
	dueDate    *time.Time
	notes      string
}

// CheckOut lends units to a user until DueDate.
type CheckOut struct {
	ResourceID int64
	Quantity   int
	DueDate    *time.Time
	Notes      string
}

// CheckIn returns units to stock.
type CheckIn struct {
	ResourceID int64
	Quantity   int
	Notes      string
}

// Addition adds purchased or donated units.
type Addition struct {
	ResourceID int64
	Quantity   int
	Notes      string
}

// Removal writes off lost or broken units.
type Removal struct {
	ResourceID int64
	Quantity   int
	Notes      string
}

func (CheckOut) Type() model.TransactionType { return model.TypeCheckOut }
func (CheckIn) Type() model.TransactionType  { return model.TypeCheckIn }
func (Addition) Type() model.TransactionType { return model.TypeAddition }
func (Removal) Type() model.TransactionType  { return model.TypeRemoval }

func (r CheckOut) Validate() error {
	if err := validateCommon(r.ResourceID, r.Quantity); err != nil {
		return err
	}
	if r.DueDate == nil || r.DueDate.IsZero() {
		return errorf(KindMissingReturnDate, "scheduled return date is required for check-out")
	}
	return nil
}

func (r CheckIn) Validate() error  { return validateCommon(r.ResourceID, r.Quantity) }
func (r Addition) Validate() error { return validateCommon(r.ResourceID, r.Quantity) }
func (r Removal) Validate() error  { return validateCommon(r.ResourceID, r.Quantity) }

func (r CheckOut) fields() requestFields {
	return requestFields{resourceID: r.ResourceID, quantity: r.Quantity, dueDate: r.DueDate, notes: r.Notes}
}

func (r CheckIn) fields() requestFields {
	return requestFields{resourceID: r.ResourceID, quantity: r.Quantity, notes: r.Notes}
}

func (r Addition) fields() requestFields {
	return requestFields{resourceID: r.ResourceID, quantity: r.Quantity, notes: r.Notes}
}

func (r Removal) fields() requestFields {
	return requestFields{resourceID: r.ResourceID, quantity: r.Quantity, notes: r.Notes}
}

func validateCommon(resourceID int64, quantity int) error {
	if resourceID <= 0 {
		return errorf(KindValidation, "resource_id is required")
	}
	if quantity < 1 {
		return errorf(KindValidation, "quantity must be at least 1")
	}
	return nil
}

// ParseRequest builds a Request from its wire form. dueDate is only used for
// check-outs.
func ParseRequest(txType string, resourceID int64, quantity int, dueDate *time.Time, notes string) (Request, error) {
	switch model.TransactionType(txType) {
	case model.TypeCheckOut:
		return CheckOut{ResourceID: resourceID, Quantity: quantity, DueDate: dueDate, Notes: notes}, nil
	case model.TypeCheckIn:
		return CheckIn{ResourceID: resourceID, Quantity: quantity, Notes: notes}, nil
	case model.TypeAddition:
		return Addition{ResourceID: resourceID, Quantity: quantity, Notes: notes}, nil
	case model.TypeRemoval:
		return Removal{ResourceID: resourceID, Quantity: quantity, Notes: notes}, nil
	}
	return nil, errorf(KindInvalidTransactionType, "invalid transaction type %q", txType)
}
