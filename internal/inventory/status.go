package inventory

import "github.com/erazemk/inventar/internal/model"

// RecomputeStatus derives the stock status from quantity and threshold.
func RecomputeStatus(quantity, minQuantity int) model.ResourceStatus {
	switch {
	case quantity <= 0:
		return model.StatusOutOfStock
	case quantity <= minQuantity:
		return model.StatusLowStock
	default:
		return model.StatusAvailable
	}
}

// DeriveStatus returns the status a resource should have after a write.
// Maintenance survives only when keepMaintenance is set.
func DeriveStatus(current model.ResourceStatus, quantity, minQuantity int, keepMaintenance bool) model.ResourceStatus {
	if keepMaintenance && current == model.StatusMaintenance {
		return model.StatusMaintenance
	}
	return RecomputeStatus(quantity, minQuantity)
}

func isLowStock(s model.ResourceStatus) bool {
	return s == model.StatusLowStock || s == model.StatusOutOfStock
}
