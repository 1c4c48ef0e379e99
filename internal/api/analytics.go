package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/store"
)

// AnalyticsHandler serves aggregate figures for the dashboard.
type AnalyticsHandler struct {
	DB *sql.DB
}

type dashboardStats struct {
	Resources           *store.ResourceStats    `json:"resources"`
	Transactions        *store.TransactionStats `json:"transactions"`
	UnreadNotifications int                     `json:"unread_notifications"`
}

// DashboardStats handles GET /api/analytics/dashboard-stats.
func (h *AnalyticsHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resources, err := store.GetResourceStats(ctx, h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := store.GetTransactionStats(ctx, h.DB, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread, err := store.ListNotifications(ctx, h.DB, GetClaims(ctx).UserID, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, dashboardStats{
		Resources:           resources,
		Transactions:        txs,
		UnreadNotifications: len(unread),
	})
}
