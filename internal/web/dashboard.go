package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

const dashboardListSize = 10

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := GetWebClaims(ctx)

	stats, err := store.GetResourceStats(ctx, s.DB)
	if err != nil {
		slog.Error("failed to get resource stats for dashboard", "error", err)
		stats = &store.ResourceStats{}
	}
	txStats, err := store.GetTransactionStats(ctx, s.DB, time.Now())
	if err != nil {
		slog.Error("failed to get transaction stats for dashboard", "error", err)
		txStats = &store.TransactionStats{}
	}
	lowStock, err := store.ListLowStockResources(ctx, s.DB)
	if err != nil {
		slog.Error("failed to list low stock for dashboard", "error", err)
	}
	mine, err := s.Svc.UserTransactions(ctx, claims.UserID)
	if err != nil {
		slog.Error("failed to list own transactions for dashboard", "error", err)
	}
	notifications, err := store.ListNotifications(ctx, s.DB, claims.UserID, true)
	if err != nil {
		slog.Error("failed to list notifications for dashboard", "error", err)
	}

	var overdue, pending []model.Transaction
	if model.RoleAtLeast(claims.Role, model.RoleStaff) {
		if overdue, err = s.Svc.OverdueTransactions(ctx); err != nil {
			slog.Error("failed to list overdue transactions for dashboard", "error", err)
		}
		if pending, err = store.ListTransactions(ctx, s.DB, store.TransactionFilter{Status: model.TxPending}); err != nil {
			slog.Error("failed to list pending transactions for dashboard", "error", err)
		}
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Stats         *store.ResourceStats
		TxStats       *store.TransactionStats
		LowStock      []model.Resource
		Overdue       []model.Transaction
		Pending       []model.Transaction
		Mine          []model.Transaction
		Notifications []model.Notification
	}{
		PageData:      s.page(r, "Dashboard"),
		Stats:         stats,
		TxStats:       txStats,
		LowStock:      truncate(lowStock, dashboardListSize),
		Overdue:       overdue,
		Pending:       pending,
		Mine:          truncate(mine, dashboardListSize),
		Notifications: notifications,
	})
}

// NotificationReadSubmit handles POST /notifications/{id}/read.
func (s *Server) NotificationReadSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := store.MarkNotificationRead(r.Context(), s.DB, id, claims.UserID); err != nil {
		slog.Error("failed to mark notification read", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// redirectWith redirects to path carrying a one-off message for the next page.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, message string) {
	http.Redirect(w, r, path+"?"+url.Values{key: {message}}.Encode(), http.StatusSeeOther)
}
