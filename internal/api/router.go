package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

// NewRouter creates the API router with all endpoints registered. A nil
// limiter disables login throttling.
func NewRouter(db *sql.DB, svc *inventory.Service, issuer *auth.Issuer, limiter *LoginLimiter) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Issuer: issuer, Limiter: limiter}
	usersHandler := &UsersHandler{DB: db}
	categoriesHandler := &CategoriesHandler{DB: db}
	resourcesHandler := &ResourcesHandler{DB: db, Svc: svc}
	transactionsHandler := &TransactionsHandler{DB: db, Svc: svc}
	reservationsHandler := &ReservationsHandler{DB: db, Svc: svc}
	notificationsHandler := &NotificationsHandler{DB: db}
	analyticsHandler := &AnalyticsHandler{DB: db}

	authMW := AuthMiddleware(issuer, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleStaff)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Categories: read (all roles), write (staff+).
	mux.Handle("GET /api/categories", authMW(http.HandlerFunc(categoriesHandler.List)))
	mux.Handle("POST /api/categories", authMW(requireStaff(http.HandlerFunc(categoriesHandler.Create))))
	mux.Handle("DELETE /api/categories/{id}", authMW(requireStaff(http.HandlerFunc(categoriesHandler.Delete))))

	// Resources: read (all roles), write (staff+), delete (admin).
	mux.Handle("GET /api/resources", authMW(http.HandlerFunc(resourcesHandler.List)))
	mux.Handle("GET /api/resources/low-stock", authMW(http.HandlerFunc(resourcesHandler.LowStock)))
	mux.Handle("POST /api/resources", authMW(requireStaff(http.HandlerFunc(resourcesHandler.Create))))
	mux.Handle("GET /api/resources/{id}", authMW(http.HandlerFunc(resourcesHandler.Get)))
	mux.Handle("PUT /api/resources/{id}", authMW(requireStaff(http.HandlerFunc(resourcesHandler.Update))))
	mux.Handle("DELETE /api/resources/{id}", authMW(requireAdmin(http.HandlerFunc(resourcesHandler.Delete))))
	mux.Handle("PUT /api/resources/{id}/image", authMW(requireStaff(http.HandlerFunc(resourcesHandler.UploadImage))))
	mux.Handle("GET /api/resources/{id}/image", authMW(http.HandlerFunc(resourcesHandler.GetImage)))

	// Transactions: all roles may borrow and return; staff approve.
	mux.Handle("GET /api/transactions", authMW(http.HandlerFunc(transactionsHandler.List)))
	mux.Handle("POST /api/transactions", authMW(http.HandlerFunc(transactionsHandler.Create)))
	mux.Handle("GET /api/transactions/overdue", authMW(requireStaff(http.HandlerFunc(transactionsHandler.Overdue))))
	mux.Handle("GET /api/transactions/user", authMW(http.HandlerFunc(transactionsHandler.User)))
	mux.Handle("GET /api/transactions/{id}", authMW(http.HandlerFunc(transactionsHandler.Get)))
	mux.Handle("PATCH /api/transactions/{id}/status", authMW(requireStaff(http.HandlerFunc(transactionsHandler.UpdateStatus))))

	// Reservations.
	mux.Handle("GET /api/reservations", authMW(http.HandlerFunc(reservationsHandler.List)))
	mux.Handle("POST /api/reservations", authMW(http.HandlerFunc(reservationsHandler.Create)))
	mux.Handle("GET /api/reservations/{id}", authMW(http.HandlerFunc(reservationsHandler.Get)))
	mux.Handle("PATCH /api/reservations/{id}/status", authMW(requireStaff(http.HandlerFunc(reservationsHandler.UpdateStatus))))
	mux.Handle("POST /api/reservations/{id}/cancel", authMW(http.HandlerFunc(reservationsHandler.Cancel)))

	// Notifications and dashboard figures for the caller.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("GET /api/analytics/dashboard-stats", authMW(http.HandlerFunc(analyticsHandler.DashboardStats)))

	return mux
}
