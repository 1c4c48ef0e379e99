package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/inventory"
	webembed "github.com/erazemk/inventar/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, svc *inventory.Service, issuer *auth.Issuer) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Svc:       svc,
		Issuer:    issuer,
		Templates: templates,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(issuer, db)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))
	mux.Handle("POST /notifications/{id}/read", cookieAuth(http.HandlerFunc(s.NotificationReadSubmit)))

	mux.Handle("GET /resources", cookieAuth(http.HandlerFunc(s.ResourcesPage)))
	mux.Handle("POST /resources", cookieAuth(http.HandlerFunc(s.ResourceCreateSubmit)))
	mux.Handle("GET /resources/{id}", cookieAuth(http.HandlerFunc(s.ResourceDetailPage)))
	mux.Handle("POST /resources/{id}", cookieAuth(http.HandlerFunc(s.ResourceUpdateSubmit)))
	mux.Handle("POST /resources/{id}/delete", cookieAuth(http.HandlerFunc(s.ResourceDeleteSubmit)))
	mux.Handle("POST /resources/{id}/image", cookieAuth(http.HandlerFunc(s.ResourceImageSubmit)))
	mux.Handle("GET /resources/{id}/image", cookieAuth(http.HandlerFunc(s.ResourceImageGet)))
	mux.Handle("POST /resources/{id}/transactions", cookieAuth(http.HandlerFunc(s.TransactionCreateSubmit)))

	mux.Handle("GET /transactions", cookieAuth(http.HandlerFunc(s.TransactionsPage)))
	mux.Handle("POST /transactions/{id}/status", cookieAuth(http.HandlerFunc(s.TransactionStatusSubmit)))

	mux.Handle("GET /users", cookieAuth(http.HandlerFunc(s.UsersPage)))
	mux.Handle("POST /users", cookieAuth(http.HandlerFunc(s.UserCreateSubmit)))
	mux.Handle("POST /users/{id}/password", cookieAuth(http.HandlerFunc(s.UserResetPasswordSubmit)))
	mux.Handle("POST /users/{id}/role", cookieAuth(http.HandlerFunc(s.UserUpdateRoleSubmit)))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	return mux, nil
}
