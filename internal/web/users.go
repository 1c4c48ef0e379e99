package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: s.page(r, "Users"),
		Users:    users,
		Roles:    []string{model.RoleStudent, model.RoleTeacher, model.RoleStaff, model.RoleAdmin},
	})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	role := r.FormValue("role")
	if username == "" || !model.ValidRole(role) {
		redirectWith(w, r, "/users", "error", "Username and a valid role are required.")
		return
	}

	hash, err := auth.HashPassword(r.FormValue("password"))
	if err != nil {
		redirectWith(w, r, "/users", "error", "Password must be at least 8 characters.")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, &model.User{
		Username:     username,
		FullName:     r.FormValue("full_name"),
		PasswordHash: hash,
		Role:         role,
		Department:   r.FormValue("department"),
	}); err != nil {
		slog.Warn("failed to create user", "error", err)
		redirectWith(w, r, "/users", "error", "Username already exists.")
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	hash, err := auth.HashPassword(r.FormValue("new_password"))
	if err != nil {
		redirectWith(w, r, "/users", "error", "Password must be at least 8 characters.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		slog.Error("failed to reset password", "error", err)
	}
	slog.Info("user password reset", "user", claims.Username, "target_user_id", id)
	redirectWith(w, r, "/users", "ok", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	target, err := store.GetUser(r.Context(), s.DB, id)
	if err != nil || target == nil || !model.ValidRole(role) {
		redirectWith(w, r, "/users", "error", "Could not update user.")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, id, role, target.FullName, target.Department); err != nil {
		slog.Error("failed to update user role", "error", err)
	}
	slog.Info("user role updated", "user", claims.Username, "target_user", target.Username, "new_role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	p := s.page(r, "Settings")
	s.Templates.Render(w, "settings.html", &p)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	if currentPassword == "" || newPassword == "" {
		redirectWith(w, r, "/settings", "error", "Enter your current and new password.")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err)
	}
	if !auth.CheckPassword(user, currentPassword) {
		redirectWith(w, r, "/settings", "error", "Current password is incorrect.")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		redirectWith(w, r, "/settings", "error", "New password must be at least 8 characters.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		slog.Error("failed to update password", "error", err)
		redirectWith(w, r, "/settings", "error", "Could not update password.")
		return
	}

	slog.Info("user changed own password", "user", claims.Username, "via", "web")
	redirectWith(w, r, "/settings", "ok", "Password changed.")
}
