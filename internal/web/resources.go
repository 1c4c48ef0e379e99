package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ResourcesPage handles GET /resources.
func (s *Server) ResourcesPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)

	resources, total, err := store.ListResources(r.Context(), s.DB, store.ResourceFilter{
		CategoryID: categoryID,
		Status:     model.ResourceStatus(q.Get("status")),
		Search:     q.Get("search"),
	})
	if err != nil {
		slog.Error("failed to list resources", "error", err)
	}
	categories, err := store.ListCategories(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	s.Templates.Render(w, "resources.html", &struct {
		PageData
		Resources  []model.Resource
		Total      int
		Categories []model.Category
		Search     string
	}{
		PageData:   s.page(r, "Resources"),
		Resources:  resources,
		Total:      total,
		Categories: categories,
		Search:     q.Get("search"),
	})
}

// ResourceDetailPage handles GET /resources/{id}.
func (s *Server) ResourceDetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	resource, err := store.GetResource(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get resource", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if resource == nil || resource.DeletedAt != nil {
		http.Error(w, "resource not found", http.StatusNotFound)
		return
	}

	claims := GetWebClaims(r.Context())
	filter := store.TransactionFilter{ResourceID: id, Limit: 25}
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		filter.UserID = claims.UserID
	}
	history, err := store.ListTransactions(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list resource transactions", "error", err)
	}
	categories, err := store.ListCategories(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	s.Templates.Render(w, "resource_detail.html", &struct {
		PageData
		Resource   *model.Resource
		History    []model.Transaction
		Categories []model.Category
	}{
		PageData:   s.page(r, resource.Name),
		Resource:   resource,
		History:    history,
		Categories: categories,
	})
}

// ResourceCreateSubmit handles POST /resources.
func (s *Server) ResourceCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	p := inventory.ResourceParams{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		CategoryID:  formID(r, "category_id"),
		Location:    r.FormValue("location"),
		Quantity:    quantity,
	}
	if v := r.FormValue("min_quantity"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MinQuantity = &n
		}
	}

	resource, err := s.Svc.CreateResource(r.Context(), claims.UserID, p)
	if err != nil {
		slog.Warn("failed to create resource", "error", err, "user", claims.Username)
		redirectWith(w, r, "/resources", "error", userMessage(err))
		return
	}

	slog.Info("resource created", "user", claims.Username, "resource", resource.Name, "quantity", resource.Quantity)
	http.Redirect(w, r, fmt.Sprintf("/resources/%d", resource.ID), http.StatusSeeOther)
}

// ResourceUpdateSubmit handles POST /resources/{id}.
func (s *Server) ResourceUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	location := r.FormValue("location")
	maintenance := r.FormValue("maintenance") == "on"
	u := inventory.ResourceUpdate{
		Name:        &name,
		Description: &description,
		Location:    &location,
		Maintenance: &maintenance,
	}
	if categoryID := formID(r, "category_id"); categoryID != nil {
		u.CategoryID = categoryID
	} else {
		u.ClearCategory = true
	}
	if n, err := strconv.Atoi(r.FormValue("min_quantity")); err == nil {
		u.MinQuantity = &n
	}

	path := fmt.Sprintf("/resources/%d", id)
	resource, err := s.Svc.UpdateResource(r.Context(), claims.UserID, id, u)
	if err != nil {
		slog.Warn("failed to update resource", "error", err, "user", claims.Username)
		redirectWith(w, r, path, "error", userMessage(err))
		return
	}

	slog.Info("resource updated", "user", claims.Username, "resource", resource.Name, "status", resource.Status)
	redirectWith(w, r, path, "ok", "Saved.")
}

// ResourceDeleteSubmit handles POST /resources/{id}/delete (admin only).
func (s *Server) ResourceDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.Svc.DeleteResource(r.Context(), claims.UserID, id); err != nil {
		slog.Warn("failed to delete resource", "error", err, "user", claims.Username)
		redirectWith(w, r, fmt.Sprintf("/resources/%d", id), "error", userMessage(err))
		return
	}

	slog.Info("resource deleted", "user", claims.Username, "resource_id", id)
	redirectWith(w, r, "/resources", "ok", "Resource deleted.")
}

// ResourceImageSubmit handles POST /resources/{id}/image.
func (s *Server) ResourceImageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if !model.RoleAtLeast(claims.Role, model.RoleStaff) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	path := fmt.Sprintf("/resources/%d", id)

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxPhotoBytes+1<<16)
	if err := r.ParseMultipartForm(imaging.MaxPhotoBytes); err != nil {
		redirectWith(w, r, path, "error", "The photo is too large.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		redirectWith(w, r, path, "error", "Choose a photo to upload.")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	if err != nil {
		redirectWith(w, r, path, "error", "Photos must be JPEG or PNG.")
		return
	}

	if err := store.SetResourceImage(r.Context(), s.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	slog.Info("resource image uploaded", "user", claims.Username, "resource_id", id)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// ResourceImageGet handles GET /resources/{id}/image (web route, cookie-authenticated).
func (s *Server) ResourceImageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetResourceImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	if r.URL.Query().Get("size") == "thumb" {
		if thumb, err := imaging.Thumbnail(data); err == nil {
			data, mime = thumb.Data, thumb.MIME
		}
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// formID parses an optional ID form field.
func formID(r *http.Request, name string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// userMessage turns an inventory error into a sentence for a flash message.
// Unexpected errors are not shown to the user.
func userMessage(err error) string {
	if inventory.KindOf(err) == "" {
		return "Something went wrong. Please try again."
	}
	msg := err.Error()
	if msg == "" {
		return "Request failed."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
