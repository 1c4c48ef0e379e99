package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

const (
	defaultPageSize    = 50
	maxPageSize        = 200
	recentTransactions = 10
)

// ResourcesHandler handles resource endpoints.
type ResourcesHandler struct {
	DB  *sql.DB
	Svc *inventory.Service
}

type createResourceRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	CategoryID    *int64 `json:"category_id"`
	Location      string `json:"location"`
	Barcode       string `json:"barcode"`
	UnitCostCents int64  `json:"unit_cost_cents"`
	Quantity      int    `json:"quantity"`
	MinQuantity   *int   `json:"min_quantity"`
}

type updateResourceRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CategoryID    *int64  `json:"category_id"`
	ClearCategory bool    `json:"clear_category"`
	Location      *string `json:"location"`
	Barcode       *string `json:"barcode"`
	UnitCostCents *int64  `json:"unit_cost_cents"`
	MinQuantity   *int    `json:"min_quantity"`
	Maintenance   *bool   `json:"maintenance"`
}

type resourcePage struct {
	Resources []model.Resource `json:"resources"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

// List handles GET /api/resources.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	page := max(queryInt(r, "page", 1), 1)

	q := r.URL.Query()
	resources, total, err := store.ListResources(r.Context(), h.DB, store.ResourceFilter{
		CategoryID: int64(queryInt(r, "category_id", 0)),
		Status:     model.ResourceStatus(q.Get("status")),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resourcePage{Resources: resources, Total: total, Page: page, Limit: limit})
}

// LowStock handles GET /api/resources/low-stock.
func (h *ResourcesHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	resources, err := store.ListLowStockResources(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resources)
}

// Get handles GET /api/resources/{id}.
func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	resource, err := store.GetResource(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resource == nil || resource.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "resource not found")
		return
	}

	txs, err := store.ListTransactions(r.Context(), h.DB, store.TransactionFilter{
		ResourceID: id,
		Limit:      recentTransactions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"resource":            resource,
		"recent_transactions": txs,
	})
}

// Create handles POST /api/resources.
func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	resource, err := h.Svc.CreateResource(r.Context(), claims.UserID, inventory.ResourceParams{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Location:      req.Location,
		Barcode:       req.Barcode,
		UnitCostCents: req.UnitCostCents,
		Quantity:      req.Quantity,
		MinQuantity:   req.MinQuantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("resource created", "user", claims.Username, "resource", resource.Name, "quantity", resource.Quantity)
	jsonResponse(w, http.StatusCreated, resource)
}

// Update handles PUT /api/resources/{id}.
func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var req updateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	resource, err := h.Svc.UpdateResource(r.Context(), claims.UserID, id, inventory.ResourceUpdate{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		Location:      req.Location,
		Barcode:       req.Barcode,
		UnitCostCents: req.UnitCostCents,
		MinQuantity:   req.MinQuantity,
		Maintenance:   req.Maintenance,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("resource updated", "user", claims.Username, "resource", resource.Name, "status", resource.Status)
	jsonResponse(w, http.StatusOK, resource)
}

// Delete handles DELETE /api/resources/{id}.
func (h *ResourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Svc.DeleteResource(r.Context(), claims.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("resource deleted", "user", claims.Username, "resource_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "resource deleted"})
}

// UploadImage handles PUT /api/resources/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *ResourcesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	resource, err := store.GetResource(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resource == nil || resource.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "resource not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxPhotoBytes+1<<16)
	if err := r.ParseMultipartForm(imaging.MaxPhotoBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	if errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetResourceImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("resource image uploaded", "user", GetClaims(r.Context()).Username, "resource", resource.Name, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/resources/{id}/image. ?size=thumb returns a
// small preview.
func (h *ResourcesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	data, mime, err := store.GetResourceImage(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	if r.URL.Query().Get("size") == "thumb" {
		thumb, err := imaging.Thumbnail(data)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, mime = thumb.Data, thumb.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
