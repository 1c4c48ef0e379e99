package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/model"
)

const selectResourceColumns = `
	r.id, r.name, r.description, r.category_id, r.location, r.barcode, r.unit_cost_cents,
	r.quantity, r.min_quantity, r.status, r.version, r.image_mime, r.created_by,
	r.created_at, r.updated_at, r.deleted_at, c.name AS category_name`

func scanResource(s scanner) (*model.Resource, error) {
	var r model.Resource
	var description, location, barcode, imageMime, categoryName sql.NullString
	var status string
	if err := s.Scan(&r.ID, &r.Name, &description, &r.CategoryID, &location, &barcode, &r.UnitCostCents,
		&r.Quantity, &r.MinQuantity, &status, &r.Version, &imageMime, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &categoryName); err != nil {
		return nil, err
	}
	r.Description = description.String
	r.Location = location.String
	r.Barcode = barcode.String
	r.ImageMime = imageMime.String
	r.CategoryName = categoryName.String
	r.Status = model.ResourceStatus(status)
	return &r, nil
}

// InsertResource inserts a new resource row and fills in its ID.
// Quantity and status are written as given; callers derive status first.
func InsertResource(ctx context.Context, q Querier, r *model.Resource) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO resources (name, description, category_id, location, barcode, unit_cost_cents,
		                        quantity, min_quantity, status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.CategoryID, r.Location, r.Barcode, r.UnitCostCents,
		r.Quantity, r.MinQuantity, string(r.Status), r.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("creating resource: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting resource id: %w", err)
	}
	r.ID = id
	r.Version = 1
	return nil
}

// GetResource returns a resource by ID, including soft-deleted ones.
func GetResource(ctx context.Context, q Querier, id int64) (*model.Resource, error) {
	r, err := scanResource(q.QueryRowContext(ctx,
		`SELECT `+selectResourceColumns+`
		 FROM resources r
		 LEFT JOIN categories c ON c.id = r.category_id
		 WHERE r.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting resource: %w", err)
	}
	return r, nil
}

// ResourceFilter narrows ListResources. Zero values mean "no filter".
type ResourceFilter struct {
	CategoryID int64
	Status     model.ResourceStatus
	Search     string
	Limit      int
	Offset     int
}

// ListResources returns non-deleted resources matching the filter together with
// the total number of matches (ignoring limit and offset).
func ListResources(ctx context.Context, q Querier, f ResourceFilter) ([]model.Resource, int, error) {
	where := ` WHERE r.deleted_at IS NULL`
	var args []any

	if f.CategoryID > 0 {
		where += ` AND r.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		where += ` AND r.status = ?`
		args = append(args, string(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += ` AND (r.name LIKE ? OR r.description LIKE ?)`
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting resources: %w", err)
	}

	query := `SELECT ` + selectResourceColumns + `
	          FROM resources r
	          LEFT JOIN categories c ON c.id = r.category_id` + where + ` ORDER BY r.name`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, *r)
	}
	return resources, total, rows.Err()
}

// ListLowStockResources returns resources that are low or out of stock,
// emptiest first.
func ListLowStockResources(ctx context.Context, q Querier) ([]model.Resource, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectResourceColumns+`
		 FROM resources r
		 LEFT JOIN categories c ON c.id = r.category_id
		 WHERE r.deleted_at IS NULL AND r.status IN ('low_stock', 'out_of_stock')
		 ORDER BY r.quantity, r.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low stock resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, *r)
	}
	return resources, rows.Err()
}

// UpdateResourceStock writes a new quantity and status if the row is still at
// expectedVersion, bumping the version. Returns ErrVersionConflict otherwise.
func UpdateResourceStock(ctx context.Context, q Querier, id int64, quantity int, status model.ResourceStatus, expectedVersion int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE resources
		 SET quantity = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		quantity, string(status), id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating resource stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking resource stock update: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// UpdateResourceDetails writes descriptive fields, minimum quantity and status
// if the row is still at expectedVersion. Quantity is never touched here.
func UpdateResourceDetails(ctx context.Context, q Querier, r *model.Resource, expectedVersion int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE resources
		 SET name = ?, description = ?, category_id = ?, location = ?, barcode = ?, unit_cost_cents = ?,
		     min_quantity = ?, status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		r.Name, r.Description, r.CategoryID, r.Location, r.Barcode, r.UnitCostCents,
		r.MinQuantity, string(r.Status), r.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking resource update: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// CountOpenReferences counts non-terminal transactions and live reservations
// referencing a resource.
func CountOpenReferences(ctx context.Context, q Querier, resourceID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM transactions
		    WHERE resource_id = ? AND status NOT IN ('completed', 'rejected'))
		 + (SELECT COUNT(*) FROM reservations
		    WHERE resource_id = ? AND status NOT IN ('completed', 'rejected', 'cancelled'))`,
		resourceID, resourceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting open references: %w", err)
	}
	return count, nil
}

// SoftDeleteResource marks a resource as deleted.
func SoftDeleteResource(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE resources SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return nil
}

// SetResourceImage sets a resource's image data.
func SetResourceImage(ctx context.Context, q Querier, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE resources SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting resource image: %w", err)
	}
	return nil
}

// GetResourceImage returns a resource's image data and MIME type.
func GetResourceImage(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM resources WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting resource image: %w", err)
	}
	return image, mime.String, nil
}

// ResourceStats summarizes stock for the dashboard.
type ResourceStats struct {
	TotalResources int `json:"total_resources"`
	TotalUnits     int `json:"total_units"`
	LowStock       int `json:"low_stock"`
	OutOfStock     int `json:"out_of_stock"`
	Maintenance    int `json:"maintenance"`
}

// GetResourceStats returns counts across all non-deleted resources.
func GetResourceStats(ctx context.Context, q Querier) (*ResourceStats, error) {
	s := &ResourceStats{}
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(quantity), 0),
		        COALESCE(SUM(CASE WHEN status = 'low_stock' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'out_of_stock' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = 'maintenance' THEN 1 ELSE 0 END), 0)
		 FROM resources WHERE deleted_at IS NULL`,
	).Scan(&s.TotalResources, &s.TotalUnits, &s.LowStock, &s.OutOfStock, &s.Maintenance)
	if err != nil {
		return nil, fmt.Errorf("getting resource stats: %w", err)
	}
	return s, nil
}
