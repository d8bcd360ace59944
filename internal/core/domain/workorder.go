package domain

import (
	"fmt"
	"strconv"
	"time"
)

// WorkOrder mirrors the upstream API response shape for a work order.
type WorkOrder struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	AssigneeID  *string    `json:"assigneeId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ProjectFile mirrors the upstream API response shape for a file attachment.
type ProjectFile struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	WorkOrderID *int64    `json:"workOrderId,omitempty"`
	Name        string    `json:"name"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedBy  string    `json:"uploadedBy,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Cache key constructors. These are the only places key shapes are spelled
// out, so the router's predicates and the read path cannot drift apart.

// WorkOrderListKey caches the work-order listing for a project.
func WorkOrderListKey(projectID int64) CacheKey {
	return NewCacheKey("projects", formatID(projectID), "work-orders")
}

// WorkOrderKey caches a single work-order detail view.
func WorkOrderKey(projectID, workOrderID int64) CacheKey {
	return NewCacheKey("projects", formatID(projectID), "work-orders", formatID(workOrderID))
}

// ProjectFilesKey caches the file listing for a project.
func ProjectFilesKey(projectID int64) CacheKey {
	return NewCacheKey("projects", formatID(projectID), "files")
}

// WorkOrderFilesKey caches the file listing for a single work order.
func WorkOrderFilesKey(projectID, workOrderID int64) CacheKey {
	return NewCacheKey("projects", formatID(projectID), "work-orders", formatID(workOrderID), "files")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Validate checks invariants the upstream API is expected to hold.
func (w *WorkOrder) Validate() error {
	if w.ID <= 0 {
		return fmt.Errorf("work order id must be positive, got %d", w.ID)
	}
	if w.ProjectID <= 0 {
		return fmt.Errorf("work order %d has invalid project id %d", w.ID, w.ProjectID)
	}
	return nil
}
