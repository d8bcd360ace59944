package domain

import "time"

// EventType identifies the kind of change a server notification describes.
type EventType string

const (
	EventWorkOrderCreated EventType = "work_order_created"
	EventWorkOrderUpdated EventType = "work_order_updated"
	EventWorkOrderDeleted EventType = "work_order_deleted"
	EventFileAdded        EventType = "file_added"
	EventFileDeleted      EventType = "file_deleted"
)

// ChangeEvent is a single server-pushed change notification. Instances are
// transient: decoded on receipt, routed once, then discarded.
//
// ProjectID and WorkOrderID are pointers so that absence is distinguishable
// from a zero ID. Unrecognized Type values are tolerated; the router maps
// them to an empty result.
type ChangeEvent struct {
	Type        EventType `json:"type"`
	ProjectID   *int64    `json:"projectId,omitempty"`
	WorkOrderID *int64    `json:"workOrderId,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// IsWorkOrderEvent reports whether the event describes a work-order record
// change.
func (e ChangeEvent) IsWorkOrderEvent() bool {
	switch e.Type {
	case EventWorkOrderCreated, EventWorkOrderUpdated, EventWorkOrderDeleted:
		return true
	}
	return false
}

// IsFileEvent reports whether the event describes a file attachment change.
func (e ChangeEvent) IsFileEvent() bool {
	return e.Type == EventFileAdded || e.Type == EventFileDeleted
}
