// Package domain defines the activity log entry recorded for dashboard
// mutations.
package domain

import (
	"encoding/json"
	"time"
)

// Actions recorded in the activity log.
const (
	ActionDashboardCreated  = "dashboard_created"
	ActionDashboardUpdated  = "dashboard_updated"
	ActionDashboardDeleted  = "dashboard_deleted"
	ActionAnnotationAdded   = "annotation_added"
	ActionAnnotationUpdated = "annotation_updated"
	ActionAnnotationDeleted = "annotation_deleted"
	ActionDataUploaded      = "data_uploaded"
)

// Entry is one recorded action against a dashboard.
type Entry struct {
	ID          int64
	UserID      int64
	DashboardID int64
	Action      string
	Details     json.RawMessage
	CreatedAt   time.Time
}
