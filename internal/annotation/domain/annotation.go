// Package domain defines the annotation entity.
package domain

import (
	"errors"
	"time"
)

// Annotation is a note pinned to a dashboard, optionally anchored to a data
// point. UserEmail is denormalized from the author at read time so clients can
// label annotations without a second lookup.
type Annotation struct {
	ID          int64
	DashboardID int64
	UserID      int64
	UserEmail   string
	DataPoint   string
	Content     string
	XPos        float64
	YPos        float64
	CreatedAt   time.Time
}

// Validate checks invariants before persistence.
func (a *Annotation) Validate() error {
	if a.DashboardID == 0 {
		return errors.New("dashboard is required")
	}
	if a.UserID == 0 {
		return errors.New("author is required")
	}
	if a.Content == "" {
		return errors.New("content is required")
	}
	return nil
}
