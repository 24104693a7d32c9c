// Package domain defines the dashboard entity.
package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Dashboard is an owner-scoped collection of chart configuration. Config is
// opaque JSON owned by the frontend; Version increments on every update so
// clients can detect stale refetches.
type Dashboard struct {
	ID        int64
	Name      string
	OwnerID   int64
	Config    json.RawMessage
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks invariants before persistence.
func (d *Dashboard) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.OwnerID == 0 {
		return errors.New("owner is required")
	}
	return nil
}
