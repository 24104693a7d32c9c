// Package service implements owner-scoped dashboard CRUD. Mutations are
// durable-first: the database write commits, the activity log records it, and
// only then does the room get a refetch broadcast. A failed write never
// produces a broadcast.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	activitydomain "collabboard/backend/internal/activity/domain"
	activityrepo "collabboard/backend/internal/activity/repository"
	"collabboard/backend/internal/collab"
	"collabboard/backend/internal/dashboard/domain"
	"collabboard/backend/internal/dashboard/repository"
)

// Sentinel errors for the dashboard service; handlers map them to HTTP status codes.
var (
	ErrNotFound   = errors.New("dashboard not found")
	ErrValidation = errors.New("validation failed")
)

// DashboardService implements dashboard CRUD with activity logging and live
// room notification.
type DashboardService struct {
	repo     repository.Repository
	activity activityrepo.Repository
	notifier collab.Notifier
	log      *slog.Logger
}

// NewDashboardService returns a DashboardService with the given dependencies.
func NewDashboardService(repo repository.Repository, activity activityrepo.Repository, notifier collab.Notifier, log *slog.Logger) *DashboardService {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardService{repo: repo, activity: activity, notifier: notifier, log: log}
}

// List returns the caller's dashboards.
func (s *DashboardService) List(ctx context.Context, ownerID int64) ([]*domain.Dashboard, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns the caller's dashboard. Dashboards owned by other users are
// reported as not found rather than forbidden.
func (s *DashboardService) Get(ctx context.Context, id, ownerID int64) (*domain.Dashboard, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil || d.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return d, nil
}

// Create persists a new dashboard for the owner and records the activity.
func (s *DashboardService) Create(ctx context.Context, ownerID int64, name string, config json.RawMessage) (*domain.Dashboard, error) {
	d := &domain.Dashboard{Name: name, OwnerID: ownerID, Config: config}
	if err := d.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.record(ctx, ownerID, d.ID, activitydomain.ActionDashboardCreated, nil)
	return d, nil
}

// Update writes name and config, bumps the version, records the activity, and
// notifies the dashboard's room. excludeConnID suppresses the echo to the
// mutating client's own live connection.
func (s *DashboardService) Update(ctx context.Context, id, ownerID int64, name string, config json.RawMessage, excludeConnID string) (*domain.Dashboard, error) {
	d := &domain.Dashboard{ID: id, OwnerID: ownerID, Name: name, Config: config}
	if err := d.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if len(d.Config) == 0 {
		d.Config = []byte(`{}`)
	}
	ok, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.record(ctx, ownerID, id, activitydomain.ActionDashboardUpdated, nil)
	s.notifier.NotifyDurableChange(id, collab.ChangeDashboardUpdate, excludeConnID)
	return d, nil
}

// Delete removes the caller's dashboard and records the activity. The room,
// if any, gets a refetch signal so remaining members discover the deletion.
func (s *DashboardService) Delete(ctx context.Context, id, ownerID int64, excludeConnID string) error {
	ok, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	// The dashboard row is gone, so the activity entry has nothing to
	// reference; log it instead.
	s.log.Info("dashboard deleted", "dashboard_id", id, "owner_id", ownerID)
	s.notifier.NotifyDurableChange(id, collab.ChangeDashboardUpdate, excludeConnID)
	return nil
}

// Activity returns the most recent activity entries for the caller's dashboard.
func (s *DashboardService) Activity(ctx context.Context, id, ownerID int64, limit int) ([]*activitydomain.Entry, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.activity.ListByDashboard(ctx, id, limit)
}

// record writes an activity entry. Logging failures are reported but never
// fail the mutation they describe.
func (s *DashboardService) record(ctx context.Context, userID, dashboardID int64, action string, details json.RawMessage) {
	e := &activitydomain.Entry{UserID: userID, DashboardID: dashboardID, Action: action, Details: details}
	if err := s.activity.Create(ctx, e); err != nil {
		s.log.Warn("activity entry dropped", "action", action, "dashboard_id", dashboardID, "error", err)
	}
}
