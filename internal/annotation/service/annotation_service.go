// Package service implements annotation reads and writes. Like dashboard
// mutations, annotation writes commit to the store first and only then signal
// the dashboard's room to refetch.
package service

import (
	"context"
	"errors"
	"log/slog"

	activitydomain "collabboard/backend/internal/activity/domain"
	activityrepo "collabboard/backend/internal/activity/repository"
	"collabboard/backend/internal/annotation/domain"
	"collabboard/backend/internal/annotation/repository"
	"collabboard/backend/internal/collab"
	dashboardrepo "collabboard/backend/internal/dashboard/repository"
)

// Sentinel errors for the annotation service; handlers map them to HTTP status codes.
var (
	ErrNotFound          = errors.New("annotation not found")
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrValidation        = errors.New("validation failed")
)

// CreateParams carries the fields of a new annotation.
type CreateParams struct {
	DashboardID int64
	DataPoint   string
	Content     string
	XPos        float64
	YPos        float64
}

// UpdateParams carries the mutable fields of an existing annotation.
type UpdateParams struct {
	DataPoint string
	Content   string
	XPos      float64
	YPos      float64
}

// AnnotationService implements annotation CRUD with activity logging and live
// room notification. Any authenticated user may read and add annotations on an
// existing dashboard; only the author may update or delete one.
type AnnotationService struct {
	repo       repository.Repository
	dashboards dashboardrepo.Repository
	activity   activityrepo.Repository
	notifier   collab.Notifier
	log        *slog.Logger
}

// NewAnnotationService returns an AnnotationService with the given dependencies.
func NewAnnotationService(repo repository.Repository, dashboards dashboardrepo.Repository, activity activityrepo.Repository, notifier collab.Notifier, log *slog.Logger) *AnnotationService {
	if log == nil {
		log = slog.Default()
	}
	return &AnnotationService{repo: repo, dashboards: dashboards, activity: activity, notifier: notifier, log: log}
}

// List returns a dashboard's annotations.
func (s *AnnotationService) List(ctx context.Context, dashboardID int64) ([]*domain.Annotation, error) {
	d, err := s.dashboards.GetByID(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDashboardNotFound
	}
	return s.repo.ListByDashboard(ctx, dashboardID)
}

// Create persists a new annotation for userID, records the activity, and
// signals the dashboard's room.
func (s *AnnotationService) Create(ctx context.Context, userID int64, p CreateParams, excludeConnID string) (*domain.Annotation, error) {
	d, err := s.dashboards.GetByID(ctx, p.DashboardID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDashboardNotFound
	}
	a := &domain.Annotation{
		DashboardID: p.DashboardID,
		UserID:      userID,
		DataPoint:   p.DataPoint,
		Content:     p.Content,
		XPos:        p.XPos,
		YPos:        p.YPos,
	}
	if err := a.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.record(ctx, userID, p.DashboardID, activitydomain.ActionAnnotationAdded)
	s.notifier.NotifyDurableChange(p.DashboardID, collab.ChangeAnnotationAdd, excludeConnID)
	return a, nil
}

// Update rewrites the caller's annotation, records the activity, and signals
// the dashboard's room. Receivers refetch the annotation list, so the signal
// reuses the annotations-changed notification. Annotations authored by others
// are reported as not found.
func (s *AnnotationService) Update(ctx context.Context, id, userID int64, p UpdateParams, excludeConnID string) (*domain.Annotation, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.UserID != userID {
		return nil, ErrNotFound
	}
	a.DataPoint = p.DataPoint
	a.Content = p.Content
	a.XPos = p.XPos
	a.YPos = p.YPos
	if err := a.Validate(); err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.record(ctx, userID, a.DashboardID, activitydomain.ActionAnnotationUpdated)
	s.notifier.NotifyDurableChange(a.DashboardID, collab.ChangeAnnotationAdd, excludeConnID)
	return a, nil
}

// Delete removes the caller's annotation, records the activity, and signals
// the dashboard's room. Annotations authored by others are reported as not
// found.
func (s *AnnotationService) Delete(ctx context.Context, id, userID int64, excludeConnID string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	ok, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.record(ctx, userID, a.DashboardID, activitydomain.ActionAnnotationDeleted)
	s.notifier.NotifyDurableChange(a.DashboardID, collab.ChangeAnnotationDelete, excludeConnID)
	return nil
}

func (s *AnnotationService) record(ctx context.Context, userID, dashboardID int64, action string) {
	e := &activitydomain.Entry{UserID: userID, DashboardID: dashboardID, Action: action}
	if err := s.activity.Create(ctx, e); err != nil {
		s.log.Warn("activity entry dropped", "action", action, "dashboard_id", dashboardID, "error", err)
	}
}
