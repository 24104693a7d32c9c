package service

import (
	"context"
	"errors"
	"testing"

	activitydomain "collabboard/backend/internal/activity/domain"
	"collabboard/backend/internal/annotation/domain"
	"collabboard/backend/internal/collab"
	dashboarddomain "collabboard/backend/internal/dashboard/domain"
)

type fakeAnnotationRepo struct {
	annotations map[int64]*domain.Annotation
	nextID      int64
	failWrites  bool
}

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{annotations: make(map[int64]*domain.Annotation), nextID: 1}
}

func (r *fakeAnnotationRepo) ListByDashboard(_ context.Context, dashboardID int64) ([]*domain.Annotation, error) {
	var out []*domain.Annotation
	for _, a := range r.annotations {
		if a.DashboardID == dashboardID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAnnotationRepo) GetByID(_ context.Context, id int64) (*domain.Annotation, error) {
	a, ok := r.annotations[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAnnotationRepo) Create(_ context.Context, a *domain.Annotation) error {
	if r.failWrites {
		return errors.New("db down")
	}
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.annotations[a.ID] = &cp
	return nil
}

func (r *fakeAnnotationRepo) Update(_ context.Context, a *domain.Annotation) (bool, error) {
	if r.failWrites {
		return false, errors.New("db down")
	}
	cur, ok := r.annotations[a.ID]
	if !ok || cur.UserID != a.UserID {
		return false, nil
	}
	cp := *a
	r.annotations[a.ID] = &cp
	return true, nil
}

func (r *fakeAnnotationRepo) Delete(_ context.Context, id, userID int64) (bool, error) {
	a, ok := r.annotations[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.annotations, id)
	return true, nil
}

type fakeDashboardRepo struct {
	dashboards map[int64]*dashboarddomain.Dashboard
}

func (r *fakeDashboardRepo) ListByOwner(_ context.Context, _ int64) ([]*dashboarddomain.Dashboard, error) {
	return nil, nil
}

func (r *fakeDashboardRepo) GetByID(_ context.Context, id int64) (*dashboarddomain.Dashboard, error) {
	d, ok := r.dashboards[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (r *fakeDashboardRepo) Create(_ context.Context, _ *dashboarddomain.Dashboard) error {
	return errors.New("not implemented")
}

func (r *fakeDashboardRepo) Update(_ context.Context, _ *dashboarddomain.Dashboard) (bool, error) {
	return false, errors.New("not implemented")
}

func (r *fakeDashboardRepo) Delete(_ context.Context, _, _ int64) (bool, error) {
	return false, errors.New("not implemented")
}

type fakeActivityRepo struct {
	entries []*activitydomain.Entry
}

func (r *fakeActivityRepo) Create(_ context.Context, e *activitydomain.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeActivityRepo) ListByDashboard(_ context.Context, _ int64, _ int) ([]*activitydomain.Entry, error) {
	return r.entries, nil
}

type fakeNotifier struct {
	calls []collab.ChangeKind
}

func (n *fakeNotifier) NotifyDurableChange(_ int64, kind collab.ChangeKind, _ string) {
	n.calls = append(n.calls, kind)
}

func newTestService() (*AnnotationService, *fakeAnnotationRepo, *fakeNotifier) {
	repo := newFakeAnnotationRepo()
	dashboards := &fakeDashboardRepo{dashboards: map[int64]*dashboarddomain.Dashboard{
		1: {ID: 1, Name: "sales", OwnerID: 10},
	}}
	notifier := &fakeNotifier{}
	svc := NewAnnotationService(repo, dashboards, &fakeActivityRepo{}, notifier, nil)
	return svc, repo, notifier
}

func TestCreateNotifiesAfterCommit(t *testing.T) {
	svc, _, notifier := newTestService()
	a, err := svc.Create(context.Background(), 5, CreateParams{
		DashboardID: 1, Content: "spike here", XPos: 10, YPos: 20,
	}, "conn-a")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == 0 || a.UserID != 5 {
		t.Fatalf("unexpected annotation: %+v", a)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != collab.ChangeAnnotationAdd {
		t.Fatalf("notifier calls: %+v", notifier.calls)
	}
}

func TestCreateFailureDoesNotNotify(t *testing.T) {
	svc, repo, notifier := newTestService()
	repo.failWrites = true
	if _, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 1, Content: "x"}, ""); err == nil {
		t.Fatal("create against a failing store succeeded")
	}
	if len(notifier.calls) != 0 {
		t.Fatal("failed create still broadcast a refetch signal")
	}
}

func TestCreateOnMissingDashboard(t *testing.T) {
	svc, _, notifier := newTestService()
	if _, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 99, Content: "x"}, ""); !errors.Is(err, ErrDashboardNotFound) {
		t.Fatalf("expected ErrDashboardNotFound, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("rejected create still broadcast a refetch signal")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 1, Content: ""}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateAuthorOnly(t *testing.T) {
	svc, repo, notifier := newTestService()
	a, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 1, Content: "v1"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.calls = nil

	if _, err := svc.Update(context.Background(), a.ID, 6, UpdateParams{Content: "hijack"}, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update: expected ErrNotFound, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("rejected update still broadcast a refetch signal")
	}

	got, err := svc.Update(context.Background(), a.ID, 5, UpdateParams{Content: "v2", XPos: 1, YPos: 2}, "conn-a")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Content != "v2" || repo.annotations[a.ID].Content != "v2" {
		t.Fatalf("update not persisted: %+v", repo.annotations[a.ID])
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != collab.ChangeAnnotationAdd {
		t.Fatalf("notifier calls: %+v", notifier.calls)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _, notifier := newTestService()
	a, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 1, Content: "v1"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.calls = nil
	if _, err := svc.Update(context.Background(), a.ID, 5, UpdateParams{Content: ""}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("rejected update still broadcast a refetch signal")
	}
}

func TestDeleteAuthorOnly(t *testing.T) {
	svc, _, notifier := newTestService()
	a, err := svc.Create(context.Background(), 5, CreateParams{DashboardID: 1, Content: "mine"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	notifier.calls = nil

	if err := svc.Delete(context.Background(), a.ID, 6, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("rejected delete still broadcast a refetch signal")
	}

	if err := svc.Delete(context.Background(), a.ID, 5, "conn-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != collab.ChangeAnnotationDelete {
		t.Fatalf("notifier calls: %+v", notifier.calls)
	}

	if err := svc.Delete(context.Background(), a.ID, 5, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat delete: expected ErrNotFound, got %v", err)
	}
}

func TestListMissingDashboard(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.List(context.Background(), 99); !errors.Is(err, ErrDashboardNotFound) {
		t.Fatalf("expected ErrDashboardNotFound, got %v", err)
	}
}
