package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	activitydomain "collabboard/backend/internal/activity/domain"
	aihandler "collabboard/backend/internal/ai/handler"
	aiservice "collabboard/backend/internal/ai/service"
	annotationdomain "collabboard/backend/internal/annotation/domain"
	annotationhandler "collabboard/backend/internal/annotation/handler"
	annotationservice "collabboard/backend/internal/annotation/service"
	"collabboard/backend/internal/collab"
	wstransport "collabboard/backend/internal/collab/ws"
	dashboarddomain "collabboard/backend/internal/dashboard/domain"
	dashboardhandler "collabboard/backend/internal/dashboard/handler"
	dashboardservice "collabboard/backend/internal/dashboard/service"
	datasourcedomain "collabboard/backend/internal/datasource/domain"
	datasourcehandler "collabboard/backend/internal/datasource/handler"
	datasourceservice "collabboard/backend/internal/datasource/service"
	healthhandler "collabboard/backend/internal/health/handler"
	identityhandler "collabboard/backend/internal/identity/handler"
	identityservice "collabboard/backend/internal/identity/service"
	"collabboard/backend/internal/security"
	userdomain "collabboard/backend/internal/user/domain"
)

// In-memory repositories for routing tests.

type memUserRepo struct {
	users  map[int64]*userdomain.User
	nextID int64
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*userdomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, u *userdomain.User) error {
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return nil
}

type memDashboardRepo struct {
	dashboards map[int64]*dashboarddomain.Dashboard
	nextID     int64
}

func (r *memDashboardRepo) ListByOwner(_ context.Context, ownerID int64) ([]*dashboarddomain.Dashboard, error) {
	var out []*dashboarddomain.Dashboard
	for _, d := range r.dashboards {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDashboardRepo) GetByID(_ context.Context, id int64) (*dashboarddomain.Dashboard, error) {
	d, ok := r.dashboards[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (r *memDashboardRepo) Create(_ context.Context, d *dashboarddomain.Dashboard) error {
	d.ID = r.nextID
	r.nextID++
	d.Version = 1
	if len(d.Config) == 0 {
		d.Config = []byte(`{}`)
	}
	r.dashboards[d.ID] = d
	return nil
}

func (r *memDashboardRepo) Update(_ context.Context, d *dashboarddomain.Dashboard) (bool, error) {
	existing, ok := r.dashboards[d.ID]
	if !ok || existing.OwnerID != d.OwnerID {
		return false, nil
	}
	existing.Name = d.Name
	existing.Config = d.Config
	existing.Version++
	d.Version = existing.Version
	return true, nil
}

func (r *memDashboardRepo) Delete(_ context.Context, id, ownerID int64) (bool, error) {
	d, ok := r.dashboards[id]
	if !ok || d.OwnerID != ownerID {
		return false, nil
	}
	delete(r.dashboards, id)
	return true, nil
}

type memAnnotationRepo struct {
	annotations map[int64]*annotationdomain.Annotation
	nextID      int64
}

func (r *memAnnotationRepo) ListByDashboard(_ context.Context, dashboardID int64) ([]*annotationdomain.Annotation, error) {
	var out []*annotationdomain.Annotation
	for _, a := range r.annotations {
		if a.DashboardID == dashboardID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAnnotationRepo) GetByID(_ context.Context, id int64) (*annotationdomain.Annotation, error) {
	a, ok := r.annotations[id]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (r *memAnnotationRepo) Create(_ context.Context, a *annotationdomain.Annotation) error {
	a.ID = r.nextID
	r.nextID++
	r.annotations[a.ID] = a
	return nil
}

func (r *memAnnotationRepo) Update(_ context.Context, a *annotationdomain.Annotation) (bool, error) {
	cur, ok := r.annotations[a.ID]
	if !ok || cur.UserID != a.UserID {
		return false, nil
	}
	r.annotations[a.ID] = a
	return true, nil
}

func (r *memAnnotationRepo) Delete(_ context.Context, id, userID int64) (bool, error) {
	a, ok := r.annotations[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.annotations, id)
	return true, nil
}

type memDataSourceRepo struct {
	sources map[int64]*datasourcedomain.DataSource
	nextID  int64
}

func (r *memDataSourceRepo) ListByDashboard(_ context.Context, dashboardID int64) ([]*datasourcedomain.DataSource, error) {
	var out []*datasourcedomain.DataSource
	for _, ds := range r.sources {
		if ds.DashboardID == dashboardID {
			out = append(out, ds)
		}
	}
	return out, nil
}

func (r *memDataSourceRepo) GetByID(_ context.Context, id int64) (*datasourcedomain.DataSource, error) {
	ds, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	return ds, nil
}

func (r *memDataSourceRepo) Create(_ context.Context, ds *datasourcedomain.DataSource) error {
	ds.ID = r.nextID
	r.nextID++
	r.sources[ds.ID] = ds
	return nil
}

func (r *memDataSourceRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.sources[id]; !ok {
		return false, nil
	}
	delete(r.sources, id)
	return true, nil
}

type memActivityRepo struct {
	entries []*activitydomain.Entry
}

func (r *memActivityRepo) Create(_ context.Context, e *activitydomain.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *memActivityRepo) ListByDashboard(_ context.Context, dashboardID int64, _ int) ([]*activitydomain.Entry, error) {
	var out []*activitydomain.Entry
	for _, e := range r.entries {
		if e.DashboardID == dashboardID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("test token provider: %v", err)
	}
	hub := collab.New(nil)
	users := &memUserRepo{users: make(map[int64]*userdomain.User), nextID: 1}
	dashboards := &memDashboardRepo{dashboards: make(map[int64]*dashboarddomain.Dashboard), nextID: 1}
	annotations := &memAnnotationRepo{annotations: make(map[int64]*annotationdomain.Annotation), nextID: 1}
	sources := &memDataSourceRepo{sources: make(map[int64]*datasourcedomain.DataSource), nextID: 1}
	activity := &memActivityRepo{}

	authSvc := identityservice.NewAuthService(users, security.NewHasher(bcrypt.MinCost), tokens)
	dashboardSvc := dashboardservice.NewDashboardService(dashboards, activity, hub, nil)
	annotationSvc := annotationservice.NewAnnotationService(annotations, dashboards, activity, hub, nil)
	datasourceSvc := datasourceservice.NewDataSourceService(sources, dashboards, activity, t.TempDir(), nil)
	aiSvc := aiservice.NewAIService(nil, datasourceSvc, nil)

	return NewRouter(Deps{
		Auth:        identityhandler.NewAuthHandler(authSvc, nil),
		Dashboards:  dashboardhandler.NewDashboardHandler(dashboardSvc, nil),
		Annotations: annotationhandler.NewAnnotationHandler(annotationSvc, nil),
		DataSources: datasourcehandler.NewDataSourceHandler(datasourceSvc, 1<<20, nil),
		AI:          aihandler.NewAIHandler(aiSvc, nil),
		Health:      healthhandler.NewHealthHandler(nil, hub, nil),
		WS:          wstransport.NewHandler(hub, tokens, "", nil),
		Tokens:      tokens,
		FrontendURL: "http://localhost:5173",
	})
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/dashboards"},
		{http.MethodPost, "/api/annotations"},
		{http.MethodPost, "/api/data/upload"},
		{http.MethodPost, "/api/ai/query"},
	}
	for _, p := range paths {
		if rec := do(t, router, p.method, p.path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestOpenRoutes(t *testing.T) {
	router := newTestRouter(t)
	if rec := do(t, router, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/stats", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/stats status = %d", rec.Code)
	}
}

func TestRegisterThenUseAPI(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/auth/register", "",
		`{"email":"dev@example.com","password":"secret123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	var auth struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &auth); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rec = do(t, router, http.MethodPost, "/api/dashboards", auth.AccessToken,
		`{"name":"sales","config":{"charts":[]}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create dashboard status = %d, body %s", rec.Code, rec.Body)
	}
	var dashboard struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dashboard); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rec = do(t, router, http.MethodGet, "/api/dashboards", auth.AccessToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list dashboards status = %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/api/annotations", auth.AccessToken,
		`{"dashboardId":1,"content":"note","xPos":1,"yPos":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create annotation status = %d, body %s", rec.Code, rec.Body)
	}

	rec = do(t, router, http.MethodGet, "/api/annotations/1", auth.AccessToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list annotations status = %d, body %s", rec.Code, rec.Body)
	}

	// AI is not configured in this router.
	rec = do(t, router, http.MethodPost, "/api/ai/query", auth.AccessToken,
		`{"dataSourceId":1,"question":"why"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ai query status = %d, want 503", rec.Code)
	}
}
