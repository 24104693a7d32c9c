// Package server wires the HTTP surface: route registration and the server
// lifecycle.
package server

import (
	"net/http"

	aihandler "collabboard/backend/internal/ai/handler"
	annotationhandler "collabboard/backend/internal/annotation/handler"
	wstransport "collabboard/backend/internal/collab/ws"
	dashboardhandler "collabboard/backend/internal/dashboard/handler"
	datasourcehandler "collabboard/backend/internal/datasource/handler"
	healthhandler "collabboard/backend/internal/health/handler"
	identityhandler "collabboard/backend/internal/identity/handler"
	"collabboard/backend/internal/security"
	"collabboard/backend/internal/server/middleware"
)

// Deps holds the handlers behind the HTTP surface.
type Deps struct {
	Auth        *identityhandler.AuthHandler
	Dashboards  *dashboardhandler.DashboardHandler
	Annotations *annotationhandler.AnnotationHandler
	DataSources *datasourcehandler.DataSourceHandler
	AI          *aihandler.AIHandler
	Health      *healthhandler.HealthHandler
	WS          *wstransport.Handler
	Tokens      *security.TokenProvider
	FrontendURL string
}

// NewRouter builds the full route table. Everything under /api except auth
// requires a valid access token; /health, /stats, and the websocket endpoint
// (which authenticates during its handshake) sit outside the middleware.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", d.Health.Health)
	mux.HandleFunc("GET /stats", d.Health.Stats)
	mux.Handle("GET /ws", d.WS)

	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", d.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", d.Auth.Logout)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/dashboards", d.Dashboards.List)
	authed.HandleFunc("POST /api/dashboards", d.Dashboards.Create)
	authed.HandleFunc("GET /api/dashboards/{id}", d.Dashboards.Get)
	authed.HandleFunc("PUT /api/dashboards/{id}", d.Dashboards.Update)
	authed.HandleFunc("DELETE /api/dashboards/{id}", d.Dashboards.Delete)
	authed.HandleFunc("GET /api/dashboards/{id}/activity", d.Dashboards.Activity)

	authed.HandleFunc("GET /api/annotations/{dashboardId}", d.Annotations.List)
	authed.HandleFunc("POST /api/annotations", d.Annotations.Create)
	authed.HandleFunc("PUT /api/annotations/{id}", d.Annotations.Update)
	authed.HandleFunc("DELETE /api/annotations/{id}", d.Annotations.Delete)

	authed.HandleFunc("POST /api/data/upload", d.DataSources.Upload)
	authed.HandleFunc("GET /api/data/sources/{dashboardId}", d.DataSources.ListByDashboard)
	authed.HandleFunc("GET /api/data/source/{id}", d.DataSources.Get)
	authed.HandleFunc("DELETE /api/data/source/{id}", d.DataSources.Delete)

	authed.HandleFunc("POST /api/ai/query", d.AI.Query)
	authed.HandleFunc("GET /api/ai/insights/{dataSourceId}", d.AI.Insights)
	authed.HandleFunc("GET /api/ai/anomalies/{dataSourceId}", d.AI.Anomalies)
	authed.HandleFunc("GET /api/ai/charts/{dataSourceId}", d.AI.ChartSuggestions)

	mux.Handle("/api/", middleware.RequireAuth(d.Tokens)(authed))

	return middleware.CORS(d.FrontendURL)(mux)
}
