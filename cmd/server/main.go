package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	activityrepo "collabboard/backend/internal/activity/repository"
	aihandler "collabboard/backend/internal/ai/handler"
	"collabboard/backend/internal/ai/openai"
	aiservice "collabboard/backend/internal/ai/service"
	annotationhandler "collabboard/backend/internal/annotation/handler"
	annotationrepo "collabboard/backend/internal/annotation/repository"
	annotationservice "collabboard/backend/internal/annotation/service"
	"collabboard/backend/internal/collab"
	"collabboard/backend/internal/collab/bus"
	wstransport "collabboard/backend/internal/collab/ws"
	"collabboard/backend/internal/config"
	dashboardhandler "collabboard/backend/internal/dashboard/handler"
	dashboardrepo "collabboard/backend/internal/dashboard/repository"
	dashboardservice "collabboard/backend/internal/dashboard/service"
	datasourcehandler "collabboard/backend/internal/datasource/handler"
	datasourcerepo "collabboard/backend/internal/datasource/repository"
	datasourceservice "collabboard/backend/internal/datasource/service"
	"collabboard/backend/internal/db"
	healthhandler "collabboard/backend/internal/health/handler"
	identityhandler "collabboard/backend/internal/identity/handler"
	identityservice "collabboard/backend/internal/identity/service"
	"collabboard/backend/internal/security"
	"collabboard/backend/internal/server"
	userrepo "collabboard/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Error("parse JWT_PRIVATE_KEY", "error", err)
		os.Exit(1)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Error("parse JWT_PUBLIC_KEY", "error", err)
		os.Exit(1)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	hub := collab.New(log)

	var relay *bus.Bus
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		relay = bus.New(rdb, hub, "", log)
		if err := relay.Start(context.Background()); err != nil {
			log.Error("start relay", "redis_addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		hub.SetRelay(relay)
		defer hub.CloseRelay()
		log.Info("relay enabled", "redis_addr", cfg.RedisAddr, "instance_id", hub.InstanceID())
	}

	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.PresenceMaxAge())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hub.PruneStale(cfg.PresenceMaxAge())
			case <-pruneDone:
				return
			}
		}
	}()
	defer close(pruneDone)

	users := userrepo.NewPostgresRepository(conn)
	dashboards := dashboardrepo.NewPostgresRepository(conn)
	annotations := annotationrepo.NewPostgresRepository(conn)
	sources := datasourcerepo.NewPostgresRepository(conn)
	activity := activityrepo.NewPostgresRepository(conn)

	authSvc := identityservice.NewAuthService(users, hasher, tokens)
	dashboardSvc := dashboardservice.NewDashboardService(dashboards, activity, hub, log)
	annotationSvc := annotationservice.NewAnnotationService(annotations, dashboards, activity, hub, log)
	datasourceSvc := datasourceservice.NewDataSourceService(sources, dashboards, activity, cfg.UploadDir, log)

	var completer aiservice.Completer
	if cfg.OpenAIAPIKey != "" {
		completer = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	} else {
		log.Warn("OPENAI_API_KEY not set; AI endpoints disabled")
	}
	aiSvc := aiservice.NewAIService(completer, datasourceSvc, log)

	router := server.NewRouter(server.Deps{
		Auth:        identityhandler.NewAuthHandler(authSvc, log),
		Dashboards:  dashboardhandler.NewDashboardHandler(dashboardSvc, log),
		Annotations: annotationhandler.NewAnnotationHandler(annotationSvc, log),
		DataSources: datasourcehandler.NewDataSourceHandler(datasourceSvc, cfg.MaxUploadBytes, log),
		AI:          aihandler.NewAIHandler(aiSvc, log),
		Health:      healthhandler.NewHealthHandler(conn, hub, log),
		WS:          wstransport.NewHandler(hub, tokens, cfg.FrontendURL, log),
		Tokens:      tokens,
		FrontendURL: cfg.FrontendURL,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("http server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
