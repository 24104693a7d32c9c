// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"collabboard/backend/internal/config"
	dashboarddomain "collabboard/backend/internal/dashboard/domain"
	dashboardrepo "collabboard/backend/internal/dashboard/repository"
	"collabboard/backend/internal/db"
	"collabboard/backend/internal/security"
	userdomain "collabboard/backend/internal/user/domain"
	userrepo "collabboard/backend/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("dev user %s already exists, nothing to do", devUserEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	dev := &userdomain.User{Email: devUserEmail, PasswordHash: hash, Role: userdomain.RoleEditor}
	if err := users.Create(ctx, dev); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	dashboards := dashboardrepo.NewPostgresRepository(conn)
	sample := &dashboarddomain.Dashboard{
		Name:    "Sample Sales Dashboard",
		OwnerID: dev.ID,
		Config:  []byte(`{"charts":[{"type":"line","title":"Monthly Revenue","xAxis":"month","yAxis":"revenue"}]}`),
	}
	if err := dashboards.Create(ctx, sample); err != nil {
		log.Fatalf("create sample dashboard: %v", err)
	}

	log.Printf("seeded dev user %s (password %s) with dashboard %d", devUserEmail, devPassword, sample.ID)
}
