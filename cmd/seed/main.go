// seed inserts development sample accounts for local testing. Run via
// go run ./cmd/seed. Idempotent: accounts that already exist are skipped.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"auction-marketplace/backend/internal/authz"
	"auction-marketplace/backend/internal/config"
	"auction-marketplace/backend/internal/db"
	"auction-marketplace/backend/internal/identity/domain"
	identityrepo "auction-marketplace/backend/internal/identity/repository"
	"auction-marketplace/backend/internal/security"
)

// devPassword is the shared password for every seeded account.
const devPassword = "Dev!Passw0rd"

type seedAccount struct {
	email     string
	name      string
	role      string
	kycStatus string
}

var seedAccounts = []seedAccount{
	{email: "admin@example.com", name: "Demo Admin", role: authz.RoleAdmin, kycStatus: domain.KYCStatusVerified},
	{email: "moderator@example.com", name: "Demo Moderator", role: authz.RoleModerator, kycStatus: domain.KYCStatusVerified},
	{email: "seller@example.com", name: "Demo Seller", role: authz.RoleSeller, kycStatus: domain.KYCStatusVerified},
	{email: "buyer@example.com", name: "Demo Buyer", role: authz.RoleBuyer, kycStatus: domain.KYCStatusPending},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	if cfg.IsProduction() {
		fmt.Fprintln(os.Stderr, "refusing to seed with APP_ENV=production")
		os.Exit(1)
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := identityrepo.NewPostgresRepository(sqlDB)
	hasher := security.NewHasher(cfg.BcryptCost)

	for _, acct := range seedAccounts {
		existing, err := users.GetByEmail(ctx, acct.email)
		if err != nil {
			fmt.Fprintln(os.Stderr, "lookup:", err)
			os.Exit(1)
		}
		if existing != nil {
			log.Printf("seed: %s already exists, skipping", acct.email)
			continue
		}

		hash, err := hasher.Hash([]byte(devPassword))
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash:", err)
			os.Exit(1)
		}

		now := time.Now().UTC()
		u := &domain.User{
			ID:           uuid.New().String(),
			Email:        acct.email,
			Name:         acct.name,
			Role:         acct.role,
			KYCStatus:    acct.kycStatus,
			IsActive:     true,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			fmt.Fprintln(os.Stderr, "create:", err)
			os.Exit(1)
		}
		log.Printf("seed: created %s (%s)", acct.email, acct.role)
	}

	log.Printf("seed: done; password for all accounts is %q", devPassword)
}
