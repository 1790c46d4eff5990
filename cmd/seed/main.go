// seed creates the initial SUPER_ADMIN from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD and, with
// -policy, stores the built-in Rego module so the OPA engine can load it from the database.
// Idempotent: an existing admin or policy row is left in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"registration-backend/internal/config"
	"registration-backend/internal/db"
	identitydomain "registration-backend/internal/identity/domain"
	identityrepo "registration-backend/internal/identity/repository"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	policyrepo "registration-backend/internal/policy/repository"
	"registration-backend/internal/security"
)

const builtinPolicyID = "builtin-authz"

func main() {
	policyMode := flag.String("policy", "", "Store the built-in policy: \"on\" (enabled), \"off\" (disabled) or empty to skip")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}
	email := strings.TrimSpace(strings.ToLower(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()
	ctx := context.Background()

	identities := identityrepo.NewPostgresRepository(conn)
	existing, err := identities.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed admin already exists (%s, role %s). Skipping.", email, existing.Role)
	} else {
		hasher := security.NewHasher(cfg.BcryptCost)
		passwordHash, err := hasher.Hash(cfg.SeedAdminPassword)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		now := time.Now().UTC()
		admin := &identitydomain.Identity{
			Email:        email,
			PasswordHash: passwordHash,
			Role:         identitydomain.RoleSuperAdmin,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := identities.Create(ctx, admin); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("Created SUPER_ADMIN %s (id %d).", admin.Email, admin.ID)
	}

	if *policyMode != "" {
		if err := seedPolicy(ctx, policyrepo.NewPostgresRepository(conn), *policyMode == "on"); err != nil {
			log.Fatalf("seed policy: %v", err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s\n", email)
}

func seedPolicy(ctx context.Context, repo policyrepo.Repository, enabled bool) error {
	p, err := repo.GetByID(ctx, builtinPolicyID)
	if err != nil {
		return err
	}
	if p != nil {
		if p.Enabled == enabled {
			log.Printf("Policy %s already present (enabled=%t). Skipping.", p.ID, p.Enabled)
			return nil
		}
		p.Enabled = enabled
		log.Printf("Setting policy %s enabled=%t.", p.ID, enabled)
		return repo.Update(ctx, p)
	}
	log.Printf("Storing built-in policy as %s (enabled=%t).", builtinPolicyID, enabled)
	return repo.Create(ctx, &policydomain.Policy{
		ID:        builtinPolicyID,
		Name:      "built-in authorization policy",
		Rules:     engine.DefaultPolicy(),
		Enabled:   enabled,
		CreatedAt: time.Now().UTC(),
	})
}
