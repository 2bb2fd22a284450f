// Command adduser creates a login. Without -org it starts a new organization,
// which is how the first owner of a shop is set up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	identityapp "github.com/posterdash/backend/internal/application/identity"
	"github.com/posterdash/backend/internal/domain/identity"
	"github.com/posterdash/backend/internal/infrastructure/auth"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/posterdash/backend/internal/infrastructure/logger"
	"github.com/posterdash/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		email    string
		name     string
		password string
		role     string
		org      string
	)
	flag.StringVar(&email, "email", "", "Login email (required)")
	flag.StringVar(&name, "name", "", "Display name")
	flag.StringVar(&password, "password", "", "Password, at least 8 characters (required)")
	flag.StringVar(&role, "role", string(identity.RoleOwner), "OWNER, CASHIER or CAFE")
	flag.StringVar(&org, "org", "", "Existing organization id; empty creates a new one")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if email == "" || password == "" {
		flag.Usage()
		os.Exit(2)
	}

	orgID := uuid.New()
	if org != "" {
		if orgID, err = uuid.Parse(org); err != nil {
			log.Fatal("invalid -org", zap.String("org", org), zap.Error(err))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration failed", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database, log, "warn")
	if err != nil {
		log.Fatal("connect database failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	svc := identityapp.NewAuthService(
		persistence.NewGormUserRepository(db.DB),
		auth.NewJWTService(cfg.JWT),
		auth.NewMemoryRevocationList(),
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	user, err := svc.CreateUser(ctx, orgID, identityapp.CreateUserInput{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     identity.Role(role),
	})
	if err != nil {
		log.Fatal("create user failed", zap.Error(err))
	}
	fmt.Printf("user %s (%s) created in organization %s\n", user.Email, user.Role, user.OrgID)
}
