// Package main is a small operator CLI for bootstrapping admin accounts.
//
// The API has no route that creates the first admin — promotion requires an
// existing admin — so a fresh deployment runs this once against the same
// database file:
//
//	go run ./cmd/admintool -email admin@example.com -password s3cret -first Admin
//
// With -promote, an existing account is promoted instead of created.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/auth"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/config"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/model"
	"github.com/Zahidur-Rahman/Task-Pulse/internal/repository/sqlite"
)

func main() {
	var (
		email     = flag.String("email", "", "email of the admin account (required)")
		password  = flag.String("password", "", "password for a newly created account")
		firstName = flag.String("first", "", "first name for a newly created account")
		lastName  = flag.String("last", "", "last name for a newly created account")
		promote   = flag.Bool("promote", false, "promote an existing account instead of creating one")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *email == "" {
		logger.Error("-email is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	addr := strings.ToLower(strings.TrimSpace(*email))

	if *promote {
		if err := promoteExisting(ctx, db, addr); err != nil {
			logger.Error("promotion failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("user promoted to admin", slog.String("email", addr))
		return
	}

	if *password == "" {
		logger.Error("-password is required when creating an account")
		os.Exit(2)
	}

	if err := createAdmin(ctx, db, addr, *password, *firstName, *lastName); err != nil {
		logger.Error("admin creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("admin account created", slog.String("email", addr))
}

func createAdmin(ctx context.Context, db *sqlite.DB, email, password, firstName, lastName string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	hashed, err := auth.NewPasswordService().Hash(password)
	if err != nil {
		return err
	}

	user := &model.User{
		Email:     email,
		Password:  hashed,
		FirstName: firstName,
		LastName:  lastName,
		Role:      model.RoleAdmin,
		IsActive:  true,
	}

	err = db.Users.Create(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// Account exists — promote it instead, so the tool is idempotent.
		return promoteExisting(ctx, db, email)
	}
	return err
}

func promoteExisting(ctx context.Context, db *sqlite.DB, email string) error {
	user, err := db.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return nil
	}
	return db.Users.UpdateRole(ctx, user.ID, model.RoleAdmin)
}
