// Package main provides operator utilities for Agora.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>     - Promote student to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>      - Demote admin to student")
	fmt.Println("  go run ./cmd/admin make-super <user_id>  - Grant super_admin (no super_admin required)")
	fmt.Println("  go run ./cmd/admin list-admins           - List admins and super admins")
	fmt.Println("  go run ./cmd/admin reconcile             - Recount denormalized counters")
	fmt.Println("  go run ./cmd/admin migrate               - Apply the schema")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.SetLogger(middleware.NewLogger(os.Stderr, cfg.Env))

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := repository.NewStore(db)
	ctx := context.Background()

	command := os.Args[1]
	switch command {
	case "promote", "demote", "make-super":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil || id == 0 {
			log.Fatalf("Invalid user ID %q", os.Args[2])
		}
		err = changeRole(ctx, store, command, uint(id))
		if err != nil {
			log.Fatalf("%s failed: %v", command, err)
		}

	case "list-admins":
		listAdmins(ctx, store)

	case "reconcile":
		report, err := service.NewReconcileService(store).Reconcile(ctx)
		if err != nil {
			log.Fatalf("Reconcile failed: %v", err)
		}
		if report.Total() == 0 {
			fmt.Println("All counters consistent")
			return
		}
		for key, n := range report {
			fmt.Printf("%-32s %d rows fixed\n", key, n)
		}

	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Schema up to date")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

// operator acts as the oldest super admin so role changes are logged like
// the ones made through the API.
func operator(ctx context.Context, store *repository.Store) (models.Actor, error) {
	supers, err := store.Users.ListByRoles(ctx, models.RoleSuperAdmin)
	if err != nil {
		return models.Actor{}, err
	}
	if len(supers) == 0 {
		return models.Actor{}, errors.New("no super_admin exists; run make-super first")
	}
	return supers[0].Actor(), nil
}

func changeRole(ctx context.Context, store *repository.Store, command string, id uint) error {
	if command == "make-super" {
		user, err := store.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := store.Users.UpdateRole(ctx, id, models.RoleSuperAdmin); err != nil {
			return err
		}
		fmt.Printf("Granted super_admin to %s (ID: %d)\n", user.Username, user.ID)
		return nil
	}

	actor, err := operator(ctx, store)
	if err != nil {
		return err
	}
	admins := service.NewAdminService(store)
	var user *models.User
	if command == "promote" {
		user, err = admins.Promote(ctx, actor, id)
	} else {
		user, err = admins.Demote(ctx, actor, id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s (ID: %d) is now %s\n", user.Username, user.ID, user.Role)
	return nil
}

func listAdmins(ctx context.Context, store *repository.Store) {
	admins, err := store.Users.ListByRoles(ctx, models.RoleAdmin, models.RoleSuperAdmin)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s | Role: %s\n", admin.ID, admin.Username, admin.Email, admin.Role)
	}
	fmt.Println("─────────────────────────────────────")
}
