// Command bootstrap-admin creates the first admin account so a fresh
// deployment has someone who can log in and manage users.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/serigen/serigen/internal/repository"
	"github.com/serigen/serigen/internal/service"
)

func main() {
	var (
		databasePath = flag.String("database-path", envOr("DATABASE_PATH", "serigen.db"), "SQLite file path or postgres:// connection string")
		name         = flag.String("name", "admin", "Admin user name")
		password     = flag.String("password", "", "Admin password (required)")
	)
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, *databasePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer store.Close()

	users := service.NewUserService(store)

	user, err := users.Create(ctx, *name, *password, true)
	if err != nil {
		if errors.Is(err, service.ErrNameExists) {
			fmt.Fprintf(os.Stderr, "user %q already exists\n", *name)
		} else {
			fmt.Fprintln(os.Stderr, "create admin:", err)
		}
		os.Exit(1)
	}

	fmt.Printf("created admin user %q (id %d)\n", user.Name, user.ID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
