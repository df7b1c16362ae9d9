package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"product-service/internal/config"
	"product-service/internal/repository"

	"github.com/rs/zerolog"
)

// dbcheck resolves the database for the current environment, opens it and
// pings it once.
func main() {
	_, _ = config.Load()

	desc, err := config.ResolveDatabase(config.DatabaseSettingsFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to resolve database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.Open(ctx, desc, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
		os.Exit(1)
	}

	products, err := repo.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to %s database (%s, %s): %s\n",
		desc.Environment, desc.Kind, desc.Driver, desc.Redacted())
	fmt.Printf("Products stored: %d\n", len(products))
}
