package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mini-shop/internal/config"

	"github.com/jackc/pgx/v5"
)

// Connects to the configured database and reports the server version.
// Useful for verifying docker-compose or environment settings before
// starting the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName, version string
	if err := conn.QueryRow(ctx, "SELECT current_database(), version()").Scan(&dbName, &version); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected to %s\n%s\n", dbName, version)
}
