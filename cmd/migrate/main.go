// migrate applies the embedded SQL migrations; run via go run ./cmd/migrate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"auction-marketplace/backend/internal/config"
	"auction-marketplace/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	err = migrate.Run(cfg.DatabaseURL, *direction)
	switch {
	case err == nil:
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("migrate: no change")
	default:
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
