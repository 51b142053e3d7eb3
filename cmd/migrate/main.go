// migrate applies or rolls back the embedded users schema: go run ./cmd/migrate -direction up.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db/migrate"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	direction := flags.StringP("direction", "d", "up", "Migration direction: up or down")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(2)
	}

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	version, err := migrate.Run(cfg.DatabaseURL, dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Printf("migrate %s: schema at version %d\n", dir, version)
}
