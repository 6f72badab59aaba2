// Command migrate manages the Gamelogue database schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gamelogue/internal/config"
	"gamelogue/internal/database"
)

const usageText = `usage: go run ./cmd/migrate <command>

commands:
  up              apply pending SQL migrations (postgres) or AutoMigrate (sqlite)
  auto            run AutoMigrate regardless of DB_SCHEMA_MODE (refused in production)
  status          show the schema policy and pending migrations
  down <version>  revert one SQL migration (postgres only)`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Usage = func() { fmt.Println(usageText) }
	flag.Parse()
	if flag.NArg() < 1 {
		return errors.New(usageText)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.MigrateUp(ctx, db, cfg); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Println("gamelogue schema up to date")

	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Println("gamelogue tables migrated with AutoMigrate")

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		fmt.Printf("driver:   %s\n", status.Driver)
		fmt.Printf("env:      %s\n", status.Environment)
		fmt.Printf("mode:     %s\n", status.Mode)
		fmt.Printf("sql:      %t\n", status.WillRunSQL)
		fmt.Printf("auto:     %t\n", status.WillRunAutoMigrate)
		if !status.WillRunSQL {
			fmt.Println("migrations: not tracked for this driver")
			return nil
		}
		fmt.Printf("applied:  %d\n", len(status.AppliedVersions))
		if len(status.PendingMigrations) == 0 {
			fmt.Println("pending:  none")
		}
		for _, m := range status.PendingMigrations {
			fmt.Printf("pending:  %s\n", m.String())
		}

	case "down":
		if flag.NArg() < 2 {
			return errors.New("down needs a version, e.g. go run ./cmd/migrate down 3")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.MigrateDown(ctx, db, cfg, version); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Printf("reverted migration %06d", version)

	default:
		return errors.New(usageText)
	}

	return nil
}
