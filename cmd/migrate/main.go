package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/migrate"
)

type dbCommand func(ctx context.Context, runner *migrate.Runner) ([]*goose.MigrationResult, error)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", "", "migrations directory (default: embedded copy; create writes to "+migrate.SourceDir+")")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		target := *dir
		if target == "" {
			target = migrate.SourceDir
		}
		path, err := migrate.Create(target, *name, time.Now())
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		source, err := migrate.Source(*dir)
		if err != nil {
			fail("%v", err)
		}
		if err := migrate.Validate(source); err != nil {
			fail("migration validation failed:\n%v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	commands := map[string]dbCommand{
		"up": func(ctx context.Context, runner *migrate.Runner) ([]*goose.MigrationResult, error) {
			return runner.Up(ctx)
		},
		"down": func(ctx context.Context, runner *migrate.Runner) ([]*goose.MigrationResult, error) {
			return runner.Down(ctx)
		},
		"status": func(ctx context.Context, runner *migrate.Runner) ([]*goose.MigrationResult, error) {
			statuses, err := runner.Status(ctx)
			for _, st := range statuses {
				fmt.Printf("%-8s %s\n", st.State, st.Source.Path)
			}
			return nil, err
		},
		"version": func(ctx context.Context, runner *migrate.Runner) ([]*goose.MigrationResult, error) {
			target, err := strconv.ParseInt(*version, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("-version must be YYYYMMDDHHMMSS: %w", err)
			}
			return runner.To(ctx, target)
		},
	}
	run, ok := commands[*cmd]
	if !ok {
		fail("unknown -cmd value: %s", *cmd)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	// The goose files are Postgres SQL; the sqlite backend is schema-managed by gorm.
	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			fail("-cmd=%s is not supported for sqlite databases", *cmd)
		}
		requireResource(ctx, logg, "sqlite automigrate", dbClient.AutoMigrate())
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)
	source, err := migrate.Source(*dir)
	requireResource(ctx, logg, "migration source", err)
	runner, err := migrate.NewRunner(sqlDB, source)
	requireResource(ctx, logg, "goose provider", err)

	results, err := run(ctx, runner)
	for _, res := range results {
		fmt.Printf("%-4s %s (%s)\n", res.Direction, res.Source.Path, res.Duration.Round(time.Millisecond))
	}
	if err != nil {
		fail("goose %s failed: %v", *cmd, err)
	}
	logg.Info(logg.WithField(ctx, "changed", len(results)), "migrations complete")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
