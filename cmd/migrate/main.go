package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"recoverme/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	steps := flag.Int("steps", 0, "number of migrations to apply, negative rolls back, zero applies all")
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("Could not create Zap logger.")
	}
	defer logger.Sync()
	log := logger.Sugar()

	if err := run(*steps, *down); err != nil {
		log.Errorw("Migration failed.", "err", err)
		os.Exit(1)
	}
	log.Infow("Migrations applied.", "steps", *steps, "down", *down)
}

func run(steps int, down bool) error {
	config, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+config.MigrationsPath, config.PostgresqlURL)
	if err != nil {
		return fmt.Errorf("could not connect to DB for applying migrations: %w", err)
	}
	defer m.Close()

	switch {
	case down:
		err = m.Down()
	case steps != 0:
		err = m.Steps(steps)
	default:
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
