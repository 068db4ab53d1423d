// cmd/tools/dbmigrate/main.go
package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/config"
	"github.com/codr1/CampusCourts/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "config/app.yaml", "Path to the application config")
		dbPath     = flag.String("db", "", "Path to SQLite database (overrides config)")
		command    = flag.String("command", "", "Command to run (up, down, version, force)")
		version    = flag.Int("version", -1, "Target version for force")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *command == "" {
		log.Error().Msg("-command is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
		}
		path = cfg.Database.Filename
	}

	absDB, err := filepath.Abs(path)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("Invalid database path")
	}
	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	sqlDB, err := db.Open(absDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	m, err := db.NewMigrator(sqlDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrate instance")
	}
	defer m.Close()

	logger := log.With().Str("db", absDB).Str("command", *command).Logger()
	switch *command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logger.Info().Msg("Successfully ran migrations up")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
		logger.Info().Msg("Successfully ran migrations down")

	case "version":
		current, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info().Msg("No migrations applied")
			return
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to get version")
		}
		logger.Info().Uint("version", current).Bool("dirty", dirty).Msg("Current migration version")

	case "force":
		if *version < 0 {
			logger.Fatal().Msg("-version is required for force")
		}
		if err := m.Force(*version); err != nil {
			logger.Fatal().Err(err).Msg("Failed to force version")
		}
		logger.Info().Str("version", strconv.Itoa(*version)).Msg("Forced migration version")

	default:
		logger.Fatal().Msg("Unknown command")
	}
}
