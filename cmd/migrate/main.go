package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"studybuddy/internal/config"
	"studybuddy/internal/logging"
)

const usage = "Usage: migrate [up|down|steps N|force V|version]"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	source := "file://db/migrations"
	if dir := os.Getenv("STUDYBUDDY_MIGRATIONS_DIR"); dir != "" {
		source = "file://" + dir
	}

	m, err := migrate.New(source, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrate instance")
	}
	defer m.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("migration up failed")
		}
		log.Info().Msg("migrations applied")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("migration down failed")
		}
		log.Info().Msg("migrations reverted")

	case "steps", "force":
		if len(os.Args) < 3 {
			log.Fatal().Str("command", cmd).Msg("a number argument is required")
		}
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Str("arg", os.Args[2]).Msg("invalid number argument")
		}
		if cmd == "force" {
			if err := m.Force(n); err != nil {
				log.Fatal().Err(err).Int("version", n).Msg("force version failed")
			}
			log.Info().Int("version", n).Msg("version forced")
			return
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Int("steps", n).Msg("migration steps failed")
		}
		log.Info().Int("steps", n).Msg("migration steps applied")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get version")
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("unknown command: %s\n", cmd)
		fmt.Println(usage)
		os.Exit(1)
	}
}
