package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// Applies the SQL migrations under db/migrations to the database named by
// DATABASE_URL. MIGRATIONS_PATH overrides the source directory.
func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	src := strings.TrimSpace(os.Getenv("MIGRATIONS_PATH"))
	if src == "" {
		src = "db/migrations"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		logger.Error("init migrate driver", "err", err)
		os.Exit(1)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+src, "pgx", driver)
	if err != nil {
		logger.Error("init migrate", "err", err)
		os.Exit(1)
	}

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error("read current version", "err", err)
		os.Exit(1)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	after, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error("read new version", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied", "from", before, "to", after)
}
