package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umadb/affinity/internal/util"
	"github.com/umadb/affinity/pkg/logger"
	"github.com/umadb/affinity/pkg/logger/console"
	"github.com/umadb/affinity/pkg/migration"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}
	scriptPath := util.GetEnvString("MIGRATION_PATH", "affinity_migration.sql")

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		logger.Fatal("Migration script not found", "path", scriptPath, "err", err)
	}

	migrateSchema(databaseURL)
	applyScript(ctx, databaseURL, scriptPath, string(script))
}

// migrateSchema brings the inheritance table itself up to date before
// the generated script updates its affinity columns.
func migrateSchema(databaseURL string) {
	dir := util.GetEnvString("MIGRATIONS_DIR", "migrations")

	// The migrate pgx/v5 driver registers under its own URL scheme.
	url := strings.Replace(databaseURL, "postgresql://", "pgx5://", 1)
	url = strings.Replace(url, "postgres://", "pgx5://", 1)

	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		logger.Fatal("Failed to initialize schema migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run schema migrations", "err", err)
	}
	logger.Info("[Apply] Schema up to date")
}

func applyScript(ctx context.Context, databaseURL, scriptPath, script string) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer pool.Close()

	// CREATE INDEX CONCURRENTLY must not share a transaction with the
	// update batch, so the whole script runs on one dedicated connection.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		logger.Fatal("Failed to acquire database connection", "err", err)
	}
	defer conn.Release()

	stmts := migration.Statements(script)
	logger.Info("[Apply] Applying migration script",
		"path", scriptPath, "statements", len(stmts))

	start := time.Now()
	for i, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			logger.Fatal("Statement failed, stopping",
				"statement", i+1, "total", len(stmts), "err", err)
		}
		if (i+1)%5000 == 0 {
			logger.Info("[Apply] Progress", "applied", i+1, "total", len(stmts))
		}
	}
	logger.Info("[Apply] Migration applied",
		"statements", len(stmts), "duration", time.Since(start).Round(time.Millisecond))

	var arrayLength *int
	err = conn.QueryRow(ctx,
		`SELECT MAX(array_length(affinity_scores, 1)) FROM inheritance`).Scan(&arrayLength)
	if err != nil {
		logger.Error("Failed to verify array length", "err", err)
		return
	}
	if arrayLength == nil {
		logger.Warn("[Apply] No inheritance rows to verify yet")
		return
	}
	logger.Info("[Apply] Verified affinity array length", "length", *arrayLength)
}
