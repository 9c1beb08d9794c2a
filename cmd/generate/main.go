package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/umadb/affinity/internal/pipeline"
	"github.com/umadb/affinity/internal/storage"
	"github.com/umadb/affinity/internal/util"
	"github.com/umadb/affinity/pkg/logger"
	"github.com/umadb/affinity/pkg/logger/console"
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

	masterPath := util.GetEnv("MASTER_DB_PATH")
	if masterPath == "" {
		logger.Fatal("MASTER_DB_PATH is not set")
	}

	dataDir := util.GetEnvString("DATA_DIR", "data")

	params := pipeline.Params{
		MasterPath:    masterPath,
		MigrationPath: util.GetEnvString("MIGRATION_PATH", "affinity_migration.sql"),
		SnapshotPath:  filepath.Join(dataDir, "affinity_definitions.json"),
		SaddlePath:    filepath.Join(dataDir, "single_mode_wins_saddle.json"),
		Workers:       util.GetEnvInt("AFFINITY_WORKERS", 0),
		Artifacts:     storage.NewArtifactStore(ctx),
	}

	if err := pipeline.Run(ctx, params); err != nil {
		logger.Fatal("Affinity generation failed", "err", err)
	}
}
