// Package pipeline wires the affinity precompute end to end: load the
// master data, decide the output framing, expand the combination table
// and emit the migration script plus the definitions snapshot.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/umadb/affinity/internal/master"
	"github.com/umadb/affinity/internal/storage"
	"github.com/umadb/affinity/internal/util"
	"github.com/umadb/affinity/pkg/affinity"
	"github.com/umadb/affinity/pkg/logger"
	"github.com/umadb/affinity/pkg/migration"
	"github.com/umadb/affinity/pkg/snapshot"
)

// Params configures one pipeline run.
type Params struct {
	MasterPath    string
	MigrationPath string
	SnapshotPath  string
	SaddlePath    string
	Workers       int
	Artifacts     *storage.ArtifactStore
}

// Run executes the full precompute. The combination table is always
// rebuilt from scratch; the previous script's trailer and the snapshot
// only decide which index maintenance statements the new script carries.
func Run(ctx context.Context, p Params) error {
	db, err := master.Open(p.MasterPath)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("[Affinity] Reading master database", "path", p.MasterPath)
	points, rel, err := db.LoadRelations(ctx)
	if err != nil {
		return err
	}
	if len(rel) == 0 {
		return fmt.Errorf("master database has no relation members")
	}

	model, err := affinity.NewModel(points, rel)
	if err != nil {
		return err
	}
	charas := model.Charas()
	maxID := model.MaxCharaID()
	logger.Info("[Affinity] Found characters",
		"count", len(charas), "min", charas[0], "max", maxID)

	prevMax, havePrev := migration.LastCharacter(p.MigrationPath)

	var verdict affinity.Verdict
	haveBaseline := false
	if havePrev {
		logger.Info("[Affinity] Previous migration found", "last_character", prevMax)
		verdict, haveBaseline = loadBaseline(p.SnapshotPath, points, rel)
		for _, reason := range verdict.Reasons {
			logger.Warn("[Affinity] Data change detected", "reason", reason)
		}
	} else {
		logger.Info("[Affinity] No previous migration found, generating full initialization")
	}

	decision := affinity.PlanRecompute(prevMax, havePrev, haveBaseline, verdict, maxID)
	switch decision.Mode {
	case affinity.ModeNoop:
		logger.Info("[Affinity] Already up to date, nothing to do")
		return nil
	case affinity.ModeFullInit:
		if havePrev {
			logger.Warn("[Affinity] No usable snapshot baseline, forcing full initialization")
		}
	case affinity.ModeIncremental:
		logger.Info("[Affinity] Incremental update",
			"new_positions", len(decision.NewCharaIDs), "reindex_all", decision.ReindexAll)
	}

	start := time.Now()
	logger.Info("[Affinity] Building score caches")
	builder := affinity.NewBuilder(model)
	logger.Info("[Affinity] Score caches ready", "duration", time.Since(start).Round(time.Millisecond))

	// Snapshot and saddle export happen before the migration so a later
	// failure never leaves a script without its matching baseline.
	if err := snapshot.New(points, rel, maxID).Write(p.SnapshotPath); err != nil {
		return err
	}
	logger.Info("[Affinity] Definitions snapshot written", "path", p.SnapshotPath)

	if p.SaddlePath != "" {
		count, err := db.ExportSaddles(ctx, p.SaddlePath)
		if err != nil {
			return err
		}
		logger.Info("[Affinity] Saddle definitions exported", "count", count, "path", p.SaddlePath)
	}

	updates, err := writeScript(ctx, p, builder, decision, charas, maxID)
	if err != nil {
		return err
	}

	if p.Artifacts != nil {
		if err := upload(ctx, p); err != nil {
			return err
		}
	}

	logSummary(decision, builder, charas, updates)
	return nil
}

func loadBaseline(path string, points map[int]int, rel map[int]affinity.RelationSet) (affinity.Verdict, bool) {
	snap, err := snapshot.Load(path)
	if err != nil {
		logger.Warn("[Affinity] Snapshot unavailable", "path", path, "err", err)
		return affinity.Verdict{}, false
	}
	prevPoints, err := snap.Points()
	if err != nil {
		logger.Warn("[Affinity] Snapshot unreadable", "path", path, "err", err)
		return affinity.Verdict{}, false
	}
	prevRel, err := snap.Relations()
	if err != nil {
		logger.Warn("[Affinity] Snapshot unreadable", "path", path, "err", err)
		return affinity.Verdict{}, false
	}
	return affinity.DetectChanges(prevPoints, prevRel, points, rel), true
}

func writeScript(
	ctx context.Context,
	p Params,
	builder *affinity.Builder,
	decision affinity.Decision,
	charas []int,
	maxID int,
) (int, error) {
	start := time.Now()
	logger.Info("[Affinity] Computing affinity arrays",
		"combinations", builder.Combinations(), "array_length", builder.ArrayLength())

	f, err := os.Create(p.MigrationPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration script: %w", err)
	}
	defer f.Close()

	w := migration.NewWriter(f, migration.Params{
		Decision:     decision,
		MaxCharaID:   maxID,
		Charas:       charas,
		Combinations: builder.Combinations(),
		Source:       p.MasterPath,
		GeneratedAt:  time.Now(),
	})
	if err := w.WriteHeader(); err != nil {
		return 0, fmt.Errorf("failed to write migration header: %w", err)
	}

	progress := util.Progress{Total: builder.Combinations()}
	err = builder.Stream(ctx, p.Workers, func(k affinity.TripleKey, e affinity.Entry) error {
		if done := progress.Add(1); done%100000 == 0 {
			logger.Info("[Affinity] Progress", "combinations", progress.String())
		}
		return w.WriteEntry(k, e)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write migration updates: %w", err)
	}
	if err := w.Finish(); err != nil {
		return 0, fmt.Errorf("failed to finish migration script: %w", err)
	}

	logger.Info("[Affinity] Migration written",
		"path", p.MigrationPath, "updates", progress.Done(),
		"duration", time.Since(start).Round(time.Millisecond))
	return progress.Done(), nil
}

func upload(ctx context.Context, p Params) error {
	key, err := p.Artifacts.UploadFile(ctx, p.MigrationPath, "application/sql")
	if err != nil {
		return err
	}
	logger.Info("[Affinity] Migration uploaded", "key", key)

	key, err = p.Artifacts.UploadFile(ctx, p.SnapshotPath, "application/json")
	if err != nil {
		return err
	}
	logger.Info("[Affinity] Snapshot uploaded", "key", key)

	if p.SaddlePath != "" {
		key, err = p.Artifacts.UploadFile(ctx, p.SaddlePath, "application/json")
		if err != nil {
			return err
		}
		logger.Info("[Affinity] Saddle export uploaded", "key", key)
	}
	return nil
}

func logSummary(decision affinity.Decision, builder *affinity.Builder, charas []int, updates int) {
	switch decision.Mode {
	case affinity.ModeIncremental:
		newIndexes := 0
		for _, id := range decision.NewCharaIDs {
			for _, c := range charas {
				if c == id {
					newIndexes++
					break
				}
			}
		}
		if decision.ReindexAll {
			newIndexes = len(charas)
		}
		logger.Info("[Affinity] Summary: INCREMENTAL",
			"previous_positions", decision.PrevMax-affinity.BaseCharaID+1,
			"new_positions", builder.ArrayLength(),
			"updates", updates,
			"indexes", newIndexes)
	default:
		logger.Info("[Affinity] Summary: FULL INITIALIZATION",
			"positions", builder.ArrayLength(),
			"characters", len(charas),
			"updates", updates,
			"indexes", len(charas)+1)
	}
}
