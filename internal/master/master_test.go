package master

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func createMasterDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.mdb")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer conn.Close()

	stmts := []string{
		`CREATE TABLE succession_relation (relation_type INTEGER, relation_point INTEGER)`,
		`CREATE TABLE succession_relation_member (relation_type INTEGER, chara_id INTEGER)`,
		`CREATE TABLE text_data (id INTEGER, category INTEGER, text TEXT)`,
		`CREATE TABLE single_mode_wins_saddle (id INTEGER, saddle_name TEXT, priority INTEGER)`,
		`INSERT INTO succession_relation VALUES (1, 10), (2, 5)`,
		`INSERT INTO succession_relation_member VALUES (1, 1001), (1, 1002), (2, 1002), (2, 1003)`,
		`INSERT INTO text_data VALUES (1001, 6, 'Special Week'), (1002, 6, 'Silence Suzuka'), (1001, 4, 'other category')`,
		`INSERT INTO single_mode_wins_saddle VALUES (1, 'G1 Saddle', 10), (2, 'Classic Saddle', 20)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}
	return path
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mdb")); err == nil {
		t.Fatalf("expected error for missing master database")
	}
}

func TestLoadRelations(t *testing.T) {
	db, err := Open(createMasterDB(t))
	if err != nil {
		t.Fatalf("failed to open master database: %v", err)
	}
	defer db.Close()

	points, rel, err := db.LoadRelations(context.Background())
	if err != nil {
		t.Fatalf("failed to load relations: %v", err)
	}

	if len(points) != 2 || points[1] != 10 || points[2] != 5 {
		t.Fatalf("unexpected relation points: %v", points)
	}
	if len(rel) != 3 {
		t.Fatalf("unexpected character count: got %d, want 3", len(rel))
	}
	if _, ok := rel[1002][1]; !ok {
		t.Fatalf("character 1002 missing relation type 1")
	}
	if _, ok := rel[1002][2]; !ok {
		t.Fatalf("character 1002 missing relation type 2")
	}
	if _, ok := rel[1003][1]; ok {
		t.Fatalf("character 1003 should not have relation type 1")
	}
}

func TestLoadCharaNames(t *testing.T) {
	db, err := Open(createMasterDB(t))
	if err != nil {
		t.Fatalf("failed to open master database: %v", err)
	}
	defer db.Close()

	names, err := db.LoadCharaNames(context.Background())
	if err != nil {
		t.Fatalf("failed to load character names: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("unexpected name count: got %d, want 2", len(names))
	}
	if names[1001] != "Special Week" {
		t.Fatalf("unexpected name for 1001: %q", names[1001])
	}
}

func TestExportSaddles(t *testing.T) {
	db, err := Open(createMasterDB(t))
	if err != nil {
		t.Fatalf("failed to open master database: %v", err)
	}
	defer db.Close()

	path := filepath.Join(t.TempDir(), "out", "single_mode_wins_saddle.json")
	count, err := db.ExportSaddles(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to export saddles: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected saddle count: got %d, want 2", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saddle export: %v", err)
	}
	var saddles []map[string]any
	if err := json.Unmarshal(data, &saddles); err != nil {
		t.Fatalf("failed to parse saddle export: %v", err)
	}
	if len(saddles) != 2 {
		t.Fatalf("unexpected exported rows: got %d, want 2", len(saddles))
	}
	if saddles[0]["saddle_name"] != "G1 Saddle" && saddles[1]["saddle_name"] != "G1 Saddle" {
		t.Fatalf("missing expected saddle name in export: %v", saddles)
	}
}
