package migration

import (
	"strings"
	"testing"
	"time"

	"github.com/umadb/affinity/pkg/affinity"
)

func writeScript(t *testing.T, p Params, entries int) string {
	t.Helper()
	var sb strings.Builder
	w := NewWriter(&sb, p)
	if err := w.WriteHeader(); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for i := 0; i < entries; i++ {
		k := affinity.TripleKey{Main: 1001, Left: 1002, Right: 1003}
		e := affinity.Entry{BaseAffinity: 10, Scores: []int{0, 10, 5}}
		if err := w.WriteEntry(k, e); err != nil {
			t.Fatalf("failed to write entry: %v", err)
		}
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("failed to finish script: %v", err)
	}
	return sb.String()
}

func fullInitParams() Params {
	return Params{
		Decision:     affinity.Decision{Mode: affinity.ModeFullInit},
		MaxCharaID:   1003,
		Charas:       []int{1001, 1002, 1003},
		Combinations: 6,
		Source:       "master.mdb",
		GeneratedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestFullInitScript(t *testing.T) {
	script := writeScript(t, fullInitParams(), 2)

	for _, want := range []string{
		"-- Type: FULL INITIALIZATION",
		"-- Array length: 3 (chara 1001-1003)",
		"BEGIN;",
		"-- Update all 6 inheritance combinations",
		"UPDATE inheritance SET affinity_scores = ARRAY[0,10,5]::int[], base_affinity = 10 WHERE main_chara_id = 1001 AND left_chara_id = 1002 AND right_chara_id = 1003;",
		"COMMIT;",
		"DROP INDEX IF EXISTS idx_inheritance_total_affinity_1001;",
		"CREATE INDEX CONCURRENTLY idx_inheritance_total_affinity_1003",
		"ON inheritance ((COALESCE(affinity_scores[3], 0)) DESC);",
		"DROP INDEX IF EXISTS idx_inheritance_default_affinity;",
		"CREATE INDEX CONCURRENTLY idx_inheritance_default_affinity",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}

	trimmed := strings.TrimRight(script, "\n")
	if !strings.HasSuffix(trimmed, "-- Last character: 1003") {
		t.Fatalf("script must end with the last-character trailer:\n%s", script)
	}

	// BEGIN + 2 updates + COMMIT + 3 characters * (DROP + CREATE)
	// + default index (DROP + CREATE).
	if got := len(Statements(script)); got != 12 {
		t.Fatalf("unexpected statement count: got %d, want 12", got)
	}
}

func TestIncrementalScript(t *testing.T) {
	p := fullInitParams()
	p.Decision = affinity.Decision{
		Mode:        affinity.ModeIncremental,
		PrevMax:     1002,
		NewCharaIDs: []int{1003},
	}
	script := writeScript(t, p, 1)

	for _, want := range []string{
		"-- Type: INCREMENTAL",
		"-- Previous array length: 2 (chara 1001-1002)",
		"-- New array length: 3 (chara 1001-1003)",
		"-- Adding positions for: 1003 to 1003",
		"idx_inheritance_total_affinity_1003",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
	for _, reject := range []string{
		"idx_inheritance_total_affinity_1001",
		"idx_inheritance_total_affinity_1002",
		"idx_inheritance_default_affinity",
	} {
		if strings.Contains(script, reject) {
			t.Fatalf("incremental script must not contain %q:\n%s", reject, script)
		}
	}
}

func TestIncrementalSkipsAbsentNewIDs(t *testing.T) {
	p := fullInitParams()
	p.MaxCharaID = 1005
	p.Charas = []int{1001, 1002, 1003, 1005}
	p.Decision = affinity.Decision{
		Mode:        affinity.ModeIncremental,
		PrevMax:     1003,
		NewCharaIDs: []int{1004, 1005},
	}
	script := writeScript(t, p, 1)

	if strings.Contains(script, "idx_inheritance_total_affinity_1004") {
		t.Fatalf("must not index a character without relation data:\n%s", script)
	}
	if !strings.Contains(script, "idx_inheritance_total_affinity_1005") {
		t.Fatalf("missing index for new character 1005:\n%s", script)
	}
}

func TestReindexAllScript(t *testing.T) {
	p := fullInitParams()
	p.Decision = affinity.Decision{
		Mode:        affinity.ModeIncremental,
		PrevMax:     1002,
		NewCharaIDs: []int{1003},
		ReindexAll:  true,
	}
	script := writeScript(t, p, 1)

	for _, id := range []string{"1001", "1002", "1003"} {
		if !strings.Contains(script, "idx_inheritance_total_affinity_"+id) {
			t.Fatalf("reindex-all script missing index for %s:\n%s", id, script)
		}
	}
	if strings.Contains(script, "idx_inheritance_default_affinity") {
		t.Fatalf("incremental script must not rebuild the default index:\n%s", script)
	}
}

func TestBlankLineEveryHundredUpdates(t *testing.T) {
	script := writeScript(t, fullInitParams(), 150)

	lines := strings.Split(script, "\n")
	updates := 0
	for i, line := range lines {
		if strings.HasPrefix(line, "UPDATE inheritance") {
			updates++
			if updates == 100 {
				if lines[i+1] != "" {
					t.Fatalf("expected blank line after update 100, got %q", lines[i+1])
				}
			}
		}
	}
	if updates != 150 {
		t.Fatalf("unexpected update count: got %d, want 150", updates)
	}
}
