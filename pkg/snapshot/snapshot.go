// Package snapshot persists the relation data a run was computed from,
// so the next run can detect whether point values or relation sets
// changed underneath it. The snapshot is not authoritative data; losing
// it only costs a full re-index.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/umadb/affinity/pkg/affinity"
)

// Snapshot mirrors the JSON definitions file consumed by the web app:
// relation point values, per-character relation sets and the maximum
// character id covered by the generated arrays. Keys are strings because
// JSON objects cannot have integer keys.
type Snapshot struct {
	RelPoints  map[string]int   `json:"rel_points"`
	CharaRel   map[string][]int `json:"chara_rel"`
	MaxCharaID int              `json:"max_char_id"`
}

// New builds a snapshot from the current relation data. Relation sets
// are sorted so repeated runs produce byte-identical files.
func New(points map[int]int, rel map[int]affinity.RelationSet, maxID int) *Snapshot {
	s := &Snapshot{
		RelPoints:  make(map[string]int, len(points)),
		CharaRel:   make(map[string][]int, len(rel)),
		MaxCharaID: maxID,
	}
	for rt, p := range points {
		s.RelPoints[strconv.Itoa(rt)] = p
	}
	for id, set := range rel {
		types := make([]int, 0, len(set))
		for rt := range set {
			types = append(types, rt)
		}
		sort.Ints(types)
		s.CharaRel[strconv.Itoa(id)] = types
	}
	return s
}

// Points converts the snapshot's relation point values back to integer
// keys. Malformed keys are an error; the caller treats that as a missing
// baseline.
func (s *Snapshot) Points() (map[int]int, error) {
	points := make(map[int]int, len(s.RelPoints))
	for k, v := range s.RelPoints {
		rt, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad relation type key %q: %w", k, err)
		}
		points[rt] = v
	}
	return points, nil
}

// Relations converts the snapshot's per-character relation lists back
// to integer-keyed sets.
func (s *Snapshot) Relations() (map[int]affinity.RelationSet, error) {
	rel := make(map[int]affinity.RelationSet, len(s.CharaRel))
	for k, types := range s.CharaRel {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad character id key %q: %w", k, err)
		}
		set := make(affinity.RelationSet, len(types))
		for _, rt := range types {
			set[rt] = struct{}{}
		}
		rel[id] = set
	}
	return rel, nil
}

// Write serializes the snapshot to path, creating parent directories as
// needed.
func (s *Snapshot) Write(path string) error {
	if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to ensure snapshot directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads a previously written snapshot. A missing or unreadable
// file is not an error condition for the pipeline, so callers should
// treat any failure here as "no baseline" and fall back to a full
// initialization.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %q: %w", path, err)
	}
	return &s, nil
}
