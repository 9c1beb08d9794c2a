// Package master reads relation data from the game's master database, a
// SQLite file shipped with the client. The database is opened read-only;
// this tool never writes to it.
package master

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/umadb/affinity/pkg/affinity"
)

// Character name entries live in text_data under this category.
const charaNameCategory = 6

// DB wraps a read-only connection to the master database.
type DB struct {
	conn *sql.DB
}

// Open opens the master database at path. The file must already exist;
// a missing master database is a configuration error, not something to
// create on the fly.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("master database not found: %w", err)
	}

	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open master database: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// LoadRelations reads the relation point table and the per-character
// relation memberships.
func (d *DB) LoadRelations(ctx context.Context) (map[int]int, map[int]affinity.RelationSet, error) {
	points := make(map[int]int)
	rows, err := d.conn.QueryContext(ctx, `SELECT relation_type, relation_point FROM succession_relation`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query succession_relation: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rt, rp int
		if err := rows.Scan(&rt, &rp); err != nil {
			return nil, nil, fmt.Errorf("failed to scan succession_relation row: %w", err)
		}
		points[rt] = rp
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read succession_relation: %w", err)
	}

	rel := make(map[int]affinity.RelationSet)
	memberRows, err := d.conn.QueryContext(ctx, `SELECT chara_id, relation_type FROM succession_relation_member`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query succession_relation_member: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var charaID, rt int
		if err := memberRows.Scan(&charaID, &rt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan succession_relation_member row: %w", err)
		}
		set, ok := rel[charaID]
		if !ok {
			set = make(affinity.RelationSet)
			rel[charaID] = set
		}
		set[rt] = struct{}{}
	}
	if err := memberRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read succession_relation_member: %w", err)
	}

	return points, rel, nil
}

// LoadCharaNames reads the display name for every character, used by the
// calculator for human-readable output. Missing names are tolerated.
func (d *DB) LoadCharaNames(ctx context.Context) (map[int]string, error) {
	names := make(map[int]string)
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, text FROM text_data WHERE category = ?`, charaNameCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to query text_data: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("failed to scan text_data row: %w", err)
		}
		names[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text_data: %w", err)
	}
	return names, nil
}
