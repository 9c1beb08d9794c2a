package master

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExportSaddles dumps the single_mode_wins_saddle table to a JSON file
// consumed by the web app alongside the affinity definitions. The rows
// are exported as-is; the saddle schema changes between client versions
// so columns are not pinned here.
func (d *DB) ExportSaddles(ctx context.Context, path string) (int, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT * FROM single_mode_wins_saddle`)
	if err != nil {
		return 0, fmt.Errorf("failed to query single_mode_wins_saddle: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("failed to read saddle columns: %w", err)
	}

	var saddles []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, fmt.Errorf("failed to scan saddle row: %w", err)
		}

		saddle := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			saddle[col] = v
		}
		saddles = append(saddles, saddle)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read single_mode_wins_saddle: %w", err)
	}

	if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to ensure saddle export directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(saddles, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal saddle data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write saddle export: %w", err)
	}

	return len(saddles), nil
}
