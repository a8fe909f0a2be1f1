// This file implements JSONL export and import of the whole database.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotStats counts records per table.
type SnapshotStats map[string]int

// Export writes one JSONL file per table into dir, creating dir if needed.
// Rows are written in primary key order so repeated exports of the same
// data are byte-identical.
func (b *Backend) Export(ctx context.Context, dir string) (SnapshotStats, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	r, err := b.conn()
	if err != nil {
		return nil, err
	}
	stats := SnapshotStats{}
	for _, m := range snapshotTables {
		records, err := exportTable(ctx, r, m.table, m.columns, m.keys)
		if err != nil {
			return nil, err
		}
		if err := writeJSONL(filepath.Join(dir, m.file), records); err != nil {
			return nil, fmt.Errorf("writing %s: %w", m.file, err)
		}
		stats[m.table] = len(records)
	}
	return stats, nil
}

func exportTable(ctx context.Context, r runner, table string, columns, keys []string) ([]json.RawMessage, error) {
	rows, err := r.query(ctx,
		"SELECT "+strings.Join(columns, ", ")+" FROM "+table+" ORDER BY "+strings.Join(keys, ", "))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		obj := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := vals[i].([]byte); ok {
				obj[col] = string(raw)
				continue
			}
			obj[col] = vals[i]
		}
		rec, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return records, nil
}

// Import loads the JSONL files Export writes from dir in one transaction.
// Missing files and malformed lines are skipped, unknown fields are ignored
// and rows that clash with existing data are left as they are. The returned
// stats count inserted rows.
func (b *Backend) Import(ctx context.Context, dir string) (SnapshotStats, error) {
	stats := SnapshotStats{}
	err := b.withTx(ctx, func(r runner) error {
		for _, m := range snapshotTables {
			records, err := readJSONL(filepath.Join(dir, m.file))
			if err != nil {
				return fmt.Errorf("reading %s: %w", m.file, err)
			}
			n, err := importRecords(ctx, r, m.table, m.columns, records)
			if err != nil {
				return fmt.Errorf("loading %s into %s: %w", m.file, m.table, err)
			}
			stats[m.table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func importRecords(ctx context.Context, r runner, table string, columns []string, records []json.RawMessage) (int, error) {
	insertSQL := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" +
		placeholders(len(columns)) + ") ON CONFLICT DO NOTHING"

	inserted := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = importValue(obj[col])
		}
		res, err := r.exec(ctx, insertSQL, args...)
		if err != nil {
			return inserted, fmt.Errorf("inserting into %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

// importValue converts a decoded JSON value to a column argument. Nested
// documents are stored as their JSON text and whole numbers as integers.
func importValue(v any) any {
	switch val := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return val
	}
	return v
}
