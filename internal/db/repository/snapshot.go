// Package repository persists schema snapshots in the SQLite cache, keyed
// by (context name, database name).
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fabianbadoi/pine/internal/schema"
)

// SnapshotRepo reads and writes schema snapshots.
type SnapshotRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(db *sql.DB, logger *slog.Logger) *SnapshotRepo {
	return &SnapshotRepo{db: db, logger: logger}
}

// Save stores a snapshot for the given context, replacing any previous
// snapshot of the same (context, database) pair in one transaction.
func (r *SnapshotRepo) Save(ctx context.Context, contextName string, snap *schema.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE context_name = ? AND database_name = ?`,
		contextName, snap.Database)
	if err != nil {
		return fmt.Errorf("delete previous snapshot: %w", err)
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, context_name, database_name) VALUES (?, ?, ?)`,
		id, contextName, snap.Database)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	edgePos := 0
	for tablePos, name := range snap.Tables() {
		t, _ := snap.Table(name)

		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_tables (snapshot_id, name, position) VALUES (?, ?, ?)`,
			id, t.Name, tablePos)
		if err != nil {
			return fmt.Errorf("insert table %s: %w", t.Name, err)
		}

		pkPos := make(map[string]int, len(t.PrimaryKey))
		for i, col := range t.PrimaryKey {
			pkPos[col] = i
		}
		for colPos, col := range t.Columns {
			var pk any
			if i, ok := pkPos[col.Name]; ok {
				pk = i
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO schema_columns (snapshot_id, table_name, name, col_type, position, pk_position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, t.Name, col.Name, col.Type, colPos, pk)
			if err != nil {
				return fmt.Errorf("insert column %s.%s: %w", t.Name, col.Name, err)
			}
		}

		for _, fk := range t.ForeignKeys {
			fromCols, err := json.Marshal(fk.FromColumns)
			if err != nil {
				return fmt.Errorf("marshal fk columns: %w", err)
			}
			toCols, err := json.Marshal(fk.ToColumns)
			if err != nil {
				return fmt.Errorf("marshal fk columns: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO schema_fk_edges (snapshot_id, from_table, from_columns, to_table, to_columns, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, fk.FromTable, string(fromCols), fk.ToTable, string(toCols), edgePos)
			if err != nil {
				return fmt.Errorf("insert fk edge: %w", err)
			}
			edgePos++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("saved schema snapshot",
		"context", contextName,
		"database", snap.Database,
		"tables", len(snap.Tables()))
	return nil
}

// Load reconstructs the snapshot of the given (context, database) pair.
// A missing snapshot is a valid state and returns (nil, nil): the compiler
// then runs in pass-through mode.
func (r *SnapshotRepo) Load(ctx context.Context, contextName, database string) (*schema.Snapshot, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots WHERE context_name = ? AND database_name = ?`,
		contextName, database).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot id: %w", err)
	}

	tables, err := r.loadTables(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadEdges(ctx, id, tables); err != nil {
		return nil, err
	}

	ordered := make([]*schema.Table, 0, len(tables.order))
	for _, name := range tables.order {
		ordered = append(ordered, tables.byName[name])
	}
	return schema.NewSnapshot(database, ordered), nil
}

// tableSet keeps loaded tables addressable by name while preserving their
// stored order.
type tableSet struct {
	byName map[string]*schema.Table
	order  []string
}

func (r *SnapshotRepo) loadTables(ctx context.Context, id string) (*tableSet, error) {
	set := &tableSet{byName: make(map[string]*schema.Table)}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM schema_tables WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		set.byName[name] = &schema.Table{Name: name}
		set.order = append(set.order, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols, err := r.db.QueryContext(ctx,
		`SELECT table_name, name, col_type, pk_position
		 FROM schema_columns WHERE snapshot_id = ?
		 ORDER BY table_name, position`, id)
	if err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	defer cols.Close() //nolint:errcheck

	// Primary keys are reassembled in key order, which pk_position
	// preserves across the composite case.
	type pkEntry struct {
		pos  int
		name string
	}
	pks := make(map[string][]pkEntry)

	for cols.Next() {
		var (
			tableName, name, colType string
			pkPos                    sql.NullInt64
		)
		if err := cols.Scan(&tableName, &name, &colType, &pkPos); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		t, ok := set.byName[tableName]
		if !ok {
			continue
		}
		t.Columns = append(t.Columns, schema.Column{Name: name, Type: colType})
		if pkPos.Valid {
			pks[tableName] = append(pks[tableName], pkEntry{pos: int(pkPos.Int64), name: name})
		}
	}
	if err := cols.Err(); err != nil {
		return nil, err
	}

	for tableName, entries := range pks {
		key := make([]string, len(entries))
		for _, e := range entries {
			if e.pos >= 0 && e.pos < len(key) {
				key[e.pos] = e.name
			}
		}
		set.byName[tableName].PrimaryKey = key
	}
	return set, nil
}

func (r *SnapshotRepo) loadEdges(ctx context.Context, id string, set *tableSet) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT from_table, from_columns, to_table, to_columns
		 FROM schema_fk_edges WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("load fk edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var fromTable, fromCols, toTable, toCols string
		if err := rows.Scan(&fromTable, &fromCols, &toTable, &toCols); err != nil {
			return fmt.Errorf("scan fk edge: %w", err)
		}
		fk := schema.ForeignKey{FromTable: fromTable, ToTable: toTable}
		if err := json.Unmarshal([]byte(fromCols), &fk.FromColumns); err != nil {
			return fmt.Errorf("unmarshal fk columns: %w", err)
		}
		if err := json.Unmarshal([]byte(toCols), &fk.ToColumns); err != nil {
			return fmt.Errorf("unmarshal fk columns: %w", err)
		}
		if t, ok := set.byName[fromTable]; ok {
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
	return rows.Err()
}
