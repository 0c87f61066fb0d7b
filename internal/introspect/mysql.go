// Package introspect builds schema snapshots from a live MySQL server by
// querying information_schema.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/fabianbadoi/pine/internal/schema"
)

// Target holds the connection coordinates of one database context.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN builds the driver DSN for the target.
func (t Target) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = t.User
	cfg.Passwd = t.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", t.Host, t.Port)
	cfg.DBName = t.Database
	cfg.Timeout = 10 * time.Second
	return cfg.FormatDSN()
}

// Open opens and pings a connection pool for the target.
func Open(ctx context.Context, t Target) (*sql.DB, error) {
	db, err := sql.Open("mysql", t.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// columnRow is one information_schema.COLUMNS row.
type columnRow struct {
	Table string
	Name  string
	Type  string
}

// keyRow is one primary-key column.
type keyRow struct {
	Table  string
	Column string
}

// fkRow is one foreign-key column pair. Rows of the same constraint are
// adjacent and ordered, so composite keys group back into single edges.
type fkRow struct {
	Table      string
	Constraint string
	Column     string
	RefTable   string
	RefColumn  string
}

// Analyze introspects one database and returns its snapshot. The three
// information_schema queries run concurrently.
func Analyze(ctx context.Context, db *sql.DB, database string, logger *slog.Logger) (*schema.Snapshot, error) {
	var (
		cols []columnRow
		pks  []keyRow
		fks  []fkRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cols, err = queryColumns(gctx, db, database)
		return err
	})
	g.Go(func() error {
		var err error
		pks, err = queryPrimaryKeys(gctx, db, database)
		return err
	})
	g.Go(func() error {
		var err error
		fks, err = queryForeignKeys(gctx, db, database)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := buildSnapshot(database, cols, pks, fks)
	logger.Info("analyzed database",
		"database", database,
		"tables", len(snap.Tables()),
		"foreign_keys", len(fks))
	return snap, nil
}

func queryColumns(ctx context.Context, db *sql.DB, database string) ([]columnRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME, COLUMN_NAME, COLUMN_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION`, database)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []columnRow
	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.Table, &r.Name, &r.Type); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryPrimaryKeys(ctx context.Context, db *sql.DB, database string) ([]keyRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME, COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY TABLE_NAME, ORDINAL_POSITION`, database)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []keyRow
	for rows.Next() {
		var r keyRow
		if err := rows.Scan(&r.Table, &r.Column); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryForeignKeys(ctx context.Context, db *sql.DB, database string) ([]fkRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT TABLE_NAME, CONSTRAINT_NAME, COLUMN_NAME,
		       REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY TABLE_NAME, CONSTRAINT_NAME, ORDINAL_POSITION`, database)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []fkRow
	for rows.Next() {
		var r fkRow
		if err := rows.Scan(&r.Table, &r.Constraint, &r.Column, &r.RefTable, &r.RefColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// buildSnapshot assembles the snapshot from raw introspection rows.
// Foreign-key rows sharing a constraint collapse into one edge with
// ordered column tuples, which is how composite keys stay single edges.
func buildSnapshot(database string, cols []columnRow, pks []keyRow, fks []fkRow) *schema.Snapshot {
	byName := make(map[string]*schema.Table)
	var tables []*schema.Table

	tableFor := func(name string) *schema.Table {
		if t, ok := byName[name]; ok {
			return t
		}
		t := &schema.Table{Name: name}
		byName[name] = t
		tables = append(tables, t)
		return t
	}

	for _, c := range cols {
		t := tableFor(c.Table)
		t.Columns = append(t.Columns, schema.Column{Name: c.Name, Type: c.Type})
	}
	for _, k := range pks {
		t := tableFor(k.Table)
		t.PrimaryKey = append(t.PrimaryKey, k.Column)
	}

	var current *schema.ForeignKey
	var currentKey string
	flush := func() {
		if current != nil {
			t := tableFor(current.FromTable)
			t.ForeignKeys = append(t.ForeignKeys, *current)
			current = nil
		}
	}
	for _, fk := range fks {
		key := fk.Table + "\x00" + fk.Constraint
		if key != currentKey {
			flush()
			currentKey = key
			current = &schema.ForeignKey{FromTable: fk.Table, ToTable: fk.RefTable}
		}
		current.FromColumns = append(current.FromColumns, fk.Column)
		current.ToColumns = append(current.ToColumns, fk.RefColumn)
	}
	flush()

	return schema.NewSnapshot(database, tables)
}
