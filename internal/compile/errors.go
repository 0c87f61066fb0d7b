// Package compile turns a parsed pine pipeline into SQL.
//
// The analyzer folds the stage list into a single query context (the
// working set of tables, projections, filters, joins, groups, order, and
// limit), resolving bare column references against the focus table and
// synthesizing joins over the schema's foreign-key edges. The renderer
// then emits one SELECT statement with a deterministic clause order.
//
// The whole package is a pure function of (pipeline, snapshot): no I/O, no
// retries, and the snapshot is never mutated, so concurrent translations
// may share it.
package compile

import (
	"fmt"
	"strings"

	"github.com/fabianbadoi/pine/internal/schema"
)

// Error is implemented by every compiler error. Position returns the byte
// offset of the offending source fragment; Remedy suggests a fix.
type Error interface {
	error
	Position() int
	Remedy() string
}

// UnknownTableError reports a table reference not present in the schema.
type UnknownTableError struct {
	Pos   int
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// Position returns the source offset of the failing stage.
func (e *UnknownTableError) Position() int { return e.Pos }

// Remedy suggests a fix.
func (e *UnknownTableError) Remedy() string {
	return "check the table name, or re-run analyze to refresh the schema cache"
}

// UnknownColumnError reports a bare column that the focus table does not
// have.
type UnknownColumnError struct {
	Pos        int
	Column     string
	Table      string
	Candidates []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q on table %q", e.Column, e.Table)
}

// Position returns the source offset of the reference.
func (e *UnknownColumnError) Position() int { return e.Pos }

// Remedy lists the columns that do exist.
func (e *UnknownColumnError) Remedy() string {
	if len(e.Candidates) == 0 {
		return "qualify the column with its table"
	}
	return fmt.Sprintf("columns of %s: %s", e.Table, strings.Join(e.Candidates, ", "))
}

// AmbiguousColumnError reports a bare column that matches several in-scope
// tables.
type AmbiguousColumnError struct {
	Pos    int
	Column string
	Tables []string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("column %q is ambiguous between %s", e.Column, strings.Join(e.Tables, ", "))
}

// Position returns the source offset of the reference.
func (e *AmbiguousColumnError) Position() int { return e.Pos }

// Remedy suggests qualification.
func (e *AmbiguousColumnError) Remedy() string {
	return fmt.Sprintf("qualify it, e.g. %s.%s", e.Tables[0], e.Column)
}

// NoJoinPathError reports an auto-join that found no FK edge between the
// new table and any in-scope table.
type NoJoinPathError struct {
	Pos       int
	Table     string
	InScope   []string
	Neighbors []schema.ForeignKey
}

func (e *NoJoinPathError) Error() string {
	return fmt.Sprintf("no foreign key between %q and any of %s",
		e.Table, strings.Join(e.InScope, ", "))
}

// Position returns the source offset of the join stage.
func (e *NoJoinPathError) Position() int { return e.Pos }

// Remedy lists the focus table's neighbors.
func (e *NoJoinPathError) Remedy() string {
	if len(e.Neighbors) == 0 {
		return "use an explicit join: j: " + e.Table + " <condition>"
	}
	lines := make([]string, 0, len(e.Neighbors))
	for _, fk := range e.Neighbors {
		lines = append(lines, DescribeEdge(fk))
	}
	return "reachable neighbors: " + strings.Join(lines, "; ")
}

// AmbiguousJoinError reports an auto-join with more than one candidate FK
// edge.
type AmbiguousJoinError struct {
	Pos        int
	Table      string
	Candidates []schema.ForeignKey
}

func (e *AmbiguousJoinError) Error() string {
	return fmt.Sprintf("join to %q is ambiguous: %d foreign keys match", e.Table, len(e.Candidates))
}

// Position returns the source offset of the join stage.
func (e *AmbiguousJoinError) Position() int { return e.Pos }

// Remedy lists every candidate edge with the conditions it would produce.
func (e *AmbiguousJoinError) Remedy() string {
	lines := make([]string, 0, len(e.Candidates))
	for _, fk := range e.Candidates {
		lines = append(lines, DescribeEdge(fk))
	}
	return "pick one with an explicit join: " + strings.Join(lines, "; ")
}

// DuplicateJoinError reports a table joined twice.
type DuplicateJoinError struct {
	Pos   int
	Table string
}

func (e *DuplicateJoinError) Error() string {
	return fmt.Sprintf("table %q is already part of the query", e.Table)
}

// Position returns the source offset of the join stage.
func (e *DuplicateJoinError) Position() int { return e.Pos }

// Remedy suggests removing the stage.
func (e *DuplicateJoinError) Remedy() string {
	return "remove the repeated stage; each table can be joined once"
}

// WickedError reports the primary-key shorthand on a table without a
// single-column primary key.
type WickedError struct {
	Pos     int
	Table   string
	KeyCols []string
}

func (e *WickedError) Error() string {
	if len(e.KeyCols) == 0 {
		return fmt.Sprintf("table %q has no primary key", e.Table)
	}
	return fmt.Sprintf("table %q has a composite primary key (%s)",
		e.Table, strings.Join(e.KeyCols, ", "))
}

// Position returns the source offset of the literal.
func (e *WickedError) Position() int { return e.Pos }

// Remedy suggests an explicit filter.
func (e *WickedError) Remedy() string {
	return "spell the filter out, e.g. w: <column> = <value>"
}

// UnselectError reports an unselect of a column that is not projected.
type UnselectError struct {
	Pos    int
	Column string
}

func (e *UnselectError) Error() string {
	return fmt.Sprintf("column %q is not in the projection", e.Column)
}

// Position returns the source offset of the reference.
func (e *UnselectError) Position() int { return e.Pos }

// Remedy explains unselect.
func (e *UnselectError) Remedy() string {
	return "unselect only removes columns the query currently projects"
}

// MetaOnEmptyError reports a meta stage before any table is in scope.
type MetaOnEmptyError struct {
	Pos int
}

func (e *MetaOnEmptyError) Error() string {
	return "no table in scope"
}

// Position returns the source offset of the meta stage.
func (e *MetaOnEmptyError) Position() int { return e.Pos }

// Remedy suggests starting with a table.
func (e *MetaOnEmptyError) Remedy() string {
	return "start the pine with a table, e.g. people | columns?"
}

// SchemaMissingError reports an operation that needs a schema snapshot
// while none is loaded.
type SchemaMissingError struct {
	Pos int
	Op  string
}

func (e *SchemaMissingError) Error() string {
	return fmt.Sprintf("%s needs a schema, and none is loaded", e.Op)
}

// Position returns the source offset of the failing stage.
func (e *SchemaMissingError) Position() int { return e.Pos }

// Remedy points at analyze.
func (e *SchemaMissingError) Remedy() string {
	return "run analyze against the current context first"
}

// DescribeEdge renders an FK edge for diagnostics:
// preferences(personId) -> people(id).
func DescribeEdge(fk schema.ForeignKey) string {
	return fmt.Sprintf("%s(%s) -> %s(%s)",
		fk.FromTable, strings.Join(fk.FromColumns, ", "),
		fk.ToTable, strings.Join(fk.ToColumns, ", "))
}
