// Package schema provides the immutable, in-memory view of a relational
// schema consumed by the pine compiler: tables, ordered columns, primary
// keys, and foreign-key edges with a symmetric neighbor index.
//
// A Snapshot is built once (by the introspector or the cache repository)
// and is read-only afterwards, so concurrent translations may share it
// freely.
package schema

// Column is a table column. Type carries the database column type as
// reported by introspection; it is informational only.
type Column struct {
	Name string
	Type string
}

// ForeignKey is one FK edge. Composite keys are a single edge whose column
// tuples have more than one entry; FromColumns[i] references ToColumns[i].
type ForeignKey struct {
	FromTable   string
	FromColumns []string
	ToTable     string
	ToColumns   []string
}

// Joins reports whether the edge connects tables a and b, in either
// direction.
func (fk ForeignKey) Joins(a, b string) bool {
	return (fk.FromTable == a && fk.ToTable == b) || (fk.FromTable == b && fk.ToTable == a)
}

// Touches reports whether the edge has t as one of its endpoints.
func (fk ForeignKey) Touches(t string) bool {
	return fk.FromTable == t || fk.ToTable == t
}

// Table is one table of the snapshot. Columns keep their declared order;
// PrimaryKey lists the key columns in key order.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey // outbound edges only
}

// Column returns the named column, if present.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Snapshot is the read-only schema view. FK edges are indexed under both
// endpoints so neighbor queries are symmetric.
type Snapshot struct {
	Database string

	tables    map[string]*Table
	names     []string
	neighbors map[string][]ForeignKey
}

// NewSnapshot builds a snapshot from tables, indexing every outbound FK
// edge under both of its endpoints.
func NewSnapshot(database string, tables []*Table) *Snapshot {
	s := &Snapshot{
		Database:  database,
		tables:    make(map[string]*Table, len(tables)),
		neighbors: make(map[string][]ForeignKey),
	}
	for _, t := range tables {
		s.tables[t.Name] = t
		s.names = append(s.names, t.Name)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			s.neighbors[fk.FromTable] = append(s.neighbors[fk.FromTable], fk)
			if fk.ToTable != fk.FromTable {
				s.neighbors[fk.ToTable] = append(s.neighbors[fk.ToTable], fk)
			}
		}
	}
	return s
}

// Tables returns the table names in declaration order.
func (s *Snapshot) Tables() []string {
	return s.names
}

// Table returns the named table, if present.
func (s *Snapshot) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// PrimaryKey returns the primary-key columns of the named table, or nil.
func (s *Snapshot) PrimaryKey(table string) []string {
	if t, ok := s.tables[table]; ok {
		return t.PrimaryKey
	}
	return nil
}

// Neighbors returns every FK edge touching the named table, incoming and
// outgoing.
func (s *Snapshot) Neighbors(table string) []ForeignKey {
	return s.neighbors[table]
}

// EdgesBetween returns the FK edges whose endpoints are exactly {a, b}.
func (s *Snapshot) EdgesBetween(a, b string) []ForeignKey {
	var edges []ForeignKey
	for _, fk := range s.neighbors[a] {
		if fk.Joins(a, b) {
			edges = append(edges, fk)
		}
	}
	return edges
}

// ColumnExists reports whether the named table has the named column.
func (s *Snapshot) ColumnExists(table, column string) bool {
	t, ok := s.tables[table]
	if !ok {
		return false
	}
	_, ok = t.Column(column)
	return ok
}
