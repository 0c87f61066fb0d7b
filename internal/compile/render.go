package compile

import (
	"strings"
)

// defaultLimit is rendered when no limit stage was given.
const defaultLimit = "10"

// render emits the final SELECT statement. Clauses appear in a fixed
// order, one per line, empty ones omitted — except LIMIT, which always
// renders. No trailing semicolon: the caller appends one.
func (qc *queryContext) render() string {
	w := &sqlWriter{
		qualify: len(qc.tables) > 1,
		star:    qc.last,
	}

	w.write("SELECT ")
	if len(qc.projection) == 0 {
		w.writeExpr(&starExpr{})
	} else {
		w.commaSep(len(qc.projection), func(i int) {
			w.writeExpr(qc.projection[i])
		})
	}

	w.write("\nFROM ")
	w.write(qc.last)
	qc.renderJoins(w)

	if len(qc.filters) > 0 {
		w.write("\nWHERE ")
		for i, f := range qc.filters {
			if i > 0 {
				w.write(" AND ")
			}
			w.writeExpr(f)
		}
	}

	if len(qc.groups) > 0 {
		w.write("\nGROUP BY ")
		w.commaSep(len(qc.groups), func(i int) {
			w.writeExpr(qc.groups[i])
		})
	}

	if len(qc.orders) > 0 {
		w.write("\nORDER BY ")
		w.commaSep(len(qc.orders), func(i int) {
			w.writeExpr(qc.orders[i].Expr)
			if qc.orders[i].Desc {
				w.write(" DESC")
			}
		})
	}

	w.write("\nLIMIT ")
	if qc.limitFirst == "" {
		w.write(defaultLimit)
	} else {
		w.write(qc.limitFirst)
		if qc.limitSecond != "" {
			w.write(", ")
			w.write(qc.limitSecond)
		}
	}

	return w.buf.String()
}

// renderJoins emits one LEFT JOIN per table besides the FROM table. The
// FROM table is the last one introduced, so the recorded links are walked
// newest to oldest: each link's not-yet-emitted endpoint joins on the
// link's conditions, which only reference tables already in scope.
func (qc *queryContext) renderJoins(w *sqlWriter) {
	if len(qc.joins) == 0 {
		return
	}

	emitted := map[string]bool{qc.last: true}
	for i := len(qc.joins) - 1; i >= 0; i-- {
		link := qc.joins[i]
		table := link.Old
		if emitted[table] {
			table = link.New
		}
		if emitted[table] {
			continue
		}
		emitted[table] = true

		w.write("\nLEFT JOIN ")
		w.write(table)
		w.write(" ON ")
		for j, cond := range link.Conds {
			if j > 0 {
				w.write(" AND ")
			}
			w.writeExpr(cond)
		}
	}
}

// sqlWriter is a flat SQL string builder. qualify is set for multi-table
// queries: bare columns get their owning table prefixed and the star is
// rendered as star.".*" of the last-introduced table.
type sqlWriter struct {
	buf     strings.Builder
	qualify bool
	star    string
}

func (w *sqlWriter) write(s string) {
	w.buf.WriteString(s)
}

// commaSep writes items separated by ", ".
func (w *sqlWriter) commaSep(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			w.write(", ")
		}
		fn(i)
	}
}

// writeExpr dispatches expression rendering by type.
func (w *sqlWriter) writeExpr(e expr) {
	switch x := e.(type) {
	case *colExpr:
		w.writeColumn(x)
	case *litExpr:
		w.write(x.Raw)
	case *funcExpr:
		w.write(x.Name)
		w.write("(")
		w.commaSep(len(x.Args), func(i int) {
			w.writeExpr(x.Args[i])
		})
		w.write(")")
	case *condExpr:
		w.writeExpr(x.Lhs)
		w.write(" ")
		w.write(x.Op.SQL())
		if x.Rhs != nil {
			w.write(" ")
			w.writeExpr(x.Rhs)
		}
	case *starExpr:
		if w.qualify {
			w.write(w.star)
			w.write(".*")
		} else {
			w.write("*")
		}
	}
}

// writeColumn applies the qualification policy: user-qualified references
// render verbatim, bare columns get their owner prefixed only in
// multi-table queries.
func (w *sqlWriter) writeColumn(c *colExpr) {
	if c.Explicit {
		if c.DB != "" {
			w.write(c.DB)
			w.write(".")
		}
		w.write(c.Table)
		w.write(".")
		w.write(c.Column)
		return
	}
	if w.qualify && c.Table != "" {
		w.write(c.Table)
		w.write(".")
	}
	w.write(c.Column)
}

// renderColumnListing emits the focus table's columns as an SQL block
// comment terminated by "--;" so the output survives pipelines that expect
// SQL.
func (qc *queryContext) renderColumnListing() string {
	t, ok := qc.snap.Table(qc.metaFocus)
	if !ok {
		return "/*\ncolumns of " + qc.metaFocus + ": unknown table\n*/\n--;"
	}

	var b strings.Builder
	b.WriteString("/*\ncolumns of ")
	b.WriteString(qc.metaFocus)
	b.WriteString(":\n")
	for _, c := range t.Columns {
		b.WriteString("  ")
		b.WriteString(c.Name)
		if c.Type != "" {
			b.WriteString(" ")
			b.WriteString(c.Type)
		}
		b.WriteString("\n")
	}
	b.WriteString("*/\n--;")
	return b.String()
}

// renderNeighborListing emits the focus table's FK edges as an SQL block
// comment terminated by "--;".
func (qc *queryContext) renderNeighborListing() string {
	var b strings.Builder
	b.WriteString("/*\nneighbors of ")
	b.WriteString(qc.metaFocus)
	b.WriteString(":\n")
	for _, fk := range qc.snap.Neighbors(qc.metaFocus) {
		b.WriteString("  ")
		b.WriteString(DescribeEdge(fk))
		b.WriteString("\n")
	}
	b.WriteString("*/\n--;")
	return b.String()
}
