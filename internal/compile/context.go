package compile

import (
	"github.com/fabianbadoi/pine/internal/pine"
	"github.com/fabianbadoi/pine/internal/schema"
)

// expr is the resolved expression tree consumed by the renderer. Columns
// carry the table they resolved to, but the decision to print the
// qualifier is made at render time from the final table count.
type expr interface {
	expr()
}

// colExpr is a resolved column reference. Explicit marks references the
// user qualified themselves; those render verbatim.
type colExpr struct {
	DB       string
	Table    string
	Column   string
	Explicit bool
}

func (*colExpr) expr() {}

// litExpr is a literal, stored in its render-ready form: numeric
// underscores stripped, string quoting preserved.
type litExpr struct {
	Raw string
}

func (*litExpr) expr() {}

// resolveLiteral picks the render form of a literal: the normalized value
// for numbers, the raw source text (quotes included) for strings.
func resolveLiteral(l *pine.Literal) *litExpr {
	if l.Kind == pine.LiteralNumber {
		return &litExpr{Raw: l.Value}
	}
	return &litExpr{Raw: l.Raw}
}

// funcExpr is a function call.
type funcExpr struct {
	Name string
	Args []expr
}

func (*funcExpr) expr() {}

// condExpr is a comparison or null predicate. Rhs is nil for the unary
// operators.
type condExpr struct {
	Lhs expr
	Op  pine.CondOp
	Rhs expr
}

func (*condExpr) expr() {}

// starExpr is the implicit "*". The qualifying table is chosen at render
// time: the last-introduced table of the final context.
type starExpr struct{}

func (*starExpr) expr() {}

// joinLink records one join-like stage: the table it brought into scope,
// the in-scope table it attached to, and the resolved ON conditions.
type joinLink struct {
	Old   string
	New   string
	Conds []*condExpr
}

// orderKey is one resolved sort key.
type orderKey struct {
	Expr expr
	Desc bool
}

// metaKind selects a schema-listing output instead of SQL.
type metaKind int

const (
	metaNone metaKind = iota
	metaColumns
	metaNeighbors
)

// queryContext is the analyzer's accumulator: created empty at the base
// stage, mutated by each subsequent stage, consumed once by the renderer.
type queryContext struct {
	snap *schema.Snapshot // nil when no analyze has been run (pass-through)

	tables []string // introduction order; tables[0] is the base
	joins  []joinLink

	projection        []expr
	hasExplicitSelect bool
	groupInjected     bool // projection is group expressions + trailing star

	filters []*condExpr
	groups  []expr
	orders  []orderKey

	limitFirst  string
	limitSecond string

	focus string // table that bare references resolve against
	last  string // last-introduced table; qualifies the implicit star

	meta      metaKind
	metaFocus string
}

// inScope reports whether the named table is part of the query.
func (qc *queryContext) inScope(table string) bool {
	for _, t := range qc.tables {
		if t == table {
			return true
		}
	}
	return false
}

// addTable brings a table into scope and advances the focus to it.
func (qc *queryContext) addTable(table string) {
	qc.tables = append(qc.tables, table)
	qc.focus = table
	qc.last = table
}

// checkTable verifies a referenced table exists when a schema is loaded.
func (qc *queryContext) checkTable(table string, pos int) error {
	if qc.snap == nil {
		return nil
	}
	if _, ok := qc.snap.Table(table); !ok {
		return &UnknownTableError{Pos: pos, Table: table}
	}
	return nil
}
