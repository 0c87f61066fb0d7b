package compile

import (
	"github.com/fabianbadoi/pine/internal/pine"
	"github.com/fabianbadoi/pine/internal/schema"
)

// autoJoin brings a table into scope by searching the schema's FK edges.
// Only direct edges are considered: the new table must share an edge with
// a table already in scope. Multi-hop joins are the user's responsibility
// via additional pipeline stages.
func (qc *queryContext) autoJoin(table string, pos int) error {
	if qc.snap == nil {
		return &SchemaMissingError{Pos: pos, Op: "auto-join"}
	}
	if err := qc.checkTable(table, pos); err != nil {
		return err
	}
	if qc.inScope(table) {
		return &DuplicateJoinError{Pos: pos, Table: table}
	}

	var candidates []candidateEdge
	for _, in := range qc.tables {
		for _, fk := range qc.snap.EdgesBetween(table, in) {
			candidates = append(candidates, candidateEdge{edge: fk, inScope: in})
		}
	}

	switch len(candidates) {
	case 0:
		return &NoJoinPathError{
			Pos:       pos,
			Table:     table,
			InScope:   qc.tables,
			Neighbors: qc.snap.Neighbors(qc.focus),
		}
	case 1:
		// fall through
	default:
		edges := make([]schema.ForeignKey, 0, len(candidates))
		for _, c := range candidates {
			edges = append(edges, c.edge)
		}
		return &AmbiguousJoinError{Pos: pos, Table: table, Candidates: edges}
	}

	chosen := candidates[0]
	qc.joins = append(qc.joins, joinLink{
		Old:   chosen.inScope,
		New:   table,
		Conds: edgeConditions(chosen.edge, chosen.inScope, table),
	})
	qc.addTable(table)
	return nil
}

// candidateEdge pairs an FK edge with the in-scope table it was found
// through.
type candidateEdge struct {
	edge    schema.ForeignKey
	inScope string
}

// edgeConditions materializes the ON conditions for an FK edge, equating
// each column pair. The in-scope side goes on the left. Composite keys
// produce one condition per column pair.
func edgeConditions(fk schema.ForeignKey, inScope, newTable string) []*condExpr {
	oldCols, newCols := fk.ToColumns, fk.FromColumns
	if fk.FromTable == inScope {
		oldCols, newCols = fk.FromColumns, fk.ToColumns
	}

	conds := make([]*condExpr, 0, len(oldCols))
	for i := range oldCols {
		conds = append(conds, &condExpr{
			Lhs: &colExpr{Table: inScope, Column: oldCols[i]},
			Op:  pine.OpEq,
			Rhs: &colExpr{Table: newTable, Column: newCols[i]},
		})
	}
	return conds
}

// resolveJoinCond resolves one condition of an explicit join. Bare columns
// prefer the current focus side for the left operand and the newly joined
// side for the right; user-qualified references are honored verbatim.
func (qc *queryContext) resolveJoinCond(c *pine.Condition, old, newTable string) (*condExpr, error) {
	lhs, err := qc.resolveJoinOperand(c.Lhs, old, newTable)
	if err != nil {
		return nil, err
	}
	resolved := &condExpr{Lhs: lhs, Op: c.Op}
	if c.Rhs != nil {
		rhs, err := qc.resolveJoinOperand(c.Rhs, newTable, old)
		if err != nil {
			return nil, err
		}
		resolved.Rhs = rhs
	}
	return resolved, nil
}

// resolveJoinOperand resolves a join-condition operand, trying the
// preferred table before the other side.
func (qc *queryContext) resolveJoinOperand(op pine.Operand, preferred, other string) (expr, error) {
	col, ok := op.(*pine.ColumnRef)
	if !ok || col.Table != "" {
		return qc.resolveOperand(op, preferred)
	}
	if qc.snap == nil {
		return &colExpr{Column: col.Column}, nil
	}
	if qc.snap.ColumnExists(preferred, col.Column) {
		return &colExpr{Table: preferred, Column: col.Column}, nil
	}
	if qc.snap.ColumnExists(other, col.Column) {
		return &colExpr{Table: other, Column: col.Column}, nil
	}
	return nil, &UnknownColumnError{
		Pos:        col.Pos,
		Column:     col.Column,
		Table:      preferred,
		Candidates: qc.columnNames(preferred),
	}
}
