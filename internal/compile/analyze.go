package compile

import (
	"github.com/fabianbadoi/pine/internal/pine"
)

// analyze folds the stage list into a final query context: a tagged
// dispatch on the stage variant, one method per stage kind.
func analyze(p *pine.Pipeline, qc *queryContext) error {
	for _, stage := range p.Stages {
		var err error
		switch s := stage.(type) {
		case *pine.BaseStage:
			err = qc.applyBase(s)
		case *pine.JoinStage:
			err = qc.applyJoin(s)
		case *pine.CompoundJoinStage:
			err = qc.applyCompoundJoin(s)
		case *pine.SelectStage:
			err = qc.applySelect(s)
		case *pine.UnselectStage:
			err = qc.applyUnselect(s)
		case *pine.WhereStage:
			err = qc.applyWhere(s)
		case *pine.GroupStage:
			err = qc.applyGroup(s)
		case *pine.OrderStage:
			err = qc.applyOrder(s)
		case *pine.LimitStage:
			qc.limitFirst = s.First
			qc.limitSecond = ""
			if s.HasSecond {
				qc.limitSecond = s.Second
			}
		case *pine.ShowColumnsStage:
			err = qc.applyMeta(s, metaColumns)
		case *pine.ShowNeighborsStage:
			err = qc.applyMeta(s, metaNeighbors)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyBase anchors the pipeline: the base table becomes the root and the
// initial focus, and its inline filters resolve against it.
func (qc *queryContext) applyBase(s *pine.BaseStage) error {
	pos, _ := s.Span()
	if err := qc.checkTable(s.Table, pos); err != nil {
		return err
	}
	qc.addTable(s.Table)
	return qc.applyInlineFilters(s.Table, s.Wicked, s.Conds)
}

// applyCompoundJoin auto-joins the named table over the schema's FK edges
// and applies its inline filters against that table.
func (qc *queryContext) applyCompoundJoin(s *pine.CompoundJoinStage) error {
	pos, _ := s.Span()
	if err := qc.autoJoin(s.Table, pos); err != nil {
		return err
	}
	return qc.applyInlineFilters(s.Table, s.Wicked, s.Conds)
}

// applyInlineFilters adds the wicked shorthand and inline conditions of a
// base or compound stage, resolved against the stage's own table.
func (qc *queryContext) applyInlineFilters(table string, wicked *pine.Literal, conds []*pine.Condition) error {
	if wicked != nil {
		cond, err := qc.expandWicked(table, wicked)
		if err != nil {
			return err
		}
		qc.filters = append(qc.filters, cond)
	}
	for _, c := range conds {
		resolved, err := qc.resolveCond(c, table)
		if err != nil {
			return err
		}
		qc.filters = append(qc.filters, resolved)
	}
	return nil
}

// expandWicked turns a bare literal after a table name into
// table.primary_key = literal.
func (qc *queryContext) expandWicked(table string, lit *pine.Literal) (*condExpr, error) {
	if qc.snap == nil {
		return nil, &SchemaMissingError{Pos: lit.Pos, Op: "the primary-key shorthand"}
	}
	pk := qc.snap.PrimaryKey(table)
	if len(pk) != 1 {
		return nil, &WickedError{Pos: lit.Pos, Table: table, KeyCols: pk}
	}
	return &condExpr{
		Lhs: &colExpr{Table: table, Column: pk[0]},
		Op:  pine.OpEq,
		Rhs: resolveLiteral(lit),
	}, nil
}

// applyJoin handles the explicit "j:" stage. With conditions it is a
// user-directed join; without, it behaves like a compound auto-join.
func (qc *queryContext) applyJoin(s *pine.JoinStage) error {
	pos, _ := s.Span()
	if len(s.Conds) == 0 {
		return qc.autoJoin(s.Table, pos)
	}

	if err := qc.checkTable(s.Table, pos); err != nil {
		return err
	}
	if qc.inScope(s.Table) {
		return &DuplicateJoinError{Pos: pos, Table: s.Table}
	}

	old := qc.focus
	conds := make([]*condExpr, 0, len(s.Conds))
	for _, c := range s.Conds {
		resolved, err := qc.resolveJoinCond(c, old, s.Table)
		if err != nil {
			return err
		}
		conds = append(conds, resolved)
	}

	qc.joins = append(qc.joins, joinLink{Old: old, New: s.Table, Conds: conds})
	qc.addTable(s.Table)
	return nil
}

// applySelect appends projection operands. The first select clears the
// implicit star; after a group stage it clears only the trailing star and
// keeps the group expressions already prepended.
func (qc *queryContext) applySelect(s *pine.SelectStage) error {
	resolved := make([]expr, 0, len(s.Ops))
	for _, op := range s.Ops {
		e, err := qc.resolveOperand(op, qc.focus)
		if err != nil {
			return err
		}
		resolved = append(resolved, e)
	}

	if !qc.hasExplicitSelect {
		if qc.groupInjected && len(qc.projection) > 0 {
			// Drop the trailing star the group stage injected.
			qc.projection = qc.projection[:len(qc.projection)-1]
		} else {
			qc.projection = nil
		}
		qc.hasExplicitSelect = true
	}
	qc.projection = append(qc.projection, resolved...)
	return nil
}

// applyUnselect removes columns from the projection, expanding the
// implicit star into the last-introduced table's concrete columns first.
func (qc *queryContext) applyUnselect(s *pine.UnselectStage) error {
	pos, _ := s.Span()

	if !qc.hasExplicitSelect {
		if qc.snap == nil {
			return &SchemaMissingError{Pos: pos, Op: "unselect on an implicit projection"}
		}
		t, ok := qc.snap.Table(qc.last)
		if !ok {
			return &UnknownTableError{Pos: pos, Table: qc.last}
		}
		if qc.groupInjected && len(qc.projection) > 0 {
			qc.projection = qc.projection[:len(qc.projection)-1]
		} else {
			qc.projection = nil
		}
		for _, c := range t.Columns {
			qc.projection = append(qc.projection, &colExpr{Table: qc.last, Column: c.Name})
		}
		qc.hasExplicitSelect = true
	}

	for _, col := range s.Cols {
		if !qc.removeProjected(col) {
			return &UnselectError{Pos: col.Pos, Column: col.Column}
		}
	}
	return nil
}

// removeProjected removes every projection entry matching the unselected
// column. A qualified unselect only matches its own table.
func (qc *queryContext) removeProjected(col *pine.ColumnRef) bool {
	kept := qc.projection[:0]
	removed := false
	for _, e := range qc.projection {
		c, ok := e.(*colExpr)
		if ok && c.Column == col.Column && (col.Table == "" || col.Table == c.Table) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	qc.projection = kept
	return removed
}

// applyWhere adds conjunctive filters resolved against the focus table.
func (qc *queryContext) applyWhere(s *pine.WhereStage) error {
	for _, c := range s.Conds {
		resolved, err := qc.resolveCond(c, qc.focus)
		if err != nil {
			return err
		}
		qc.filters = append(qc.filters, resolved)
	}
	return nil
}

// applyGroup appends grouping expressions. While no explicit select
// exists, the group expressions are also injected at the front of the
// projection, followed by the implicit star of the last-introduced table.
func (qc *queryContext) applyGroup(s *pine.GroupStage) error {
	resolved := make([]expr, 0, len(s.Ops))
	for _, op := range s.Ops {
		e, err := qc.resolveOperand(op, qc.focus)
		if err != nil {
			return err
		}
		resolved = append(resolved, e)
	}
	qc.groups = append(qc.groups, resolved...)

	if !qc.hasExplicitSelect {
		if qc.groupInjected && len(qc.projection) > 0 {
			star := qc.projection[len(qc.projection)-1]
			qc.projection = append(qc.projection[:len(qc.projection)-1], resolved...)
			qc.projection = append(qc.projection, star)
		} else {
			qc.projection = append(resolved, &starExpr{})
			qc.groupInjected = true
		}
	}
	return nil
}

// applyOrder appends sort keys resolved against the focus table.
func (qc *queryContext) applyOrder(s *pine.OrderStage) error {
	for _, item := range s.Items {
		e, err := qc.resolveOperand(item.Op, qc.focus)
		if err != nil {
			return err
		}
		qc.orders = append(qc.orders, orderKey{Expr: e, Desc: item.Desc})
	}
	return nil
}

// applyMeta records a schema-listing request for the current focus.
func (qc *queryContext) applyMeta(s pine.Stage, kind metaKind) error {
	pos, _ := s.Span()
	if len(qc.tables) == 0 {
		return &MetaOnEmptyError{Pos: pos}
	}
	if qc.snap == nil {
		return &SchemaMissingError{Pos: pos, Op: "schema listing"}
	}
	qc.meta = kind
	qc.metaFocus = qc.focus
	return nil
}

// resolveOperand resolves one operand against a table.
func (qc *queryContext) resolveOperand(op pine.Operand, against string) (expr, error) {
	switch o := op.(type) {
	case *pine.Literal:
		return resolveLiteral(o), nil
	case *pine.ColumnRef:
		return qc.resolveColumn(o, against)
	case *pine.FuncCall:
		args := make([]expr, 0, len(o.Args))
		for _, a := range o.Args {
			e, err := qc.resolveOperand(a, against)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return &funcExpr{Name: o.Name, Args: args}, nil
	case *pine.Condition:
		return qc.resolveCond(o, against)
	}
	return nil, nil
}

// resolveCond resolves both sides of a condition against a table.
func (qc *queryContext) resolveCond(c *pine.Condition, against string) (*condExpr, error) {
	lhs, err := qc.resolveOperand(c.Lhs, against)
	if err != nil {
		return nil, err
	}
	resolved := &condExpr{Lhs: lhs, Op: c.Op}
	if c.Rhs != nil {
		rhs, err := qc.resolveOperand(c.Rhs, against)
		if err != nil {
			return nil, err
		}
		resolved.Rhs = rhs
	}
	return resolved, nil
}

// resolveColumn resolves a column reference. User-qualified references are
// honored verbatim; bare names resolve against the given table first, then
// uniquely against the other in-scope tables. Without a schema the name
// passes through unresolved.
func (qc *queryContext) resolveColumn(c *pine.ColumnRef, against string) (*colExpr, error) {
	if c.Table != "" {
		return &colExpr{DB: c.DB, Table: c.Table, Column: c.Column, Explicit: true}, nil
	}
	if qc.snap == nil {
		return &colExpr{Column: c.Column}, nil
	}

	if qc.snap.ColumnExists(against, c.Column) {
		return &colExpr{Table: against, Column: c.Column}, nil
	}

	var owners []string
	for _, t := range qc.tables {
		if t != against && qc.snap.ColumnExists(t, c.Column) {
			owners = append(owners, t)
		}
	}
	switch len(owners) {
	case 1:
		return &colExpr{Table: owners[0], Column: c.Column}, nil
	case 0:
		return nil, &UnknownColumnError{
			Pos:        c.Pos,
			Column:     c.Column,
			Table:      against,
			Candidates: qc.columnNames(against),
		}
	default:
		return nil, &AmbiguousColumnError{Pos: c.Pos, Column: c.Column, Tables: owners}
	}
}

// columnNames lists a table's column names for diagnostics.
func (qc *queryContext) columnNames(table string) []string {
	t, ok := qc.snap.Table(table)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}
