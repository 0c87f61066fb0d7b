package pine

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Stage is a marker interface for pipeline stage nodes. Every stage keeps
// the (start, end) byte offsets of its source fragment for diagnostics.
type Stage interface {
	Node
	stageNode()
	Span() (start, end int)
}

// Operand is a marker interface for operand nodes: columns, literals,
// function calls, and conditions used as expressions.
type Operand interface {
	Node
	operandNode()
	Start() int
}

// Pipeline is the parsed form of a pine: the ordered stage list plus the
// original source for error underlining.
type Pipeline struct {
	Stages []Stage
	Source string
}

// === Stages ===

// span is embedded in every stage to carry source offsets.
type span struct {
	Pos int // offset of the first token of the stage
	End int // offset just past the last token of the stage
}

func (s span) Span() (int, int) { return s.Pos, s.End }

// BaseStage anchors the pipeline: a table name with optional wicked
// shorthand and inline filters, with or without a "from:" prefix.
type BaseStage struct {
	span
	Table  string
	Wicked *Literal
	Conds  []*Condition
}

func (*BaseStage) node()      {}
func (*BaseStage) stageNode() {}

// JoinStage is an explicit "join:"/"j:" stage. Without conditions the join
// is resolved automatically over the schema's FK edges.
type JoinStage struct {
	span
	Table string
	Conds []*Condition
}

func (*JoinStage) node()      {}
func (*JoinStage) stageNode() {}

// CompoundJoinStage names a table with no keyword: an auto-join whose
// inline filters (and wicked shorthand) apply to the named table.
type CompoundJoinStage struct {
	span
	Table  string
	Wicked *Literal
	Conds  []*Condition
}

func (*CompoundJoinStage) node()      {}
func (*CompoundJoinStage) stageNode() {}

// SelectStage appends projection operands.
type SelectStage struct {
	span
	Ops []Operand
}

func (*SelectStage) node()      {}
func (*SelectStage) stageNode() {}

// UnselectStage removes columns from the projection.
type UnselectStage struct {
	span
	Cols []*ColumnRef
}

func (*UnselectStage) node()      {}
func (*UnselectStage) stageNode() {}

// WhereStage adds conjunctive filters.
type WhereStage struct {
	span
	Conds []*Condition
}

func (*WhereStage) node()      {}
func (*WhereStage) stageNode() {}

// GroupStage adds grouping expressions.
type GroupStage struct {
	span
	Ops []Operand
}

func (*GroupStage) node()      {}
func (*GroupStage) stageNode() {}

// OrderItem is one sort key with its direction.
type OrderItem struct {
	Op   Operand
	Desc bool
}

// OrderStage adds sort keys.
type OrderStage struct {
	span
	Items []OrderItem
}

func (*OrderStage) node()      {}
func (*OrderStage) stageNode() {}

// LimitStage sets the row limit: "l: n" or "l: n m" (offset, count).
type LimitStage struct {
	span
	First     string // row count, or offset when Second is present
	Second    string
	HasSecond bool
}

func (*LimitStage) node()      {}
func (*LimitStage) stageNode() {}

// ShowColumnsStage is the "columns?"/"c?" meta stage.
type ShowColumnsStage struct {
	span
}

func (*ShowColumnsStage) node()      {}
func (*ShowColumnsStage) stageNode() {}

// ShowNeighborsStage is the trailing "|" meta stage: list the FK neighbors
// of the focus table.
type ShowNeighborsStage struct {
	span
}

func (*ShowNeighborsStage) node()      {}
func (*ShowNeighborsStage) stageNode() {}

// === Operands ===

// ColumnRef is a column reference in one of three shapes: bare ("id"),
// qualified ("t.c"), or fully qualified ("db.t.c").
type ColumnRef struct {
	Pos    int
	DB     string // set only for db.t.c
	Table  string // set for t.c and db.t.c
	Column string
}

func (*ColumnRef) node()        {}
func (*ColumnRef) operandNode() {}

// Start returns the source offset of the reference.
func (c *ColumnRef) Start() int { return c.Pos }

// LiteralKind distinguishes numeric from string literals.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
)

// Literal is a numeric or string literal. Value is the normalized form
// (numeric underscores stripped); Raw preserves the source spelling,
// including the quote style for strings.
type Literal struct {
	Pos   int
	Kind  LiteralKind
	Value string
	Raw   string
}

func (*Literal) node()        {}
func (*Literal) operandNode() {}

// Start returns the source offset of the literal.
func (l *Literal) Start() int { return l.Pos }

// FuncCall is a function invocation: name(operand*).
type FuncCall struct {
	Pos  int
	Name string
	Args []Operand
}

func (*FuncCall) node()        {}
func (*FuncCall) operandNode() {}

// Start returns the source offset of the call.
func (f *FuncCall) Start() int { return f.Pos }

// CondOp is a condition operator. The unary variants have no right operand.
type CondOp int

const (
	OpEq CondOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpIsNull
	OpIsNotNull
)

// SQL returns the SQL spelling of the operator.
func (op CondOp) SQL() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	}
	return "?"
}

// Unary reports whether the operator takes no right operand.
func (op CondOp) Unary() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// Condition is a binary comparison or a postfix null predicate. Conditions
// are operands too, so projections can carry expressions like "id IS NULL".
type Condition struct {
	Lhs Operand
	Op  CondOp
	Rhs Operand // nil for unary operators
}

func (*Condition) node()        {}
func (*Condition) operandNode() {}

// Start returns the source offset of the left operand.
func (c *Condition) Start() int { return c.Lhs.Start() }
