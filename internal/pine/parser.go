package pine

import (
	"fmt"
	"strings"
)

// SyntaxError is a parse failure tagged with the byte offset of the
// offending token.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Parser parses pine input into a Pipeline.
type Parser struct {
	lexer   *Lexer
	input   string
	token   Token // current token
	peek    Token // lookahead token
	prevEnd int   // offset just past the previously consumed token
	errors  []error
}

// NewParser creates a new parser for the given pine input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
		input: input,
	}
	// Initialize two-token lookahead.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a pine and returns its pipeline. There is no recovery: a
// pine either parses or the first error is returned.
func Parse(input string) (*Pipeline, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty pine"}
	}

	p := NewParser(input)
	pipeline := p.parsePipeline()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return pipeline, nil
}

func (p *Parser) nextToken() {
	p.prevEnd = p.token.Pos + len(p.token.Literal)
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(pos int, format string, args ...interface{}) {
	p.errors = append(p.errors, &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) failed() bool { return len(p.errors) > 0 }

// stageEnd reports whether the current token terminates a stage.
func (p *Parser) stageEnd() bool {
	return p.token.Type == TOKEN_PIPE || p.token.Type == TOKEN_EOF
}

// expectIdent consumes and returns an identifier token literal.
func (p *Parser) expectIdent(what string) string {
	if p.token.Type != TOKEN_IDENT {
		p.errorf(p.token.Pos, "expected %s, got %q", what, p.token.Literal)
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parsePipeline parses: base ("|" stage)* trailing-"|"? EOF.
func (p *Parser) parsePipeline() *Pipeline {
	pipeline := &Pipeline{Source: p.input}

	base := p.parseBase()
	if p.failed() {
		return nil
	}
	pipeline.Stages = append(pipeline.Stages, base)

	for p.token.Type == TOKEN_PIPE && !p.failed() {
		pipePos := p.token.Pos
		p.nextToken()
		if p.token.Type == TOKEN_EOF {
			// A trailing solitary "|" means: show neighbors of the focus.
			pipeline.Stages = append(pipeline.Stages, &ShowNeighborsStage{
				span: span{Pos: pipePos, End: pipePos + 1},
			})
			break
		}
		stage := p.parseStage()
		if p.failed() {
			return nil
		}
		pipeline.Stages = append(pipeline.Stages, stage)
	}
	if p.failed() {
		return nil
	}

	if p.token.Type != TOKEN_EOF {
		p.errorf(p.token.Pos, "unexpected %q after pipeline", p.token.Literal)
		return nil
	}
	return pipeline
}

// parseBase parses the pipeline anchor: an optional "from:" prefix followed
// by a compound table stage. A meta stage in base position parses but is
// rejected later by the analyzer.
func (p *Parser) parseBase() Stage {
	start := p.token.Pos

	if p.token.Type == TOKEN_FROM {
		p.nextToken()
	}

	if p.isShowColumns() {
		return p.parseShowColumns()
	}

	table := p.expectIdent("a table name")
	if p.failed() {
		return nil
	}

	wicked, conds := p.parseCompoundTail()
	return &BaseStage{
		span:   span{Pos: start, End: p.prevEnd},
		Table:  table,
		Wicked: wicked,
		Conds:  conds,
	}
}

// parseStage parses one non-base stage.
func (p *Parser) parseStage() Stage {
	switch p.token.Type {
	case TOKEN_SELECT:
		return p.parseSelect()
	case TOKEN_UNSELECT:
		return p.parseUnselect()
	case TOKEN_WHERE:
		return p.parseWhere()
	case TOKEN_JOIN:
		return p.parseJoin()
	case TOKEN_GROUP:
		return p.parseGroup()
	case TOKEN_ORDER:
		return p.parseOrder()
	case TOKEN_LIMIT:
		return p.parseLimit()
	case TOKEN_FROM:
		p.errorf(p.token.Pos, "%q is only valid as the first stage", p.token.Literal)
		return nil
	case TOKEN_IDENT:
		if p.isShowColumns() {
			return p.parseShowColumns()
		}
		return p.parseCompoundJoin()
	default:
		p.errorf(p.token.Pos, "expected a stage, got %q", p.token.Literal)
		return nil
	}
}

// isShowColumns reports whether the current tokens spell the "columns?" or
// "c?" meta stage. The check needs the lookahead because "c?" is otherwise
// indistinguishable from a null predicate on a column named c.
func (p *Parser) isShowColumns() bool {
	if p.token.Type != TOKEN_IDENT {
		return false
	}
	if p.token.Literal != "c" && p.token.Literal != "columns" {
		return false
	}
	return p.peek.Type == TOKEN_QMARK
}

func (p *Parser) parseShowColumns() Stage {
	start := p.token.Pos
	p.nextToken() // ident
	p.nextToken() // ?
	// Tolerate the "columns?:" spelling from older revisions.
	if p.token.Type == TOKEN_COLON {
		p.nextToken()
	}
	if !p.stageEnd() {
		p.errorf(p.token.Pos, "unexpected %q after %q", p.token.Literal, "columns?")
		return nil
	}
	return &ShowColumnsStage{span: span{Pos: start, End: p.prevEnd}}
}

func (p *Parser) parseCompoundJoin() Stage {
	start := p.token.Pos
	table := p.expectIdent("a table name")
	if p.failed() {
		return nil
	}
	wicked, conds := p.parseCompoundTail()
	return &CompoundJoinStage{
		span:   span{Pos: start, End: p.prevEnd},
		Table:  table,
		Wicked: wicked,
		Conds:  conds,
	}
}

// parseCompoundTail parses the optional wicked literal and inline filters
// that may follow a table name in base or compound position.
func (p *Parser) parseCompoundTail() (*Literal, []*Condition) {
	var wicked *Literal
	if (p.token.Type == TOKEN_NUMBER || p.token.Type == TOKEN_STRING) && !p.startsCondOp(p.peek) {
		wicked = p.parseLiteral()
	}

	var conds []*Condition
	for !p.stageEnd() && !p.failed() {
		cond := p.parseCond()
		if cond == nil {
			break
		}
		conds = append(conds, cond)
	}
	return wicked, conds
}

// startsCondOp reports whether tok would turn the preceding operand into a
// condition.
func (p *Parser) startsCondOp(tok Token) bool {
	switch tok.Type {
	case TOKEN_EQ, TOKEN_NE, TOKEN_GT, TOKEN_GE, TOKEN_LT, TOKEN_LE,
		TOKEN_QMARK, TOKEN_NOTNULL:
		return true
	}
	return false
}

func (p *Parser) parseSelect() Stage {
	start := p.token.Pos
	p.nextToken()

	var ops []Operand
	for !p.stageEnd() && !p.failed() {
		op := p.parseOperandOrCond()
		if op == nil {
			break
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 && !p.failed() {
		p.errorf(start, "select needs at least one operand")
	}
	if p.failed() {
		return nil
	}
	return &SelectStage{span: span{Pos: start, End: p.prevEnd}, Ops: ops}
}

func (p *Parser) parseUnselect() Stage {
	start := p.token.Pos
	p.nextToken()

	var cols []*ColumnRef
	for !p.stageEnd() && !p.failed() {
		if p.token.Type != TOKEN_IDENT {
			p.errorf(p.token.Pos, "unselect takes column names, got %q", p.token.Literal)
			return nil
		}
		cols = append(cols, p.parseColumnRef())
	}
	if len(cols) == 0 && !p.failed() {
		p.errorf(start, "unselect needs at least one column")
	}
	if p.failed() {
		return nil
	}
	return &UnselectStage{span: span{Pos: start, End: p.prevEnd}, Cols: cols}
}

func (p *Parser) parseWhere() Stage {
	start := p.token.Pos
	p.nextToken()

	var conds []*Condition
	for !p.stageEnd() && !p.failed() {
		cond := p.parseCond()
		if cond == nil {
			break
		}
		conds = append(conds, cond)
	}
	if len(conds) == 0 && !p.failed() {
		p.errorf(start, "where needs at least one condition")
	}
	if p.failed() {
		return nil
	}
	return &WhereStage{span: span{Pos: start, End: p.prevEnd}, Conds: conds}
}

func (p *Parser) parseJoin() Stage {
	start := p.token.Pos
	p.nextToken()

	table := p.expectIdent("a table name to join")
	if p.failed() {
		return nil
	}

	var conds []*Condition
	for !p.stageEnd() && !p.failed() {
		cond := p.parseCond()
		if cond == nil {
			break
		}
		conds = append(conds, cond)
	}
	if p.failed() {
		return nil
	}
	return &JoinStage{span: span{Pos: start, End: p.prevEnd}, Table: table, Conds: conds}
}

func (p *Parser) parseGroup() Stage {
	start := p.token.Pos
	p.nextToken()

	var ops []Operand
	for !p.stageEnd() && !p.failed() {
		op := p.parseOperandOrCond()
		if op == nil {
			break
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 && !p.failed() {
		p.errorf(start, "group needs at least one expression")
	}
	if p.failed() {
		return nil
	}
	return &GroupStage{span: span{Pos: start, End: p.prevEnd}, Ops: ops}
}

func (p *Parser) parseOrder() Stage {
	start := p.token.Pos
	p.nextToken()

	var items []OrderItem
	for !p.stageEnd() && !p.failed() {
		op := p.parseOperandOrCond()
		if op == nil {
			break
		}
		item := OrderItem{Op: op}

		switch {
		case p.token.Type == TOKEN_PLUS:
			p.nextToken()
		case p.token.Type == TOKEN_MINUS:
			item.Desc = true
			p.nextToken()
		case p.token.Type == TOKEN_IDENT && strings.EqualFold(p.token.Literal, "asc"):
			p.nextToken()
		case p.token.Type == TOKEN_IDENT && strings.EqualFold(p.token.Literal, "desc"):
			item.Desc = true
			p.nextToken()
		}
		items = append(items, item)

		if p.token.Type == TOKEN_COMMA {
			p.nextToken()
		}
	}
	if len(items) == 0 && !p.failed() {
		p.errorf(start, "order needs at least one sort key")
	}
	if p.failed() {
		return nil
	}
	return &OrderStage{span: span{Pos: start, End: p.prevEnd}, Items: items}
}

func (p *Parser) parseLimit() Stage {
	start := p.token.Pos
	p.nextToken()

	first := p.parseLimitNumber()
	if p.failed() {
		return nil
	}

	stage := &LimitStage{First: first}
	if p.token.Type == TOKEN_NUMBER {
		stage.Second = p.parseLimitNumber()
		stage.HasSecond = true
	}
	if p.failed() {
		return nil
	}
	if !p.stageEnd() {
		p.errorf(p.token.Pos, "unexpected %q in limit", p.token.Literal)
		return nil
	}
	stage.span = span{Pos: start, End: p.prevEnd}
	return stage
}

// parseLimitNumber consumes an integer literal, stripping underscore
// separators.
func (p *Parser) parseLimitNumber() string {
	if p.token.Type != TOKEN_NUMBER {
		p.errorf(p.token.Pos, "limit takes numbers, got %q", p.token.Literal)
		return ""
	}
	value := normalizeNumber(p.token.Literal)
	if strings.Contains(value, ".") {
		p.errorf(p.token.Pos, "limit takes whole numbers, got %q", p.token.Literal)
		return ""
	}
	p.nextToken()
	return value
}

// parseCond parses a condition: operand op operand, or a postfix null
// predicate.
func (p *Parser) parseCond() *Condition {
	lhs := p.parseOperand()
	if p.failed() {
		return nil
	}

	switch p.token.Type {
	case TOKEN_QMARK:
		p.nextToken()
		return &Condition{Lhs: lhs, Op: OpIsNull}
	case TOKEN_NOTNULL:
		p.nextToken()
		return &Condition{Lhs: lhs, Op: OpIsNotNull}
	}

	op, ok := binaryOp(p.token.Type)
	if !ok {
		p.errorf(p.token.Pos, "expected a comparison operator, got %q", p.token.Literal)
		return nil
	}
	p.nextToken()

	rhs := p.parseOperand()
	if p.failed() {
		return nil
	}
	return &Condition{Lhs: lhs, Op: op, Rhs: rhs}
}

// parseOperandOrCond parses an operand and promotes it to a condition if an
// operator follows. Used in select/group/order position where conditions
// double as expressions.
func (p *Parser) parseOperandOrCond() Operand {
	lhs := p.parseOperand()
	if p.failed() {
		return nil
	}

	switch p.token.Type {
	case TOKEN_QMARK:
		p.nextToken()
		return &Condition{Lhs: lhs, Op: OpIsNull}
	case TOKEN_NOTNULL:
		p.nextToken()
		return &Condition{Lhs: lhs, Op: OpIsNotNull}
	}

	if op, ok := binaryOp(p.token.Type); ok {
		p.nextToken()
		rhs := p.parseOperand()
		if p.failed() {
			return nil
		}
		return &Condition{Lhs: lhs, Op: op, Rhs: rhs}
	}
	return lhs
}

// parseOperand parses a function call, column reference, or literal.
func (p *Parser) parseOperand() Operand {
	switch p.token.Type {
	case TOKEN_NUMBER, TOKEN_STRING:
		return p.parseLiteral()
	case TOKEN_IDENT:
		if p.peek.Type == TOKEN_LPAREN {
			return p.parseFuncCall()
		}
		return p.parseColumnRef()
	default:
		p.errorf(p.token.Pos, "expected an operand, got %q", p.token.Literal)
		return nil
	}
}

func (p *Parser) parseLiteral() *Literal {
	tok := p.token
	p.nextToken()

	if tok.Type == TOKEN_STRING {
		return &Literal{
			Pos:   tok.Pos,
			Kind:  LiteralString,
			Value: tok.Literal[1 : len(tok.Literal)-1],
			Raw:   tok.Literal,
		}
	}
	return &Literal{
		Pos:   tok.Pos,
		Kind:  LiteralNumber,
		Value: normalizeNumber(tok.Literal),
		Raw:   tok.Literal,
	}
}

// parseColumnRef parses name, name.name, or name.name.name.
func (p *Parser) parseColumnRef() *ColumnRef {
	start := p.token.Pos
	first := p.token.Literal
	p.nextToken()

	if p.token.Type != TOKEN_DOT {
		return &ColumnRef{Pos: start, Column: first}
	}
	p.nextToken()
	second := p.expectIdent("a column name")
	if p.failed() {
		return nil
	}

	if p.token.Type != TOKEN_DOT {
		return &ColumnRef{Pos: start, Table: first, Column: second}
	}
	p.nextToken()
	third := p.expectIdent("a column name")
	if p.failed() {
		return nil
	}
	return &ColumnRef{Pos: start, DB: first, Table: second, Column: third}
}

func (p *Parser) parseFuncCall() *FuncCall {
	start := p.token.Pos
	name := p.token.Literal
	p.nextToken() // name
	p.nextToken() // (

	var args []Operand
	for p.token.Type != TOKEN_RPAREN && p.token.Type != TOKEN_EOF && !p.failed() {
		arg := p.parseOperandOrCond()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.token.Type == TOKEN_COMMA {
			p.nextToken()
		}
	}
	if p.failed() {
		return nil
	}
	if p.token.Type != TOKEN_RPAREN {
		p.errorf(p.token.Pos, "unterminated call to %s", name)
		return nil
	}
	p.nextToken() // )
	return &FuncCall{Pos: start, Name: name, Args: args}
}

// binaryOp maps a token type to its condition operator.
func binaryOp(t TokenType) (CondOp, bool) {
	switch t {
	case TOKEN_EQ:
		return OpEq, true
	case TOKEN_NE:
		return OpNe, true
	case TOKEN_GT:
		return OpGt, true
	case TOKEN_GE:
		return OpGe, true
	case TOKEN_LT:
		return OpLt, true
	case TOKEN_LE:
		return OpLe, true
	}
	return 0, false
}

// normalizeNumber strips underscore separators: 1_000_000 == 1000000.
func normalizeNumber(raw string) string {
	return strings.ReplaceAll(raw, "_", "")
}
