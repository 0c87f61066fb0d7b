package compile

import (
	"github.com/fabianbadoi/pine/internal/pine"
	"github.com/fabianbadoi/pine/internal/schema"
)

// ResultKind distinguishes SQL output from the schema-listing meta
// outputs.
type ResultKind int

const (
	// ResultSQL is a compiled SELECT statement.
	ResultSQL ResultKind = iota
	// ResultColumns is the "columns?" listing of the focus table.
	ResultColumns
	// ResultNeighbors is the trailing-"|" FK neighbor listing.
	ResultNeighbors
)

// Result is the outcome of a successful translation.
type Result struct {
	Kind ResultKind
	Text string
}

// Translate compiles a parsed pipeline against a schema snapshot. snap may
// be nil when no analyze has been run: bare names then pass through
// unqualified, and schema-dependent operations (auto-joins, the
// primary-key shorthand, meta listings) fail.
func Translate(p *pine.Pipeline, snap *schema.Snapshot) (*Result, error) {
	qc := &queryContext{snap: snap}
	if err := analyze(p, qc); err != nil {
		return nil, err
	}

	switch qc.meta {
	case metaColumns:
		return &Result{Kind: ResultColumns, Text: qc.renderColumnListing()}, nil
	case metaNeighbors:
		return &Result{Kind: ResultNeighbors, Text: qc.renderNeighborListing()}, nil
	}
	return &Result{Kind: ResultSQL, Text: qc.render()}, nil
}

// TranslateString parses and compiles a pine in one step.
func TranslateString(input string, snap *schema.Snapshot) (*Result, error) {
	p, err := pine.Parse(input)
	if err != nil {
		return nil, err
	}
	return Translate(p, snap)
}
