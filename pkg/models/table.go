package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatementKind describes which period semantics a statement carries.
type StatementKind string

const (
	KindInstant  StatementKind = "instant"  // point-in-time (balance-sheet-like)
	KindDuration StatementKind = "duration" // span-of-time (income/cash-flow-like)
	KindOther    StatementKind = "other"
)

// PresentationNode is one line item of a statement's presentation tree.
// Nodes are owned exclusively by their parent tree and never shared.
type PresentationNode struct {
	Concept        string              `json:"concept"`
	Label          string              `json:"label"`
	Depth          int                 `json:"depth"`
	Order          float64             `json:"order"`
	Abstract       bool                `json:"abstract"`
	PreferredLabel string              `json:"preferred_label,omitempty"`
	Children       []*PresentationNode `json:"children,omitempty"`
}

// PresentationStatement is one named, ordered, acyclic tree of line items.
type PresentationStatement struct {
	RoleURI string              `json:"role_uri"`
	Name    string              `json:"name"`
	Kind    StatementKind       `json:"kind"`
	Group   RoleGroup           `json:"group"`
	Roots   []*PresentationNode `json:"roots"`
}

// Walk visits every node depth-first in presentation order, with the chain
// of ancestor labels (root-first) for each node.
func (s *PresentationStatement) Walk(fn func(node *PresentationNode, parents []string)) {
	var visit func(n *PresentationNode, parents []string)
	visit = func(n *PresentationNode, parents []string) {
		fn(n, parents)
		chain := append(append([]string{}, parents...), n.Label)
		for _, c := range n.Children {
			visit(c, chain)
		}
	}
	for _, root := range s.Roots {
		visit(root, nil)
	}
}

// Cell is the atomic value bound to a (row, period) pair. Missing cells are
// explicit: a selected period always has an entry, never an absent map key.
type Cell struct {
	Missing  bool            `json:"missing,omitempty"`
	Display  string          `json:"display,omitempty"`
	Raw      decimal.Decimal `json:"raw,omitempty"`
	Numeric  bool            `json:"numeric,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	Decimals *int            `json:"decimals,omitempty"`
	Period   Period          `json:"period"`
}

// MissingCell is the explicit no-data marker for a period.
func MissingCell(p Period) Cell {
	return Cell{Missing: true, Period: p}
}

// CellFromFact resolves a fact into a display-ready cell.
func CellFromFact(f Fact, p Period) Cell {
	return Cell{
		Display:  f.Display(),
		Raw:      f.Value,
		Numeric:  f.Numeric,
		Unit:     f.Unit,
		Decimals: f.Decimals,
		Period:   p,
	}
}

// RowKey is the canonical identity used for cross-report row matching.
type RowKey struct {
	Concept     string // normalized, "" for synthesized rows
	Label       string // normalized
	Depth       int
	Signature   string // DimensionSignature.Key()
	ParentChain string // normalized ancestor labels joined by ">"
}

// StatementRow is one output row of a statement table. Node is nil for rows
// synthesized during ensemble merge.
type StatementRow struct {
	Node         *PresentationNode  `json:"-"`
	Concept      string             `json:"concept,omitempty"`
	Label        string             `json:"label"`
	Depth        int                `json:"depth"`
	Abstract     bool               `json:"abstract,omitempty"`
	Dims         DimensionSignature `json:"dims,omitempty"`
	ParentLabels []string           `json:"parent_labels,omitempty"`
	Cells        map[string]Cell    `json:"cells"` // keyed by Period.Key()
}

// Key computes the canonical row key.
func (r *StatementRow) Key() RowKey {
	parents := make([]string, 0, len(r.ParentLabels))
	for _, p := range r.ParentLabels {
		parents = append(parents, NormalizeLabel(p))
	}
	return RowKey{
		Concept:     NormalizeRef(r.Concept),
		Label:       NormalizeLabel(r.Label),
		Depth:       r.Depth,
		Signature:   r.Dims.Key(),
		ParentChain: strings.Join(parents, ">"),
	}
}

// CellValueFingerprint is a normalized (label, cell-value-tuple) string used
// to collapse accidental duplicate rows (synonym captions resolving to the
// same data).
func (r *StatementRow) CellValueFingerprint(periods []Period) string {
	var b strings.Builder
	b.WriteString(NormalizeLabel(r.Label))
	b.WriteString("|" + strconv.Itoa(r.Depth))
	for _, p := range periods {
		b.WriteByte('|')
		c, ok := r.Cells[p.Key()]
		if !ok || c.Missing {
			b.WriteByte('-')
			continue
		}
		if c.Numeric {
			b.WriteString(c.Raw.String())
		} else {
			b.WriteString(c.Display)
		}
	}
	return b.String()
}

// StatementTable is the abstract, renderer-facing statement model: ordered
// periods, ordered rows, no styling concerns.
type StatementTable struct {
	Name    string          `json:"name"`
	Kind    StatementKind   `json:"kind"`
	Group   RoleGroup       `json:"group"`
	Periods []Period        `json:"periods"`
	Rows    []*StatementRow `json:"rows"`
}

// FilingSlice is one report's assembled tables plus identifying metadata:
// the unit of input to the ensemble aligner.
type FilingSlice struct {
	Source    SourceMeta          `json:"source"`
	Tables    []*StatementTable   `json:"tables"`
	Hierarchy *DimensionHierarchy `json:"hierarchy,omitempty"`
}

// FilingDate is a nil-safe accessor used when ordering slices.
func (s *FilingSlice) FilingDate() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.Source.FilingDate
}
