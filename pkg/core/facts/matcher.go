// Package facts binds the fact pool to presentation tree nodes, producing
// statement rows: one base row per node plus, when enabled, one row per
// distinct dimensional breakdown. The per-concept index is scoped to one
// Matcher (one report run); nothing here is shared across reports, which is
// what makes multi-report assembly embarrassingly parallel.
package facts

import (
	"strings"

	"github.com/rs/zerolog"

	"statement_weaver/pkg/core/labels"
	"statement_weaver/pkg/models"
)

// Config is the three-way matching configuration.
type Config struct {
	ExpandDimensions bool
	Visible          *models.VisibleSet // nil or empty disables the rendered-document filter
}

// Matcher binds facts for a single report run.
type Matcher struct {
	Log      zerolog.Logger
	cfg      Config
	pool     []models.Fact
	resolver *labels.Resolver
	cache    map[string]*conceptFacts // normalized concept -> index, lazily built
}

// NewMatcher builds a matcher over one report's fact pool.
func NewMatcher(pool []models.Fact, concepts map[string]models.Concept, cfg Config) *Matcher {
	return &Matcher{
		Log:      zerolog.Nop(),
		cfg:      cfg,
		pool:     pool,
		resolver: labels.NewResolver(concepts),
		cache:    make(map[string]*conceptFacts),
	}
}

func (m *Matcher) factsFor(concept string) *conceptFacts {
	key := models.NormalizeRef(concept)
	if cf, ok := m.cache[key]; ok {
		return cf
	}
	cf := buildConceptFacts(m.pool, key)
	m.cache[key] = cf
	return cf
}

// BindStatement produces the ordered row list for one statement: depth-first
// presentation order, every selected period covered in every row (missing
// cells explicit), duplicates collapsed.
func (m *Matcher) BindStatement(stmt *models.PresentationStatement, periods []models.Period) []*models.StatementRow {
	var rows []*models.StatementRow
	stmt.Walk(func(node *models.PresentationNode, parents []string) {
		rows = append(rows, m.bindNode(node, parents, stmt.Name, periods)...)
	})
	return dedupeRows(rows, periods)
}

// bindNode emits the row(s) for a single tree node.
func (m *Matcher) bindNode(node *models.PresentationNode, parents []string, stmtName string, periods []models.Period) []*models.StatementRow {
	cf := m.factsFor(node.Concept)
	baseFacts := cf.base()

	// Abstract nodes are header rows and always kept regardless of data.
	if node.Abstract {
		return []*models.StatementRow{m.makeRow(node, parents, node.Label, node.Depth, nil, nil, periods)}
	}

	var rows []*models.StatementRow

	emitBase := len(baseFacts) > 0
	foldSingleGroup := len(baseFacts) == 0 && len(cf.sigs) == 1

	if m.cfg.ExpandDimensions {
		switch {
		case foldSingleGroup:
			// A lone breakdown group with no genuine base total is the
			// total; showing it as a one-member breakdown is noise.
			sig := cf.sigs[0]
			rows = append(rows, m.makeRow(node, parents, node.Label, node.Depth, sig, cf.group(sig), periods))
		default:
			if emitBase || len(cf.sigs) == 0 {
				rows = append(rows, m.makeRow(node, parents, node.Label, node.Depth, nil, baseFacts, periods))
			}
			breakdownParents := append(append([]string{}, parents...), node.Label)
			for _, sig := range cf.sigs {
				rows = append(rows, m.makeRow(node, breakdownParents, m.memberCaption(sig), node.Depth+1, sig, cf.group(sig), periods))
			}
		}
	} else {
		switch {
		case emitBase:
			rows = append(rows, m.makeRow(node, parents, node.Label, node.Depth, nil, baseFacts, periods))
		case foldSingleGroup:
			sig := cf.sigs[0]
			rows = append(rows, m.makeRow(node, parents, node.Label, node.Depth, sig, cf.group(sig), periods))
		default:
			if len(cf.sigs) > 0 {
				// Collapsed view of a multi-group concept with no reported
				// total: totals are never recomputed, so the row stays empty.
				m.Log.Debug().Str("concept", node.Concept).Str("statement", stmtName).
					Msg("collapsed multi-group concept has no base total; emitting empty row")
			}
			rows = append(rows, m.makeRow(node, parents, node.Label, node.Depth, nil, nil, periods))
		}
	}

	return m.applyVisibleFilter(rows, stmtName)
}

// makeRow builds one row and populates a cell for every selected period.
// Absent facts produce an explicit missing cell, never an absent map entry.
func (m *Matcher) makeRow(node *models.PresentationNode, parents []string, label string, depth int, sig models.DimensionSignature, group []models.Fact, periods []models.Period) *models.StatementRow {
	row := &models.StatementRow{
		Node:         node,
		Concept:      node.Concept,
		Label:        label,
		Depth:        depth,
		Abstract:     node.Abstract,
		Dims:         sig,
		ParentLabels: append([]string{}, parents...),
		Cells:        make(map[string]models.Cell, len(periods)),
	}
	for _, p := range periods {
		if fact, ok := pickFact(group, p); ok {
			row.Cells[p.Key()] = models.CellFromFact(fact, p)
		} else {
			row.Cells[p.Key()] = models.MissingCell(p)
		}
	}
	return row
}

// pickFact finds the fact matching a display period within one signature
// group. Instants match on end date; durations match on end date with an
// exact start-date match preferred when several spans share the end.
func pickFact(group []models.Fact, p models.Period) (models.Fact, bool) {
	var fallback models.Fact
	found := false
	for _, f := range group {
		if !p.Matches(f.Period) {
			continue
		}
		if p.Instant || f.Period.Start.Equal(p.Start) || p.Start.IsZero() {
			return f, true
		}
		if !found {
			fallback, found = f, true
		}
	}
	return fallback, found
}

// applyVisibleFilter drops non-abstract rows whose (concept, signature) pair
// was not rendered in the source document. Abstract header rows are exempt.
// An empty allowlist filters nothing.
func (m *Matcher) applyVisibleFilter(rows []*models.StatementRow, stmtName string) []*models.StatementRow {
	if m.cfg.Visible.Empty() {
		return rows
	}
	kept := rows[:0]
	for _, row := range rows {
		if row.Abstract || m.cfg.Visible.Allows(row.Concept, row.Dims) {
			kept = append(kept, row)
			continue
		}
		m.Log.Debug().Str("concept", row.Concept).Str("label", row.Label).Str("statement", stmtName).
			Msg("row dropped by visible-rendering filter")
	}
	return kept
}

// dedupeRows collapses accidental duplicates: rows whose normalized label,
// depth and cell-value tuple are identical (synonym captions resolving to
// the same data). First occurrence wins, order preserved.
func dedupeRows(rows []*models.StatementRow, periods []models.Period) []*models.StatementRow {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, row := range rows {
		fp := row.CellValueFingerprint(periods)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, row)
	}
	return out
}

// memberCaption captions a breakdown row from its members.
func (m *Matcher) memberCaption(sig models.DimensionSignature) string {
	parts := make([]string, 0, len(sig))
	for _, am := range sig {
		parts = append(parts, m.resolver.Caption(am.Member, ""))
	}
	return strings.Join(parts, " | ")
}
