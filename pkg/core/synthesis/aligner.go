// Package synthesis merges independently assembled statement tables from
// several report vintages of the same filer into one canonical multi-period
// table per statement. The anchor slice (most recent, amendments dominant)
// supplies the row skeleton; candidate slices contribute columns through a
// layered match policy, and anything unmatched is appended rather than
// dropped. Zero silent data loss: every gap is an attributable warning.
package synthesis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"statement_weaver/pkg/models"
)

// ErrNoSlices reports an empty stitch input.
var ErrNoSlices = errors.New("no filing slices to stitch")

// Aligner merges filing slices.
type Aligner struct {
	Log      zerolog.Logger
	Synonyms SynonymTable
}

// NewAligner returns an aligner with the built-in synonym table.
func NewAligner() *Aligner {
	return &Aligner{Log: zerolog.Nop(), Synonyms: DefaultSynonyms()}
}

// Ensemble is the merged output: one table per statement key plus the full
// warning list.
type Ensemble struct {
	Tables   []*models.StatementTable `json:"tables"`
	Warnings []models.Warning         `json:"warnings,omitempty"`
}

// Stitch merges the given slices. The anchor is chosen by the supersede
// policy (amended filings dominate, then latest filing date); remaining
// candidates are visited newest-first so near vintages claim rows before
// distant ones.
func (a *Aligner) Stitch(slices []*models.FilingSlice) (*Ensemble, error) {
	usable := make([]*models.FilingSlice, 0, len(slices))
	for _, s := range slices {
		if s != nil && len(s.Tables) > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoSlices
	}

	anchor := usable[0]
	for _, s := range usable[1:] {
		if shouldSupersede(anchor.Source, s.Source) {
			anchor = s
		}
	}
	candidates := make([]*models.FilingSlice, 0, len(usable)-1)
	for _, s := range usable {
		if s != anchor {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Source.FilingDate.After(candidates[j].Source.FilingDate)
	})

	hierarchy := models.MergeHierarchies(usable)
	ens := &Ensemble{}

	// Statement order: the anchor's table order, then candidate-only
	// statements in slice order.
	type group struct {
		key    string
		anchor *models.StatementTable
		cands  []sliceTable
	}
	var order []string
	groups := make(map[string]*group)

	register := func(s *models.FilingSlice, isAnchor bool) {
		keysSeen := make(map[string]int)
		for _, table := range s.Tables {
			key := a.Synonyms.Key(table.Name)
			// A slice carrying two tables on the same key (a statement and
			// its parenthetical counterpart) keeps them distinct by ordinal.
			keysSeen[key]++
			if n := keysSeen[key]; n > 1 {
				key = fmt.Sprintf("%s#%d", key, n)
			}
			g, ok := groups[key]
			if !ok {
				g = &group{key: key}
				groups[key] = g
				order = append(order, key)
			}
			if isAnchor {
				g.anchor = table
			} else {
				g.cands = append(g.cands, sliceTable{slice: s, table: table})
			}
		}
	}
	register(anchor, true)
	for _, c := range candidates {
		register(c, false)
	}

	for _, key := range order {
		g := groups[key]
		merged := a.mergeGroup(g.anchor, g.cands, anchor, candidates, hierarchy, ens)
		if merged != nil {
			ens.Tables = append(ens.Tables, merged)
		}
	}
	return ens, nil
}

type sliceTable struct {
	slice *models.FilingSlice
	table *models.StatementTable
}

// mergeGroup merges one statement across slices. When the anchor slice lacks
// the statement, the newest candidate carrying it is promoted to sub-anchor.
func (a *Aligner) mergeGroup(anchorTable *models.StatementTable, cands []sliceTable, anchorSlice *models.FilingSlice, candSlices []*models.FilingSlice, h *models.DimensionHierarchy, ens *Ensemble) *models.StatementTable {
	var promotedID string
	if anchorTable == nil {
		if len(cands) == 0 {
			return nil
		}
		anchorTable = cands[0].table
		promotedID = cands[0].slice.Source.ID
		cands = cands[1:]
	}

	merged := &models.StatementTable{
		Name:  anchorTable.Name,
		Kind:  anchorTable.Kind,
		Group: anchorTable.Group,
	}
	skeleton := make([]*models.StatementRow, 0, len(anchorTable.Rows))
	for _, row := range anchorTable.Rows {
		skeleton = append(skeleton, copyRow(row))
	}

	periodSet := make(map[string]bool)
	var mergedPeriods []models.Period
	addPeriods := func(ps []models.Period) {
		for _, p := range ps {
			if !periodSet[p.Key()] {
				periodSet[p.Key()] = true
				mergedPeriods = append(mergedPeriods, p)
			}
		}
	}
	addPeriods(anchorTable.Periods)

	// Statement-level gaps: slices that never assembled this statement.
	present := make(map[string]bool)
	if promotedID != "" {
		present[promotedID] = true
	}
	for _, st := range cands {
		present[st.slice.Source.ID] = true
	}
	for _, s := range candSlices {
		if !present[s.Source.ID] {
			ens.Warnings = append(ens.Warnings, models.Warning{
				Kind:      models.WarnAlignmentGap,
				Statement: merged.Name,
				Slice:     s.Source.ID,
				Message:   fmt.Sprintf("slice %s has no table for statement %q", s.Source.ID, merged.Name),
			})
		}
	}

	for _, st := range cands {
		addPeriods(st.table.Periods)
		skeleton = a.mergeCandidate(merged.Name, skeleton, st, h, ens)
	}

	sortPeriodsMostRecentFirst(mergedPeriods)
	merged.Periods = mergedPeriods
	for _, row := range skeleton {
		for _, p := range mergedPeriods {
			if _, ok := row.Cells[p.Key()]; !ok {
				row.Cells[p.Key()] = models.MissingCell(p)
			}
		}
	}
	merged.Rows = skeleton
	return merged
}

// mergeCandidate folds one candidate table into the skeleton and returns the
// (possibly grown) skeleton.
func (a *Aligner) mergeCandidate(stmtName string, skeleton []*models.StatementRow, st sliceTable, h *models.DimensionHierarchy, ens *Ensemble) []*models.StatementRow {
	cands := st.table.Rows
	claimed := make([]bool, len(cands))
	matchedSkeleton := make(map[*models.StatementRow]bool)
	matchedRowOfCand := make([]*models.StatementRow, len(cands))

	for _, row := range skeleton {
		idx, tier := findMatch(row, cands, claimed, h)
		if idx < 0 {
			continue
		}
		claimed[idx] = true
		matchedSkeleton[row] = true
		matchedRowOfCand[idx] = row
		a.Log.Debug().Str("statement", stmtName).Str("row", row.Label).
			Str("slice", st.slice.Source.ID).Stringer("tier", tier).Msg("row matched")
		a.copyCells(stmtName, row, cands[idx], st.slice.Source.ID, ens)
	}

	// Anchor rows this slice contributed nothing to. Abstract headers are
	// exempt: they carry no cells, so an unmatched header loses no data.
	for _, row := range skeleton {
		if !matchedSkeleton[row] && !row.Abstract {
			for _, p := range st.table.Periods {
				if _, ok := row.Cells[p.Key()]; !ok {
					row.Cells[p.Key()] = models.MissingCell(p)
				}
			}
			ens.Warnings = append(ens.Warnings, models.Warning{
				Kind:      models.WarnAlignmentGap,
				Statement: stmtName,
				Row:       row.Label,
				Slice:     st.slice.Source.ID,
				Message:   fmt.Sprintf("no row in slice %s matched %q", st.slice.Source.ID, row.Label),
			})
		}
	}

	// Unmatched candidate rows are appended beneath the last skeleton row a
	// preceding candidate row matched into, preserving section locality.
	lastPos := len(skeleton) - 1
	for i, cand := range cands {
		if claimed[i] {
			lastPos = indexOfRow(skeleton, matchedRowOfCand[i])
			continue
		}
		extra := copyRow(cand)
		pos := lastPos + 1
		skeleton = append(skeleton, nil)
		copy(skeleton[pos+1:], skeleton[pos:])
		skeleton[pos] = extra
		lastPos = pos
		a.Log.Info().Str("statement", stmtName).Str("row", extra.Label).
			Str("slice", st.slice.Source.ID).Msg("unmatched row appended")
		ens.Warnings = append(ens.Warnings, models.Warning{
			Kind:      models.WarnExtraRow,
			Statement: stmtName,
			Row:       extra.Label,
			Slice:     st.slice.Source.ID,
			Message:   fmt.Sprintf("row %q from slice %s had no anchor match; appended", extra.Label, st.slice.Source.ID),
		})
	}
	return skeleton
}

// copyCells accumulates a matched candidate row's cells into the skeleton
// row. Existing anchor values win (recency bias), but a populated cell
// disagreeing with the candidate is surfaced as value drift for audit.
func (a *Aligner) copyCells(stmtName string, dst, src *models.StatementRow, sliceID string, ens *Ensemble) {
	for pk, cell := range src.Cells {
		existing, ok := dst.Cells[pk]
		switch {
		case !ok || existing.Missing:
			dst.Cells[pk] = cell
		case cell.Missing:
			// keep existing
		case !sameCellValue(existing, cell):
			ens.Warnings = append(ens.Warnings, models.Warning{
				Kind:      models.WarnValueDrift,
				Statement: stmtName,
				Row:       dst.Label,
				Slice:     sliceID,
				Message: fmt.Sprintf("period %s: anchor value %q kept over slice %s value %q",
					cell.Period.DisplayLabel(), existing.Display, sliceID, cell.Display),
			})
		}
	}
}

func sameCellValue(a, b models.Cell) bool {
	if a.Numeric && b.Numeric {
		return a.Raw.Equal(b.Raw)
	}
	return a.Display == b.Display
}

// shouldSupersede reports whether incoming should replace existing as the
// anchor: amended filings dominate, then the newer filing date wins.
func shouldSupersede(existing, incoming models.SourceMeta) bool {
	if incoming.Amended && !existing.Amended {
		return true
	}
	if !incoming.Amended && existing.Amended {
		return false
	}
	return incoming.FilingDate.After(existing.FilingDate)
}

func copyRow(row *models.StatementRow) *models.StatementRow {
	out := *row
	out.Cells = make(map[string]models.Cell, len(row.Cells))
	for k, v := range row.Cells {
		out.Cells[k] = v
	}
	out.ParentLabels = append([]string{}, row.ParentLabels...)
	return &out
}

// indexOfRow finds a skeleton row's current position; insertions shift rows,
// so the position is resolved by identity at use time.
func indexOfRow(skeleton []*models.StatementRow, row *models.StatementRow) int {
	for i, r := range skeleton {
		if r == row {
			return i
		}
	}
	return len(skeleton) - 1
}

// sortPeriodsMostRecentFirst orders merged periods across slice boundaries:
// newest end date first, spans ahead of instants on the same end date.
func sortPeriodsMostRecentFirst(periods []models.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if !periods[i].End.Equal(periods[j].End) {
			return periods[i].End.After(periods[j].End)
		}
		if periods[i].Instant != periods[j].Instant {
			return !periods[i].Instant
		}
		return periods[i].Start.Before(periods[j].Start)
	})
}
