// Package assembly orchestrates single-report statement assembly (tree
// build -> period selection -> fact binding) into a FilingSlice, and fans
// out across N independent reports. Per-statement failures degrade to
// warnings; a run fails only when nothing survives at all.
package assembly

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"statement_weaver/pkg/core/dimensions"
	"statement_weaver/pkg/core/facts"
	"statement_weaver/pkg/core/periods"
	"statement_weaver/pkg/core/presentation"
	"statement_weaver/pkg/models"
)

// ErrEmptyRun reports that no statement survived assembly. The Result still
// carries the full warning list explaining why.
var ErrEmptyRun = errors.New("no statements survived assembly")

// Config is the values-only configuration surface of the core. Parsing and
// defaulting of flags/env belongs to the caller.
type Config struct {
	IncludeNonPrimary  bool
	ExpandDimensions   bool
	HonorVisibleFilter bool
	// PeriodCounts overrides the per-kind display period count; zero or a
	// missing key keeps the selector default.
	PeriodCounts map[models.StatementKind]int
}

// Result is one report's assembly outcome. Warnings are always populated,
// whether or not the slice is usable, so partial success is distinguishable
// from total failure.
type Result struct {
	RunID    string              `json:"run_id"`
	Slice    *models.FilingSlice `json:"slice,omitempty"`
	Warnings []models.Warning    `json:"warnings,omitempty"`
}

// Assembler runs single reports. It is stateless across runs; all per-run
// caches (the fact index) live inside the run.
type Assembler struct {
	Log zerolog.Logger
	Cfg Config
}

// New returns an assembler with the given configuration.
func New(cfg Config) *Assembler {
	return &Assembler{Log: zerolog.Nop(), Cfg: cfg}
}

// Assemble turns one typed report into a FilingSlice. The returned error is
// ErrEmptyRun only when zero statements survive; every lesser failure is a
// warning on the Result.
func (a *Assembler) Assemble(report *models.Report) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := a.Log.With().Str("run_id", res.RunID).Str("source", report.Source.ID).Logger()

	builder := presentation.NewBuilder(report.Concepts)
	builder.Log = log
	builder.IncludeNonPrimary = a.Cfg.IncludeNonPrimary
	stmts, warns := builder.Build(report)
	res.Warnings = append(res.Warnings, warns...)

	return a.assembleStatements(report, stmts, res, log)
}

func (a *Assembler) assembleStatements(report *models.Report, stmts []*models.PresentationStatement, res *Result, log zerolog.Logger) (*Result, error) {
	matcherCfg := facts.Config{ExpandDimensions: a.Cfg.ExpandDimensions}
	if a.Cfg.HonorVisibleFilter {
		if report.Visible.Empty() {
			// Inherited sharp edge: an empty scan degrades to no filtering.
			// Make the degradation observable instead of silent.
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:    models.WarnVisibleSetEmpty,
				Slice:   report.Source.ID,
				Message: "visible-rendering filter requested but the signature set is empty; filtering disabled",
			})
		} else {
			matcherCfg.Visible = report.Visible
		}
	}

	matcher := facts.NewMatcher(report.Facts, report.Concepts, matcherCfg)
	matcher.Log = log
	selector := periods.NewSelector()
	selector.Log = log

	slice := &models.FilingSlice{
		Source:    report.Source,
		Hierarchy: dimensions.BuildHierarchy(report.Roles),
	}

	for _, stmt := range stmts {
		conceptSet := statementConcepts(stmt)
		selected, err := selector.Select(stmt.Kind, report.Facts, conceptSet, report.AnchorDates, a.Cfg.PeriodCounts[stmt.Kind])
		if err != nil {
			log.Warn().Str("statement", stmt.Name).Err(err).Msg("dropping statement")
			res.Warnings = append(res.Warnings, models.Warning{
				Kind:      models.WarnStatementDropped,
				Statement: stmt.Name,
				Slice:     report.Source.ID,
				Message:   fmt.Sprintf("statement dropped: %v", err),
			})
			continue
		}

		rows := matcher.BindStatement(stmt, selected)
		slice.Tables = append(slice.Tables, &models.StatementTable{
			Name:    stmt.Name,
			Kind:    stmt.Kind,
			Group:   stmt.Group,
			Periods: selected,
			Rows:    rows,
		})
	}

	if len(slice.Tables) == 0 {
		return res, ErrEmptyRun
	}
	res.Slice = slice
	return res, nil
}

// AssembleAll processes independent reports on worker goroutines. Inputs are
// read-only per report and nothing is shared between workers, so the fan-out
// needs no locking beyond the results slice itself. The returned error is
// ErrEmptyRun only when every report came up empty.
func (a *Assembler) AssembleAll(reports []*models.Report) ([]*Result, error) {
	results := make([]*Result, len(reports))
	var wg sync.WaitGroup
	for i, report := range reports {
		wg.Add(1)
		go func(i int, report *models.Report) {
			defer wg.Done()
			res, err := a.Assemble(report)
			if err != nil {
				a.Log.Warn().Str("source", report.Source.ID).Err(err).Msg("report produced no statements")
			}
			results[i] = res
		}(i, report)
	}
	wg.Wait()

	for _, res := range results {
		if res != nil && res.Slice != nil {
			return results, nil
		}
	}
	return results, ErrEmptyRun
}

// Slices extracts the usable slices from a result set, preserving order.
func Slices(results []*Result) []*models.FilingSlice {
	var out []*models.FilingSlice
	for _, res := range results {
		if res != nil && res.Slice != nil {
			out = append(out, res.Slice)
		}
	}
	return out
}

// CollectWarnings flattens every result's warning list, preserving order.
func CollectWarnings(results []*Result) []models.Warning {
	var out []models.Warning
	for _, res := range results {
		if res != nil {
			out = append(out, res.Warnings...)
		}
	}
	return out
}

func statementConcepts(stmt *models.PresentationStatement) map[string]bool {
	set := make(map[string]bool)
	stmt.Walk(func(node *models.PresentationNode, _ []string) {
		set[models.NormalizeRef(node.Concept)] = true
	})
	return set
}
