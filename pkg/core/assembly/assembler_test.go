package assembly

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_weaver/pkg/models"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// testReport assembles into one balance sheet and one income statement.
func testReport(id string, filed time.Time, years ...int) *models.Report {
	report := &models.Report{
		Source: models.SourceMeta{ID: id, Form: "10-K", FilingDate: filed},
		Roles: []models.Role{
			{
				URI:        "http://example.com/role/BalanceSheet",
				Definition: "0003 - Statement - Consolidated Balance Sheets",
				Roots:      []string{"us-gaap:StatementOfFinancialPositionAbstract"},
				Rels: []models.Relationship{
					{Parent: "us-gaap:StatementOfFinancialPositionAbstract", Child: "us-gaap:Assets", Order: 1},
				},
			},
			{
				URI:        "http://example.com/role/Operations",
				Definition: "0004 - Statement - Consolidated Statements of Operations",
				Roots:      []string{"us-gaap:IncomeStatementAbstract"},
				Rels: []models.Relationship{
					{Parent: "us-gaap:IncomeStatementAbstract", Child: "us-gaap:Revenues", Order: 1},
				},
			},
		},
		Concepts: map[string]models.Concept{
			"us-gaap:StatementOfFinancialPositionAbstract": {ID: "us-gaap:StatementOfFinancialPositionAbstract", Abstract: true,
				Labels: map[string]string{models.LabelRoleStandard: "Statement of Financial Position [Abstract]"}},
			"us-gaap:IncomeStatementAbstract": {ID: "us-gaap:IncomeStatementAbstract", Abstract: true,
				Labels: map[string]string{models.LabelRoleStandard: "Income Statement [Abstract]"}},
			"us-gaap:Assets": {ID: "us-gaap:Assets",
				Labels: map[string]string{models.LabelRoleStandard: "Total assets"}},
			"us-gaap:Revenues": {ID: "us-gaap:Revenues",
				Labels: map[string]string{models.LabelRoleStandard: "Total revenues"}},
		},
	}
	for _, y := range years {
		report.AnchorDates = append(report.AnchorDates, date(y, 12, 31))
		report.Facts = append(report.Facts,
			models.Fact{
				Concept: "us-gaap:Assets",
				Period:  models.Period{Instant: true, End: date(y, 12, 31)},
				Unit:    "USD", Numeric: true, Value: decimal.NewFromInt(int64(y) * 10),
			},
			models.Fact{
				Concept: "us-gaap:Revenues",
				Period:  models.Period{Start: date(y, 1, 1), End: date(y, 12, 31)},
				Unit:    "USD", Numeric: true, Value: decimal.NewFromInt(int64(y)),
			},
		)
	}
	return report
}

func TestAssembleSingleReport(t *testing.T) {
	a := New(Config{})
	report := testReport("acc-1", date(2025, 1, 30), 2024, 2023)

	res, err := a.Assemble(report)
	require.NoError(t, err)
	require.NotNil(t, res.Slice)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "acc-1", res.Slice.Source.ID)

	require.Len(t, res.Slice.Tables, 2)
	bs := res.Slice.Tables[0]
	assert.Equal(t, "Consolidated Balance Sheets", bs.Name)
	assert.Equal(t, models.KindInstant, bs.Kind)
	require.Len(t, bs.Periods, 2)
	assert.Equal(t, 2024, bs.Periods[0].End.Year())

	require.Len(t, bs.Rows, 2)
	assets := bs.Rows[1]
	assert.Equal(t, "Total assets", assets.Label)
	key := models.Period{Instant: true, End: date(2024, 12, 31)}.Key()
	assert.Equal(t, "20240", assets.Cells[key].Raw.String())

	is := res.Slice.Tables[1]
	assert.Equal(t, models.KindDuration, is.Kind)
	require.Len(t, is.Periods, 2, "only two duration vintages exist")
}

func TestAssembleDropsStatementWithoutPeriods(t *testing.T) {
	report := testReport("acc-2", date(2025, 1, 30), 2024)
	// Strip every duration fact so the income statement has no candidates.
	kept := report.Facts[:0]
	for _, f := range report.Facts {
		if f.Period.Instant {
			kept = append(kept, f)
		}
	}
	report.Facts = kept

	res, err := New(Config{}).Assemble(report)
	require.NoError(t, err, "one surviving statement keeps the run alive")
	require.NotNil(t, res.Slice)
	require.Len(t, res.Slice.Tables, 1)
	assert.Equal(t, "Consolidated Balance Sheets", res.Slice.Tables[0].Name)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, models.WarnStatementDropped, res.Warnings[0].Kind)
	assert.Equal(t, "Consolidated Statements of Operations", res.Warnings[0].Statement)
}

func TestAssembleEmptyRun(t *testing.T) {
	report := testReport("acc-3", date(2025, 1, 30), 2024)
	report.Facts = nil

	res, err := New(Config{}).Assemble(report)
	assert.ErrorIs(t, err, ErrEmptyRun)
	require.NotNil(t, res)
	assert.Nil(t, res.Slice)
	assert.NotEmpty(t, res.Warnings, "the warnings explain why nothing survived")
}

func TestAssembleEmptyVisibleSetWarnsAndDisablesFilter(t *testing.T) {
	report := testReport("acc-4", date(2025, 1, 30), 2024)
	report.Visible = models.NewVisibleSet()

	res, err := New(Config{HonorVisibleFilter: true}).Assemble(report)
	require.NoError(t, err)
	require.NotNil(t, res.Slice)
	assert.Len(t, res.Slice.Tables, 2, "no rows were filtered")

	found := false
	for _, w := range res.Warnings {
		if w.Kind == models.WarnVisibleSetEmpty {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemblePeriodCountOverride(t *testing.T) {
	report := testReport("acc-5", date(2025, 1, 30), 2024, 2023, 2022)

	res, err := New(Config{
		PeriodCounts: map[models.StatementKind]int{models.KindInstant: 3},
	}).Assemble(report)
	require.NoError(t, err)
	assert.Len(t, res.Slice.Tables[0].Periods, 3)
}

func TestAssembleAllFansOut(t *testing.T) {
	reports := []*models.Report{
		testReport("acc-a", date(2025, 1, 30), 2024, 2023),
		testReport("acc-b", date(2023, 1, 31), 2022, 2021),
		func() *models.Report {
			r := testReport("acc-empty", date(2021, 2, 1), 2020)
			r.Facts = nil
			return r
		}(),
	}

	results, err := New(Config{}).AssembleAll(reports)
	require.NoError(t, err, "one empty report does not fail the batch")
	require.Len(t, results, 3)
	assert.Equal(t, "acc-a", results[0].Slice.Source.ID, "results keep input order")
	assert.Equal(t, "acc-b", results[1].Slice.Source.ID)
	assert.Nil(t, results[2].Slice)

	slices := Slices(results)
	require.Len(t, slices, 2)

	warns := CollectWarnings(results)
	assert.NotEmpty(t, warns, "the empty report's diagnostics are preserved")
}

func TestAssembleAllAllEmpty(t *testing.T) {
	r := testReport("acc-x", date(2021, 2, 1), 2020)
	r.Facts = nil

	_, err := New(Config{}).AssembleAll([]*models.Report{r})
	assert.ErrorIs(t, err, ErrEmptyRun)
}
