package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_weaver/pkg/models"
)

const strictPayload = `{
  "source": {"id": "0001628280-25-003063", "form": "10-K", "filing_date": "2025-01-30"},
  "anchor_dates": ["2024-12-31", "2023-12-31"],
  "roles": [
    {
      "uri": "http://example.com/role/BalanceSheet",
      "definition": "0003 - Statement - Consolidated Balance Sheets",
      "roots": ["us-gaap:StatementOfFinancialPositionAbstract"],
      "relationships": [
        {"parent": "us-gaap:StatementOfFinancialPositionAbstract", "child": "us-gaap:AssetsCurrent", "order": 1, "preferred_label": "totalLabel"}
      ]
    }
  ],
  "concepts": {
    "us-gaap:AssetsCurrent": {"labels": {"label": "Total current assets"}, "abstract": false},
    "us-gaap:StatementOfFinancialPositionAbstract": {"abstract": true}
  },
  "facts": [
    {"concept": "us-gaap:AssetsCurrent", "end": "2024-12-31", "unit": "USD", "value": 49616000000, "decimals": -6},
    {"concept": "us-gaap:Revenues", "start": "2024-01-01", "end": "2024-12-31", "value": 97690000000,
     "dims": {"us-gaap:StatementBusinessSegmentsAxis": "tsla:AutomotiveMember"}},
    {"concept": "dei:EntityRegistrantName", "instant": "2024-12-31", "text": "Tesla, Inc."}
  ],
  "role_classes": {"http://example.com/role/BalanceSheet": "primary"},
  "visible": [
    {"concept": "us-gaap:AssetsCurrent", "wildcard": true},
    {"concept": "us-gaap:Revenues", "dims": {"us-gaap:StatementBusinessSegmentsAxis": "tsla:AutomotiveMember"}}
  ]
}`

func TestLoadStrictJSON(t *testing.T) {
	report, err := Load([]byte(strictPayload))
	require.NoError(t, err)

	assert.Equal(t, "0001628280-25-003063", report.Source.ID)
	assert.Equal(t, "10-K", report.Source.Form)
	assert.False(t, report.Source.Amended)
	assert.Equal(t, time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), report.Source.FilingDate)
	require.Len(t, report.AnchorDates, 2)

	require.Len(t, report.Roles, 1)
	role := report.Roles[0]
	assert.Equal(t, models.GroupPrimary, role.Group)
	require.Len(t, role.Rels, 1)
	assert.Equal(t, models.LabelRoleTotal, role.Rels[0].PreferredLabel)

	assert.True(t, report.Concepts["us-gaap:StatementOfFinancialPositionAbstract"].Abstract)
	assert.Equal(t, "Total current assets", report.Concepts["us-gaap:AssetsCurrent"].Labels[models.LabelRoleStandard])

	require.Len(t, report.Facts, 3)
	assets := report.Facts[0]
	assert.True(t, assets.Period.Instant)
	assert.True(t, assets.Numeric)
	assert.Equal(t, "49616000000", assets.Value.String())
	require.NotNil(t, assets.Decimals)
	assert.Equal(t, -6, *assets.Decimals)

	rev := report.Facts[1]
	assert.False(t, rev.Period.Instant)
	assert.False(t, rev.Dims.Empty())

	name := report.Facts[2]
	assert.True(t, name.Period.Instant, "legacy instant alias parses")
	assert.False(t, name.Numeric)
	assert.Equal(t, "Tesla, Inc.", name.Text)

	require.NotNil(t, report.Visible)
	sig := models.NewSignature(map[string]string{"us-gaap:StatementBusinessSegmentsAxis": "tsla:AutomotiveMember"})
	assert.True(t, report.Visible.Allows("us-gaap:Revenues", sig))
	assert.False(t, report.Visible.Allows("us-gaap:Revenues", nil))
	assert.True(t, report.Visible.Allows("us-gaap:AssetsCurrent", sig), "wildcard entry admits any signature")
}

func TestDecodeRepairsSloppyJSON(t *testing.T) {
	// Trailing comma plus a code fence, the classic producer-pipeline mess.
	sloppy := "```json\n" + `{
  "source": {"id": "acc-1", "form": "10-Q", "filing_date": "2024-10-23",},
}` + "\n```"
	p, err := Decode([]byte(sloppy))
	require.NoError(t, err)
	assert.Equal(t, "acc-1", p.Source.ID)
}

func TestDecodeHjsonFixtures(t *testing.T) {
	fixture := `{
  # hand-edited fixture
  source: {id: acc-2, form: 10-K, filing_date: 2024-01-15}
}`
	p, err := Decode([]byte(fixture))
	require.NoError(t, err)
	assert.Equal(t, "acc-2", p.Source.ID)
	assert.Equal(t, "10-K", p.Source.Form)
}

func TestDecodeGarbageFails(t *testing.T) {
	_, err := Decode([]byte("<html>not a payload</html>"))
	assert.Error(t, err)
}

func TestBuildAmendedForms(t *testing.T) {
	report, err := Build(&ReportPayload{
		Source: SourcePayload{ID: "acc-3", Form: "10-K/A", FilingDate: "2024-05-01"},
	})
	require.NoError(t, err)
	assert.True(t, report.Source.Amended, "the /A form suffix implies amendment")

	report, err = Build(&ReportPayload{
		Source: SourcePayload{ID: "acc-4", Form: "10-K", FilingDate: "2024-05-01", Amended: true},
	})
	require.NoError(t, err)
	assert.True(t, report.Source.Amended)
}

func TestBuildValidation(t *testing.T) {
	base := func() *ReportPayload {
		return &ReportPayload{
			Source: SourcePayload{ID: "acc-5", Form: "10-K", FilingDate: "2024-01-15"},
		}
	}

	t.Run("missing source id", func(t *testing.T) {
		p := base()
		p.Source.ID = ""
		_, err := Build(p)
		assert.ErrorContains(t, err, "source.id")
	})

	t.Run("bad filing date", func(t *testing.T) {
		p := base()
		p.Source.FilingDate = "01/15/2024"
		_, err := Build(p)
		assert.ErrorContains(t, err, "filing_date")
	})

	t.Run("bad anchor date", func(t *testing.T) {
		p := base()
		p.AnchorDates = []string{"not-a-date"}
		_, err := Build(p)
		assert.ErrorContains(t, err, "anchor date")
	})

	t.Run("empty relationship endpoint", func(t *testing.T) {
		p := base()
		p.Roles = []RolePayload{{
			URI:           "http://example.com/role/X",
			Relationships: []RelPayload{{Parent: "us-gaap:A", Child: ""}},
		}}
		_, err := Build(p)
		assert.ErrorContains(t, err, "empty parent or child")
	})

	t.Run("fact without period", func(t *testing.T) {
		p := base()
		p.Facts = []FactPayload{{Concept: "us-gaap:Assets", Text: "x"}}
		_, err := Build(p)
		assert.ErrorContains(t, err, "no period dates")
	})

	t.Run("fact without value or text", func(t *testing.T) {
		p := base()
		p.Facts = []FactPayload{{Concept: "us-gaap:Assets", End: "2024-12-31"}}
		_, err := Build(p)
		assert.ErrorContains(t, err, "neither value nor text")
	})

	t.Run("inverted period", func(t *testing.T) {
		p := base()
		p.Facts = []FactPayload{{Concept: "us-gaap:Revenues", Start: "2024-12-31", End: "2024-01-01", Text: "x"}}
		_, err := Build(p)
		assert.ErrorContains(t, err, "before it starts")
	})
}
