// Package payload is the boundary adapter between the external report
// producer and the typed core model. Producer payload schemas drift between
// versions, so everything dynamic is absorbed here: decoding is a ladder of
// strict JSON, mechanical JSON repair, then Hjson, and the decoded shape is
// structurally validated before any core logic sees it. Core packages never
// touch raw maps or optional keys.
package payload

import (
	"encoding/json"
	"fmt"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"

	"statement_weaver/pkg/models"
)

// ReportPayload is the wire shape of one producer export.
type ReportPayload struct {
	Source      SourcePayload             `json:"source"`
	AnchorDates []string                  `json:"anchor_dates"`
	Roles       []RolePayload             `json:"roles"`
	Concepts    map[string]ConceptPayload `json:"concepts"`
	Facts       []FactPayload             `json:"facts"`
	RoleClasses map[string]string         `json:"role_classes,omitempty"` // role URI -> primary|disclosure|other
	Visible     []VisiblePayload          `json:"visible,omitempty"`
}

// SourcePayload identifies the originating filing.
type SourcePayload struct {
	ID         string `json:"id"`
	Form       string `json:"form"`
	FilingDate string `json:"filing_date"`
	Amended    bool   `json:"amended"`
}

// RolePayload is one statement role of the presentation graph.
type RolePayload struct {
	URI           string       `json:"uri"`
	Definition    string       `json:"definition"`
	Roots         []string     `json:"roots"`
	Relationships []RelPayload `json:"relationships"`
}

// RelPayload is one parent->child presentation link.
type RelPayload struct {
	Parent         string  `json:"parent"`
	Child          string  `json:"child"`
	Order          float64 `json:"order"`
	PreferredLabel string  `json:"preferred_label,omitempty"`
}

// ConceptPayload is the metadata for one concept.
type ConceptPayload struct {
	Labels   map[string]string `json:"labels,omitempty"`
	Abstract *bool             `json:"abstract,omitempty"`
}

// FactPayload is one tagged value. Instant facts carry only End (or the
// legacy Instant alias); duration facts carry Start and End.
type FactPayload struct {
	Concept  string            `json:"concept"`
	Start    string            `json:"start,omitempty"`
	End      string            `json:"end,omitempty"`
	Instant  string            `json:"instant,omitempty"` // legacy producers: instant date here, End empty
	Dims     map[string]string `json:"dims,omitempty"`
	Unit     string            `json:"unit,omitempty"`
	Value    *decimal.Decimal  `json:"value,omitempty"`
	Text     string            `json:"text,omitempty"`
	Decimals *int              `json:"decimals,omitempty"`
}

// VisiblePayload is one rendered (concept, dims) pair from the producer's
// document scan. Dims nil with Wildcard true admits every signature of the
// concept.
type VisiblePayload struct {
	Concept  string            `json:"concept"`
	Dims     map[string]string `json:"dims,omitempty"`
	Wildcard bool              `json:"wildcard,omitempty"`
}

// Decode parses raw payload bytes with the tolerance ladder:
//  1. strict JSON
//  2. mechanical JSON repair (trailing commas, single quotes, fences)
//  3. Hjson (hand-edited fixture payloads)
func Decode(data []byte) (*ReportPayload, error) {
	var p ReportPayload
	if err := json.Unmarshal(data, &p); err == nil {
		return &p, nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		p = ReportPayload{}
		if err := json.Unmarshal([]byte(repaired), &p); err == nil {
			return &p, nil
		}
	}

	p = ReportPayload{}
	if err := hjson.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("payload is not parseable as JSON, repaired JSON or Hjson: %w", err)
	}
	return &p, nil
}

// Build validates the decoded payload and converts it into the strict typed
// model. All schema tolerance ends here.
func Build(p *ReportPayload) (*models.Report, error) {
	if p.Source.ID == "" {
		return nil, fmt.Errorf("payload source.id is required")
	}
	filingDate, err := parseDate(p.Source.FilingDate)
	if err != nil {
		return nil, fmt.Errorf("payload source.filing_date: %w", err)
	}

	report := &models.Report{
		Source: models.SourceMeta{
			ID:         p.Source.ID,
			Form:       p.Source.Form,
			FilingDate: filingDate,
			Amended:    p.Source.Amended || isAmendedForm(p.Source.Form),
		},
		Concepts: make(map[string]models.Concept, len(p.Concepts)),
	}

	for _, raw := range p.AnchorDates {
		d, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("anchor date %q: %w", raw, err)
		}
		report.AnchorDates = append(report.AnchorDates, d)
	}

	for id, cp := range p.Concepts {
		c := models.Concept{ID: id, Labels: cp.Labels}
		if cp.Abstract != nil {
			c.Abstract = *cp.Abstract
		}
		report.Concepts[id] = c
	}

	for _, rp := range p.Roles {
		role := models.Role{
			URI:        rp.URI,
			Definition: rp.Definition,
			Group:      roleGroup(p.RoleClasses[rp.URI]),
			Roots:      rp.Roots,
		}
		for _, rel := range rp.Relationships {
			if rel.Parent == "" || rel.Child == "" {
				return nil, fmt.Errorf("role %s: relationship with empty parent or child", rp.URI)
			}
			role.Rels = append(role.Rels, models.Relationship{
				Parent:         rel.Parent,
				Child:          rel.Child,
				Order:          rel.Order,
				PreferredLabel: rel.PreferredLabel,
			})
		}
		report.Roles = append(report.Roles, role)
	}

	for i, fp := range p.Facts {
		fact, err := buildFact(fp)
		if err != nil {
			return nil, fmt.Errorf("fact[%d] (%s): %w", i, fp.Concept, err)
		}
		report.Facts = append(report.Facts, fact)
	}

	if len(p.Visible) > 0 {
		vs := models.NewVisibleSet()
		for _, vp := range p.Visible {
			if vp.Wildcard || len(vp.Dims) == 0 {
				vs.AddConcept(vp.Concept)
			} else {
				vs.AddPair(vp.Concept, models.NewSignature(vp.Dims))
			}
		}
		report.Visible = vs
	}

	return report, nil
}

// Load is the convenience composition of Decode and Build.
func Load(data []byte) (*models.Report, error) {
	p, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Build(p)
}

func buildFact(fp FactPayload) (models.Fact, error) {
	if fp.Concept == "" {
		return models.Fact{}, fmt.Errorf("fact has no concept")
	}

	var period models.Period
	switch {
	case fp.Instant != "":
		end, err := parseDate(fp.Instant)
		if err != nil {
			return models.Fact{}, fmt.Errorf("instant date: %w", err)
		}
		period = models.Period{Instant: true, End: end}
	case fp.Start != "" && fp.End != "":
		start, err := parseDate(fp.Start)
		if err != nil {
			return models.Fact{}, fmt.Errorf("start date: %w", err)
		}
		end, err := parseDate(fp.End)
		if err != nil {
			return models.Fact{}, fmt.Errorf("end date: %w", err)
		}
		if end.Before(start) {
			return models.Fact{}, fmt.Errorf("period ends (%s) before it starts (%s)", fp.End, fp.Start)
		}
		period = models.Period{Start: start, End: end}
	case fp.End != "":
		end, err := parseDate(fp.End)
		if err != nil {
			return models.Fact{}, fmt.Errorf("end date: %w", err)
		}
		period = models.Period{Instant: true, End: end}
	default:
		return models.Fact{}, fmt.Errorf("fact has no period dates")
	}

	fact := models.Fact{
		Concept:  fp.Concept,
		Period:   period,
		Dims:     models.NewSignature(fp.Dims),
		Unit:     fp.Unit,
		Text:     fp.Text,
		Decimals: fp.Decimals,
	}
	if fp.Value != nil {
		fact.Value = *fp.Value
		fact.Numeric = true
	} else if fp.Text == "" {
		return models.Fact{}, fmt.Errorf("fact has neither value nor text")
	}
	return fact, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	d, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func roleGroup(class string) models.RoleGroup {
	switch class {
	case "primary":
		return models.GroupPrimary
	case "disclosure":
		return models.GroupDisclosure
	case "other":
		return models.GroupOther
	default:
		return "" // builder falls back to the definition-string heuristic
	}
}

func isAmendedForm(form string) bool {
	return len(form) > 2 && form[len(form)-2:] == "/A"
}
