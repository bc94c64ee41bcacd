// Package models defines the typed data model shared by every stage of the
// statement assembly pipeline: concepts, periods, facts, presentation trees,
// statement tables and filing slices. Everything here is constructed once per
// processing run from the producer payload and treated as read-only afterward;
// the ensemble aligner is the only consumer that derives new rows from it.
package models

import "time"

// Label roles as emitted by the report producer. The resolver tries these in
// preference order when a relationship does not pin a preferred role.
const (
	LabelRoleStandard = "label"
	LabelRoleTerse    = "terseLabel"
	LabelRoleTotal    = "totalLabel"
	LabelRoleVerbose  = "verboseLabel"
	LabelRoleNegated  = "negatedLabel"
)

// Concept is a namespace-qualified reportable line-item identifier plus the
// metadata needed to caption it. Immutable once resolved.
type Concept struct {
	ID       string            `json:"id"` // e.g. "us-gaap:AssetsCurrent"
	Abstract bool              `json:"abstract"`
	Labels   map[string]string `json:"labels,omitempty"` // caption role -> caption
}

// Relationship is one parent->child link of the presentation graph.
type Relationship struct {
	Parent         string  `json:"parent"`
	Child          string  `json:"child"`
	Order          float64 `json:"order"`
	PreferredLabel string  `json:"preferred_label,omitempty"` // caption-role override
}

// RoleGroup classifies a statement role for default filtering.
type RoleGroup string

const (
	GroupPrimary    RoleGroup = "primary"
	GroupDisclosure RoleGroup = "disclosure"
	GroupOther      RoleGroup = "other"
)

// Role is one statement role of the presentation graph: its declared roots and
// the parent->child relationships beneath them.
type Role struct {
	URI        string         `json:"uri"`
	Definition string         `json:"definition"` // human statement name, e.g. "Consolidated Balance Sheets"
	Group      RoleGroup      `json:"group,omitempty"`
	Roots      []string       `json:"roots"`
	Rels       []Relationship `json:"relationships"`
}

// SourceMeta identifies the filing a report payload was produced from.
type SourceMeta struct {
	ID         string    `json:"id"`   // accession-number-like stable identifier
	Form       string    `json:"form"` // "10-K", "10-K/A", ...
	FilingDate time.Time `json:"filing_date"`
	Amended    bool      `json:"amended"`
}

// Report is the fully typed view of one producer payload: the unit of input
// to single-report assembly. Built by the payload adapter; core stages never
// touch the raw payload.
type Report struct {
	Source      SourceMeta
	AnchorDates []time.Time // document-level "as of" / period-end dates
	Roles       []Role
	Concepts    map[string]Concept // keyed by Concept.ID
	Facts       []Fact
	Visible     *VisibleSet // nil when the producer supplied no rendering scan
}

// ConceptByRef looks a concept up under reference normalization, so payloads
// that flip between "us-gaap:Assets" and "us-gaap_Assets" still resolve.
func (r *Report) ConceptByRef(ref string) (Concept, bool) {
	if c, ok := r.Concepts[ref]; ok {
		return c, true
	}
	want := NormalizeRef(ref)
	for id, c := range r.Concepts {
		if NormalizeRef(id) == want {
			return c, true
		}
	}
	return Concept{}, false
}
