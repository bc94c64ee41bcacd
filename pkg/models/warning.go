package models

import "fmt"

// WarningKind classifies the degradations the pipeline can survive. Warnings
// are part of the result contract, not just log noise: callers must be able
// to tell partial success from total failure (and attribute every gap).
type WarningKind string

const (
	WarnRoleSkipped      WarningKind = "role_skipped"      // structural: no usable tree for a role
	WarnCycleTruncated   WarningKind = "cycle_truncated"   // presentation graph cycle cut at a leaf
	WarnStatementDropped WarningKind = "statement_dropped" // data absence: zero selectable periods
	WarnVisibleSetEmpty  WarningKind = "visible_set_empty" // filtering requested but scan produced nothing
	WarnRowFiltered      WarningKind = "row_filtered"      // row dropped by the visible-signature filter
	WarnAlignmentGap     WarningKind = "alignment_gap"     // anchor row got nothing from a slice
	WarnExtraRow         WarningKind = "extra_row"         // unmatched candidate row appended
	WarnValueDrift       WarningKind = "value_drift"       // same (row, period) disagrees across slices
)

// Warning is one attributable degradation: every alignment warning names the
// (statement, row, slice) triple it belongs to.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Statement string      `json:"statement,omitempty"`
	Row       string      `json:"row,omitempty"`
	Slice     string      `json:"slice,omitempty"` // FilingSlice source ID
	Message   string      `json:"message"`
}

func (w Warning) String() string {
	s := fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	if w.Statement != "" {
		s += fmt.Sprintf(" (statement=%q", w.Statement)
		if w.Row != "" {
			s += fmt.Sprintf(" row=%q", w.Row)
		}
		if w.Slice != "" {
			s += fmt.Sprintf(" slice=%s", w.Slice)
		}
		s += ")"
	}
	return s
}
