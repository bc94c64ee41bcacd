package models

import "github.com/shopspring/decimal"

// Fact is a single tagged value from the report's fact pool. Facts are
// read-only inputs and are never mutated by any stage.
type Fact struct {
	Concept  string             `json:"concept"`
	Period   Period             `json:"period"`
	Dims     DimensionSignature `json:"dims,omitempty"`
	Unit     string             `json:"unit,omitempty"`
	Value    decimal.Decimal    `json:"value"`
	Text     string             `json:"text,omitempty"` // raw value for non-numeric facts
	Numeric  bool               `json:"numeric"`
	Decimals *int               `json:"decimals,omitempty"` // precision hint, e.g. -6 = rounded to millions
}

// Display is the resolved display value: the text for narrative facts, the
// decimal rendering otherwise. Currency scaling and negative formatting are
// the renderer's concern, not ours.
func (f Fact) Display() string {
	if !f.Numeric {
		return f.Text
	}
	return f.Value.String()
}
