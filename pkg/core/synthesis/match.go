package synthesis

import (
	"statement_weaver/pkg/core/dimensions"
	"statement_weaver/pkg/models"
)

// MatchTier grades how confidently a candidate row was matched to an anchor
// row. Strategies are attempted strictly in tier order; an auditable tier
// accompanies every merge decision.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierExact
	TierDimensional
	TierLabel
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierDimensional:
		return "dimensional"
	case TierLabel:
		return "label"
	default:
		return "none"
	}
}

// matchStrategy is one layer of the row-matching policy. Keeping the layers
// as an explicit ordered list (rather than one boolean predicate) lets new
// strategies slot in without rewriting the match loop.
type matchStrategy struct {
	tier  MatchTier
	match func(anchor, cand *models.StatementRow, h *models.DimensionHierarchy) bool
}

var strategies = []matchStrategy{
	// Layer a: same concept, same dimension signature.
	{
		tier: TierExact,
		match: func(a, c *models.StatementRow, _ *models.DimensionHierarchy) bool {
			ka, kc := a.Key(), c.Key()
			return ka.Concept != "" && ka.Concept == kc.Concept && ka.Signature == kc.Signature
		},
	},
	// Layer b: same concept, label and position, and the two signatures are
	// semantically compatible per the merged member hierarchy. Tolerates a
	// filer coarsening or refining a breakdown between vintages.
	{
		tier: TierDimensional,
		match: func(a, c *models.StatementRow, h *models.DimensionHierarchy) bool {
			ka, kc := a.Key(), c.Key()
			if ka.Concept == "" || ka.Concept != kc.Concept {
				return false
			}
			if ka.Label != kc.Label || ka.Depth != kc.Depth || ka.ParentChain != kc.ParentChain {
				return false
			}
			return dimensions.Compatible(a.Dims, c.Dims, h)
		},
	},
	// Layer c: exact normalized label with matching abstract flag. Survives
	// concept-identifier churn (extension concept swapped for a standard
	// one) while abstract headers never swallow concrete rows.
	{
		tier: TierLabel,
		match: func(a, c *models.StatementRow, _ *models.DimensionHierarchy) bool {
			if a.Abstract != c.Abstract {
				return false
			}
			ka, kc := a.Key(), c.Key()
			return ka.Label != "" && ka.Label == kc.Label
		},
	},
}

// findMatch locates the candidate row for an anchor row: each layer is tried
// in turn over the unclaimed candidate rows in presentation order, and the
// first hit of the first successful layer wins.
func findMatch(anchor *models.StatementRow, cands []*models.StatementRow, claimed []bool, h *models.DimensionHierarchy) (int, MatchTier) {
	for _, strat := range strategies {
		for i, cand := range cands {
			if claimed[i] {
				continue
			}
			if strat.match(anchor, cand, h) {
				return i, strat.tier
			}
		}
	}
	return -1, TierNone
}
