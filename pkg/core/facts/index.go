package facts

import (
	"sort"

	"statement_weaver/pkg/models"
)

// conceptFacts is the per-concept view of the fact pool: facts grouped by
// dimension signature, plus the distinct non-empty signatures in display
// order. Built once per concept and cached for the life of one report run,
// so repeated tree nodes never rescan the pool.
type conceptFacts struct {
	bySig map[string][]models.Fact    // signature key -> facts
	sigs  []models.DimensionSignature // distinct non-empty signatures, display-sorted
}

// base returns the undimensioned facts.
func (cf *conceptFacts) base() []models.Fact {
	if cf == nil {
		return nil
	}
	return cf.bySig[""]
}

// group returns the facts carrying the given signature.
func (cf *conceptFacts) group(sig models.DimensionSignature) []models.Fact {
	if cf == nil {
		return nil
	}
	return cf.bySig[sig.Key()]
}

// buildConceptFacts indexes every pool fact for one normalized concept.
func buildConceptFacts(pool []models.Fact, normConcept string) *conceptFacts {
	cf := &conceptFacts{bySig: make(map[string][]models.Fact)}
	sigByKey := make(map[string]models.DimensionSignature)
	for _, f := range pool {
		if models.NormalizeRef(f.Concept) != normConcept {
			continue
		}
		key := f.Dims.Key()
		cf.bySig[key] = append(cf.bySig[key], f)
		if key != "" {
			if _, ok := sigByKey[key]; !ok {
				sigByKey[key] = f.Dims
			}
		}
	}
	for _, sig := range sigByKey {
		cf.sigs = append(cf.sigs, sig)
	}
	sortSignatures(cf.sigs)
	// Deterministic per-group fact order: later spans first so exact-start
	// preference has a stable tie-break.
	for key := range cf.bySig {
		group := cf.bySig[key]
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := group[i].Period, group[j].Period
			if !pi.End.Equal(pj.End) {
				return pi.End.After(pj.End)
			}
			return pi.Start.After(pj.Start)
		})
	}
	return cf
}

// sortSignatures orders breakdown signatures: size ascending, then axis
// name, then member name, so the base total leads and breakdown rows follow
// deterministically.
func sortSignatures(sigs []models.DimensionSignature) {
	sort.SliceStable(sigs, func(i, j int) bool {
		if len(sigs[i]) != len(sigs[j]) {
			return len(sigs[i]) < len(sigs[j])
		}
		return sigs[i].Key() < sigs[j].Key()
	})
}
