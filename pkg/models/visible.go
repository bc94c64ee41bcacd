package models

import "sort"

// VisibleSet is the allowlist of (concept, dimension-signature) pairs that
// were actually rendered in the human-readable source document. It supports
// two entry granularities:
//
//   - exact pairs, when the producer's document scan recovered signatures;
//   - concept-level wildcards, when the scan could only recover which
//     concepts appear (every signature of a seen concept is then admitted).
//
// An empty set degrades to "no filtering". That inherited sharp edge is kept
// deliberately, but the assembler surfaces it as a warning when filtering
// was requested on an empty set.
type VisibleSet struct {
	pairs    map[string]struct{} // normalizedConcept + "#" + signatureKey
	concepts map[string]struct{} // normalizedConcept wildcards
}

// NewVisibleSet returns an empty allowlist.
func NewVisibleSet() *VisibleSet {
	return &VisibleSet{
		pairs:    make(map[string]struct{}),
		concepts: make(map[string]struct{}),
	}
}

// AddPair records an exact (concept, signature) entry.
func (v *VisibleSet) AddPair(concept string, sig DimensionSignature) {
	v.pairs[NormalizeRef(concept)+"#"+sig.Key()] = struct{}{}
}

// AddConcept records a concept-level wildcard entry.
func (v *VisibleSet) AddConcept(concept string) {
	v.concepts[NormalizeRef(concept)] = struct{}{}
}

// Empty reports whether the set carries no entries at all.
func (v *VisibleSet) Empty() bool {
	return v == nil || (len(v.pairs) == 0 && len(v.concepts) == 0)
}

// Allows reports whether the (concept, signature) pair was rendered. An
// empty set allows everything.
func (v *VisibleSet) Allows(concept string, sig DimensionSignature) bool {
	if v.Empty() {
		return true
	}
	nc := NormalizeRef(concept)
	if _, ok := v.concepts[nc]; ok {
		return true
	}
	_, ok := v.pairs[nc+"#"+sig.Key()]
	return ok
}

// Concepts returns the wildcard entries, sorted, for merging and logging.
func (v *VisibleSet) Concepts() []string {
	if v == nil {
		return nil
	}
	out := make([]string, 0, len(v.concepts))
	for c := range v.concepts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len is the total entry count, used for logging.
func (v *VisibleSet) Len() int {
	if v == nil {
		return 0
	}
	return len(v.pairs) + len(v.concepts)
}
