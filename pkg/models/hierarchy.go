package models

// DimensionHierarchy records parent/child relationships among dimension
// members, derived from the axis/domain/member substructure of the
// presentation graph. Keys are normalized member references. Read-only once
// built for a report; hierarchies from several reports are merged (union of
// edges) before ensemble alignment.
type DimensionHierarchy struct {
	Parents  map[string][]string `json:"parents,omitempty"`  // child -> parents
	Children map[string][]string `json:"children,omitempty"` // parent -> children
}

// NewDimensionHierarchy returns an empty hierarchy.
func NewDimensionHierarchy() *DimensionHierarchy {
	return &DimensionHierarchy{
		Parents:  make(map[string][]string),
		Children: make(map[string][]string),
	}
}

// AddEdge records parent -> child. References are normalized; duplicate
// edges are ignored.
func (h *DimensionHierarchy) AddEdge(parent, child string) {
	p, c := NormalizeRef(parent), NormalizeRef(child)
	if p == "" || c == "" || p == c {
		return
	}
	if !contains(h.Parents[c], p) {
		h.Parents[c] = append(h.Parents[c], p)
	}
	if !contains(h.Children[p], c) {
		h.Children[p] = append(h.Children[p], c)
	}
}

// IsAncestor reports whether ancestor is reachable from member by walking
// parent edges. A member is not its own ancestor.
func (h *DimensionHierarchy) IsAncestor(ancestor, member string) bool {
	if h == nil {
		return false
	}
	a, m := NormalizeRef(ancestor), NormalizeRef(member)
	if a == m {
		return false
	}
	seen := make(map[string]bool)
	stack := append([]string{}, h.Parents[m]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if cur == a {
			return true
		}
		stack = append(stack, h.Parents[cur]...)
	}
	return false
}

// Related reports whether two members are equal or one is an ancestor of the
// other. This is the member-level test behind the relaxed dimensional match.
func (h *DimensionHierarchy) Related(a, b string) bool {
	na, nb := NormalizeRef(a), NormalizeRef(b)
	if na == nb {
		return true
	}
	return h.IsAncestor(na, nb) || h.IsAncestor(nb, na)
}

// Merge unions another hierarchy's edges into this one.
func (h *DimensionHierarchy) Merge(other *DimensionHierarchy) {
	if other == nil {
		return
	}
	for parent, children := range other.Children {
		for _, child := range children {
			h.AddEdge(parent, child)
		}
	}
}

// MergeHierarchies unions the hierarchies of every slice into one.
func MergeHierarchies(slices []*FilingSlice) *DimensionHierarchy {
	merged := NewDimensionHierarchy()
	for _, s := range slices {
		if s != nil {
			merged.Merge(s.Hierarchy)
		}
	}
	return merged
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
