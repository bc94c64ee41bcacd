// Package labels resolves the best human-readable caption for a concept from
// layered label sources: the concept's own role-keyed captions, a caller
// fallback table, and finally a de-camel-cased rendering of the identifier.
// Pure lookup, no state.
package labels

import (
	"strings"
	"unicode"

	"statement_weaver/pkg/models"
)

// rolePreference is the order tried when no preferred role is pinned.
var rolePreference = []string{
	models.LabelRoleStandard,
	models.LabelRoleTerse,
	models.LabelRoleVerbose,
}

// Resolver performs caption and flag lookups against a concept table plus an
// optional fallback caption table (concept ID -> caption).
type Resolver struct {
	Concepts map[string]models.Concept
	Fallback map[string]string
}

// NewResolver builds a resolver over a report's concept table.
func NewResolver(concepts map[string]models.Concept) *Resolver {
	return &Resolver{Concepts: concepts}
}

// Caption resolves the display caption for a concept. preferredRole, when
// non-empty, is the relationship's caption-role hint and wins if the concept
// carries that role. Resolution order after that: standard, terse, verbose,
// any available role, the fallback table, de-camel-cased identifier.
func (r *Resolver) Caption(conceptID, preferredRole string) string {
	c, ok := r.Concepts[conceptID]
	if ok && len(c.Labels) > 0 {
		if preferredRole != "" {
			if label := c.Labels[preferredRole]; label != "" {
				return label
			}
		}
		for _, role := range rolePreference {
			if label := c.Labels[role]; label != "" {
				return label
			}
		}
		// Any role beats the mechanical fallback, but pick deterministically.
		if label := firstLabel(c.Labels); label != "" {
			return label
		}
	}
	if r.Fallback != nil {
		if label := r.Fallback[conceptID]; label != "" {
			return label
		}
	}
	return DeCamel(conceptID)
}

// Abstract resolves the structural-header flag: the explicit metadata flag
// when the concept is known, else a suffix heuristic on the identifier.
func (r *Resolver) Abstract(conceptID string) bool {
	if c, ok := r.Concepts[conceptID]; ok && c.Abstract {
		return true
	}
	return LooksAbstract(conceptID)
}

// IsTotal reports whether the resolved caption came from the total role,
// which renderers typically underline.
func (r *Resolver) IsTotal(conceptID, preferredRole string) bool {
	if preferredRole == models.LabelRoleTotal {
		return true
	}
	c, ok := r.Concepts[conceptID]
	if !ok {
		return false
	}
	_, hasTotal := c.Labels[models.LabelRoleTotal]
	return hasTotal && preferredRole == ""
}

// LooksAbstract is the identifier-suffix heuristic for structural nodes.
func LooksAbstract(conceptID string) bool {
	local := localName(conceptID)
	for _, suffix := range []string{"Abstract", "Axis", "Domain", "Table", "LineItems"} {
		if strings.HasSuffix(local, suffix) {
			return true
		}
	}
	return false
}

// DeCamel renders a concept's local name as words: "AssetsCurrent" ->
// "Assets Current". Runs of capitals stay together ("OCILoss" -> "OCI Loss").
func DeCamel(conceptID string) string {
	local := localName(conceptID)
	if local == "" {
		return conceptID
	}
	var b strings.Builder
	runes := []rune(local)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func localName(conceptID string) string {
	if i := strings.LastIndexAny(conceptID, ":"); i >= 0 {
		return conceptID[i+1:]
	}
	return conceptID
}

func firstLabel(labels map[string]string) string {
	best := ""
	bestRole := ""
	for role, label := range labels {
		if label == "" {
			continue
		}
		if best == "" || role < bestRole {
			best, bestRole = label, role
		}
	}
	return best
}
