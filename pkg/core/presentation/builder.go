// Package presentation converts the flat relationship graph of a report into
// rooted, ordered statement trees. Construction is iterative with an explicit
// stack and an ancestor-set cycle guard, so pathological graphs terminate
// with a truncated branch instead of blowing the stack.
package presentation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"statement_weaver/pkg/core/labels"
	"statement_weaver/pkg/models"
)

// ErrNoRoots is the classification-level failure for a role with no usable tree.
var ErrNoRoots = errors.New("role has no declared roots")

// Builder assembles PresentationStatements for every processable role.
type Builder struct {
	Log               zerolog.Logger
	Resolver          *labels.Resolver
	IncludeNonPrimary bool // when false, disclosure/other roles are skipped
}

// NewBuilder wires a builder over a report's concept table.
func NewBuilder(concepts map[string]models.Concept) *Builder {
	return &Builder{
		Log:      zerolog.Nop(),
		Resolver: labels.NewResolver(concepts),
	}
}

// Build constructs one statement per usable role. Role-level failures skip
// just that role and are reported as warnings; they never abort the run.
func (b *Builder) Build(report *models.Report) ([]*models.PresentationStatement, []models.Warning) {
	var stmts []*models.PresentationStatement
	var warnings []models.Warning

	for _, role := range report.Roles {
		group := classifyGroup(role)
		if group != models.GroupPrimary && !b.IncludeNonPrimary {
			continue
		}
		stmt, warns, err := b.buildRole(role, group)
		warnings = append(warnings, warns...)
		if err != nil {
			b.Log.Warn().Str("role", role.URI).Err(err).Msg("skipping role")
			warnings = append(warnings, models.Warning{
				Kind:      models.WarnRoleSkipped,
				Statement: CleanName(role.Definition),
				Message:   fmt.Sprintf("role %s skipped: %v", role.URI, err),
			})
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, warnings
}

// buildRole constructs the tree for a single role.
func (b *Builder) buildRole(role models.Role, group models.RoleGroup) (*models.PresentationStatement, []models.Warning, error) {
	if len(role.Roots) == 0 {
		return nil, nil, ErrNoRoots
	}

	children := indexRelationships(role.Rels)
	name := CleanName(role.Definition)

	var warnings []models.Warning
	roots := make([]*models.PresentationNode, 0, len(role.Roots))
	for _, rootConcept := range role.Roots {
		// buildSubtree always yields a node for its root, even when the
		// concept is unknown in the concept table.
		node, warns := b.buildSubtree(rootConcept, "", 0, children, map[string]bool{}, name)
		warnings = append(warnings, warns...)
		roots = append(roots, node)
	}

	return &models.PresentationStatement{
		RoleURI: role.URI,
		Name:    name,
		Kind:    ClassifyKind(name),
		Group:   group,
		Roots:   roots,
	}, warnings, nil
}

// childLink is one outgoing presentation edge, pre-sorted by order key.
type childLink struct {
	concept        string
	order          float64
	preferredLabel string
}

func indexRelationships(rels []models.Relationship) map[string][]childLink {
	out := make(map[string][]childLink)
	for _, rel := range rels {
		out[rel.Parent] = append(out[rel.Parent], childLink{
			concept:        rel.Child,
			order:          rel.Order,
			preferredLabel: rel.PreferredLabel,
		})
	}
	for parent := range out {
		links := out[parent]
		sort.SliceStable(links, func(i, j int) bool { return links[i].order < links[j].order })
	}
	return out
}

// buildSubtree constructs the node for concept and, iteratively via an
// explicit frame stack, everything beneath it. ancestors is the in-progress
// chain used as the cycle guard: a concept reappearing as its own descendant
// is truncated as a leaf.
func (b *Builder) buildSubtree(concept, preferredLabel string, depth int, children map[string][]childLink, ancestors map[string]bool, stmtName string) (*models.PresentationNode, []models.Warning) {
	type frame struct {
		node     *models.PresentationNode
		pending  []childLink
		ancestor string // normalized concept pushed into the guard set
	}

	var warnings []models.Warning

	makeNode := func(concept, preferred string, depth int, order float64) *models.PresentationNode {
		return &models.PresentationNode{
			Concept:        concept,
			Label:          b.Resolver.Caption(concept, preferred),
			Depth:          depth,
			Order:          order,
			Abstract:       b.Resolver.Abstract(concept),
			PreferredLabel: preferred,
		}
	}

	root := makeNode(concept, preferredLabel, depth, 0)
	stack := []frame{{node: root, pending: children[concept], ancestor: models.NormalizeRef(concept)}}
	ancestors[models.NormalizeRef(concept)] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.pending) == 0 {
			delete(ancestors, top.ancestor)
			stack = stack[:len(stack)-1]
			continue
		}
		link := top.pending[0]
		top.pending = top.pending[1:]

		key := models.NormalizeRef(link.concept)
		child := makeNode(link.concept, link.preferredLabel, top.node.Depth+1, link.order)
		top.node.Children = append(top.node.Children, child)

		if ancestors[key] {
			// Cycle: keep the node as a leaf, do not descend.
			b.Log.Warn().Str("concept", link.concept).Str("statement", stmtName).Msg("presentation cycle truncated")
			warnings = append(warnings, models.Warning{
				Kind:      models.WarnCycleTruncated,
				Statement: stmtName,
				Row:       child.Label,
				Message:   fmt.Sprintf("concept %s reappears as its own descendant; branch truncated", link.concept),
			})
			continue
		}
		if len(children[link.concept]) == 0 {
			continue
		}
		ancestors[key] = true
		stack = append(stack, frame{node: child, pending: children[link.concept], ancestor: key})
	}

	return root, warnings
}

// CleanName strips the producer's "<sort> - <type> - " prefix from a role
// definition, leaving the human statement name.
func CleanName(definition string) string {
	parts := strings.Split(definition, " - ")
	if len(parts) >= 3 {
		return strings.TrimSpace(strings.Join(parts[2:], " - "))
	}
	return strings.TrimSpace(definition)
}

// ClassifyKind infers period semantics from the statement name.
func ClassifyKind(name string) models.StatementKind {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "balance sheet"),
		strings.Contains(n, "financial position"),
		strings.Contains(n, "financial condition"):
		return models.KindInstant
	case strings.Contains(n, "operation"),
		strings.Contains(n, "income"),
		strings.Contains(n, "earnings"),
		strings.Contains(n, "cash flow"),
		strings.Contains(n, "comprehensive"),
		strings.Contains(n, "equity"):
		return models.KindDuration
	default:
		return models.KindOther
	}
}

func classifyGroup(role models.Role) models.RoleGroup {
	if role.Group != "" {
		return role.Group
	}
	def := strings.ToLower(role.Definition)
	switch {
	case strings.Contains(def, "- statement -"):
		return models.GroupPrimary
	case strings.Contains(def, "- disclosure -"), strings.Contains(def, "- schedule -"):
		return models.GroupDisclosure
	default:
		return models.GroupOther
	}
}
