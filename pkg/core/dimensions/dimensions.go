// Package dimensions derives the member hierarchy of a report from the
// axis/domain/member substructure embedded in its presentation graph. Filers
// frequently coarsen or refine a breakdown between vintages (reporting
// against a parent member one year and its children the next); the hierarchy
// is what lets the ensemble aligner recognize those rows as the same line.
package dimensions

import (
	"strings"

	"statement_weaver/pkg/models"
)

// BuildHierarchy walks every role's relationships and records parent->child
// edges between dimension members. An edge qualifies when the parent is a
// domain or member (the subtree under an axis) and the child is a member;
// ordinary line-item edges never enter the hierarchy.
func BuildHierarchy(roles []models.Role) *models.DimensionHierarchy {
	h := models.NewDimensionHierarchy()
	for _, role := range roles {
		for _, rel := range role.Rels {
			if !isDimensionParent(rel.Parent) || !isMember(rel.Child) {
				continue
			}
			h.AddEdge(rel.Parent, rel.Child)
		}
	}
	return h
}

// Compatible implements the semantic signature-compatibility test: both
// signatures qualify on the same axis set, and on every axis the two members
// are equal or one is an ancestor of the other per the merged hierarchy.
func Compatible(a, b models.DimensionSignature, h *models.DimensionHierarchy) bool {
	if !a.SameAxes(b) {
		return false
	}
	for _, axis := range a.Axes() {
		ma, mb := a.MemberOn(axis), b.MemberOn(axis)
		if ma == mb {
			continue
		}
		if h == nil || !h.Related(ma, mb) {
			return false
		}
	}
	return true
}

func isDimensionParent(concept string) bool {
	return hasSuffix(concept, "Domain") || hasSuffix(concept, "Member") || hasSuffix(concept, "Axis")
}

func isMember(concept string) bool {
	return hasSuffix(concept, "Member") || hasSuffix(concept, "Domain")
}

func hasSuffix(concept, suffix string) bool {
	local := concept
	if i := strings.LastIndex(local, ":"); i >= 0 {
		local = local[i+1:]
	}
	// The "[Member]" bracket form shows up in some producer exports.
	local = strings.TrimSuffix(strings.TrimSpace(local), "]")
	return strings.HasSuffix(local, suffix)
}
