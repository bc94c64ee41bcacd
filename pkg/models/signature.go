package models

import (
	"sort"
	"strings"
)

// AxisMember is one (axis, member) qualifier of a dimensioned fact.
type AxisMember struct {
	Axis   string `json:"axis"`
	Member string `json:"member"`
}

// DimensionSignature is an ordered, deduplicated set of axis/member pairs
// identifying a non-default breakdown of a concept. The empty signature is
// the undimensioned base case. Ordering is by normalized axis so signatures
// compare structurally regardless of producer emission order.
type DimensionSignature []AxisMember

// NewSignature builds a signature from an axis->member map.
func NewSignature(dims map[string]string) DimensionSignature {
	if len(dims) == 0 {
		return nil
	}
	sig := make(DimensionSignature, 0, len(dims))
	for axis, member := range dims {
		sig = append(sig, AxisMember{Axis: axis, Member: member})
	}
	sig.sort()
	return sig
}

func (s DimensionSignature) sort() {
	sort.Slice(s, func(i, j int) bool {
		ai, aj := NormalizeRef(s[i].Axis), NormalizeRef(s[j].Axis)
		if ai != aj {
			return ai < aj
		}
		return NormalizeRef(s[i].Member) < NormalizeRef(s[j].Member)
	})
}

// Empty reports the undimensioned base case.
func (s DimensionSignature) Empty() bool { return len(s) == 0 }

// Key is the normalized structural identity of the signature: axis/member
// pairs case- and namespace-folded, sorted, joined. Empty signature keys to "".
func (s DimensionSignature) Key() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, am := range s {
		p := NormalizeRef(am.Axis) + "=" + NormalizeRef(am.Member)
		if seen[p] {
			continue
		}
		seen[p] = true
		parts = append(parts, p)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Axes returns the normalized axis set, sorted.
func (s DimensionSignature) Axes() []string {
	axes := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, am := range s {
		a := NormalizeRef(am.Axis)
		if !seen[a] {
			seen[a] = true
			axes = append(axes, a)
		}
	}
	sort.Strings(axes)
	return axes
}

// MemberOn returns the normalized member on the given normalized axis, or "".
func (s DimensionSignature) MemberOn(axis string) string {
	for _, am := range s {
		if NormalizeRef(am.Axis) == axis {
			return NormalizeRef(am.Member)
		}
	}
	return ""
}

// SameAxes reports whether two signatures qualify on the identical axis set.
func (s DimensionSignature) SameAxes(o DimensionSignature) bool {
	a, b := s.Axes(), o.Axes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
