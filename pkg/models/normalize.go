package models

import "strings"

// NormalizeRef folds case and the namespace prefix of a concept, axis or
// member reference so that "us-gaap:AssetsCurrent", "US-GAAP_AssetsCurrent"
// and "AssetsCurrent" all key identically. Producers disagree on the
// separator (colon vs underscore) and sometimes omit the prefix entirely.
func NormalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, ":"); i >= 0 {
		ref = ref[i+1:]
	} else if i := strings.Index(ref, "_"); i >= 0 && looksLikePrefix(ref[:i]) {
		ref = ref[i+1:]
	}
	return strings.ToLower(ref)
}

// looksLikePrefix reports whether s is plausibly a taxonomy prefix
// ("us-gaap", "dei", "srt", ticker extensions). Local names start with an
// uppercase letter, prefixes do not.
func looksLikePrefix(s string) bool {
	if s == "" {
		return false
	}
	return strings.ToLower(s) == s
}

// NormalizeLabel canonicalizes a display caption for matching: lower-cased,
// whitespace collapsed, trailing punctuation that filers toggle between
// vintages (colons, trailing periods) stripped.
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Join(strings.Fields(label), " ")
	label = strings.TrimRight(label, ":. ")
	return label
}
