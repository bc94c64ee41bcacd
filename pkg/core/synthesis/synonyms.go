package synthesis

import (
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// SynonymTable normalizes statement names into cross-vintage match keys.
// Filers rename statements between filings ("CONSOLIDATED BALANCE SHEETS" vs
// "Condensed Consolidated Balance Sheets (Unaudited)", "Stockholders'
// Equity" vs "Shareholders' Equity"); the table maps those variants onto one
// canonical key.
type SynonymTable struct {
	// Phrases maps a normalized phrase to its canonical replacement.
	Phrases map[string]string `yaml:"phrases"`
	// Fillers are words dropped entirely before phrase replacement.
	Fillers []string `yaml:"fillers"`
}

// DefaultSynonyms is the built-in table, sufficient for US-GAAP filers.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		Phrases: map[string]string{
			"stockholders equity":              "equity",
			"stockholders deficit":             "equity",
			"shareholders equity":              "equity",
			"shareholders deficit":             "equity",
			"shareowners equity":               "equity",
			"statement of financial position":  "balance sheet",
			"statement of financial condition": "balance sheet",
			"financial position":               "balance sheet",
			"financial condition":              "balance sheet",
			"statement of operation":           "income statement",
			"statement of earning":             "income statement",
			"statement of income":              "income statement",
		},
		Fillers: []string{
			"consolidated", "condensed", "interim", "unaudited",
			"parenthetical", "the", "and comprehensive",
		},
	}
}

// LoadSynonyms reads a YAML synonym table and merges it over the defaults,
// so a deployment only declares its filer-specific additions.
func LoadSynonyms(path string) (SynonymTable, error) {
	base := DefaultSynonyms()
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read synonym table: %w", err)
	}
	var extra SynonymTable
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return base, fmt.Errorf("parse synonym table: %w", err)
	}
	for phrase, canon := range extra.Phrases {
		base.Phrases[normalizeText(phrase)] = normalizeText(canon)
	}
	base.Fillers = append(base.Fillers, extra.Fillers...)
	return base, nil
}

// Key computes the canonical match key for a statement name: suffixes like
// "(unaudited)"/"(parenthetical)" stripped, punctuation and filler words
// removed, synonym phrases folded, plurals flattened.
func (t SynonymTable) Key(name string) string {
	s := normalizeText(name)

	// Drop every parenthesized qualifier.
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		close := strings.Index(s[open:], ")")
		if close < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + " " + s[open+close+1:]
	}
	s = normalizeText(s)

	for _, filler := range t.Fillers {
		s = strings.ReplaceAll(" "+s+" ", " "+normalizeText(filler)+" ", " ")
		s = strings.TrimSpace(s)
	}
	s = singularizeWords(s)

	// Longest phrases first so "stockholders equity" wins over "equity".
	phrases := make([]string, 0, len(t.Phrases))
	for p := range t.Phrases {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })
	for _, p := range phrases {
		s = strings.ReplaceAll(s, singularizeWords(p), t.Phrases[p])
	}

	return strings.Join(strings.Fields(s), " ")
}

// normalizeText lower-cases, strips punctuation filers toggle (apostrophes,
// commas, dashes) and collapses whitespace.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer("'", "", "’", "", ",", " ", "-", " ", "_", " ", ":", " ", ".", " ")
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// singularizeWords flattens trivial plurals ("sheets" -> "sheet",
// "statements" -> "statement") so pluralization drift never splits a key.
func singularizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			words[i] = w[:len(w)-1]
		}
	}
	return strings.Join(words, " ")
}
