// Package visible builds the rendered-document allowlist consumed by the
// fact matcher's visibility filter. The scan walks a FilingSummary-style
// rendered report page (an "R file"): every line item the document actually
// shows carries an anchor whose onclick embeds a "defref_<prefix>_<Concept>"
// reference. Concepts recovered this way become wildcard entries: the scan
// cannot reliably recover dimension signatures from markup alone, so it
// admits every signature of a seen concept rather than over-filtering.
package visible

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"statement_weaver/pkg/models"
)

const defrefMarker = "defref_"

// ScanHTML extracts the visible concept set from one rendered report page.
// Pages that contain no defref anchors yield an empty set (which downstream
// degrades to "no filtering").
func ScanHTML(r io.Reader) (*models.VisibleSet, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse rendered document: %w", err)
	}

	set := models.NewVisibleSet()
	doc.Find("a[onclick], a[href]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"onclick", "href"} {
			raw, ok := sel.Attr(attr)
			if !ok {
				continue
			}
			if concept := extractDefref(raw); concept != "" {
				set.AddConcept(concept)
			}
		}
	})
	return set, nil
}

// ScanAll folds several rendered pages into one set.
func ScanAll(readers ...io.Reader) (*models.VisibleSet, error) {
	merged := models.NewVisibleSet()
	for i, r := range readers {
		set, err := ScanHTML(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		mergeInto(merged, set)
	}
	return merged, nil
}

// extractDefref pulls the concept out of an attribute like
//
//	top.Show.showAR( this, 'defref_us-gaap_AssetsCurrent', window );
//
// and rewrites the first underscore back to the namespace separator:
// "us-gaap_AssetsCurrent" -> "us-gaap:AssetsCurrent".
func extractDefref(attr string) string {
	i := strings.Index(attr, defrefMarker)
	if i < 0 {
		return ""
	}
	ref := attr[i+len(defrefMarker):]
	if j := strings.IndexAny(ref, "'\"(),;&? "); j >= 0 {
		ref = ref[:j]
	}
	if ref == "" {
		return ""
	}
	if j := strings.Index(ref, "_"); j > 0 {
		ref = ref[:j] + ":" + ref[j+1:]
	}
	return ref
}

func mergeInto(dst, src *models.VisibleSet) {
	// VisibleSet keeps its internals private; re-adding through the public
	// surface keeps normalization in one place.
	for _, c := range src.Concepts() {
		dst.AddConcept(c)
	}
}
