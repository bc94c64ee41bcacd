package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for all payload dates.
const DateLayout = "2006-01-02"

// Period is the point-in-time or span-of-time a fact applies to.
// Two periods are equal iff (Instant, End) match; Start only participates
// when disambiguating same-end-date duration collisions.
type Period struct {
	Label   string    `json:"label"`
	Instant bool      `json:"instant"`
	Start   time.Time `json:"start,omitempty"` // zero for instants
	End     time.Time `json:"end"`
}

// Key is the identity used for cell maps and period dedup.
func (p Period) Key() string {
	kind := "dur"
	if p.Instant {
		kind = "inst"
	}
	return kind + "|" + p.End.Format(DateLayout)
}

// SameSpan reports full equality including the start date, used to prefer an
// exact span among several durations sharing an end date.
func (p Period) SameSpan(o Period) bool {
	if p.Instant != o.Instant || !p.End.Equal(o.End) {
		return false
	}
	if p.Instant {
		return true
	}
	return p.Start.Equal(o.Start)
}

// Matches implements the fact-binding rule: an instant period matches a fact
// period with the same end date; a duration matches a fact period covering
// the same end date (exact starts are preferred by the caller).
func (p Period) Matches(fact Period) bool {
	return p.Instant == fact.Instant && p.End.Equal(fact.End)
}

// SpanMonths is the approximate month count of a duration, used only for
// display disambiguation ("3 Months Ended ..." vs "12 Months Ended ...").
func (p Period) SpanMonths() int {
	if p.Instant || p.Start.IsZero() {
		return 0
	}
	days := p.End.Sub(p.Start).Hours() / 24
	months := int(days/30.4 + 0.5)
	if months < 1 {
		months = 1
	}
	return months
}

// DisplayLabel derives a header caption when the producer supplied none.
func (p Period) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	if p.Instant {
		return p.End.Format("Jan. 02, 2006")
	}
	return fmt.Sprintf("%d Months Ended %s", p.SpanMonths(), p.End.Format("Jan. 02, 2006"))
}
