// Package periods decides which reporting periods a statement displays, from
// the superset of contexts observed in the fact pool. Document anchor dates
// are the primary signal; fact-usage frequency is the fallback when anchors
// alone cannot fill the requested count.
package periods

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"statement_weaver/pkg/models"
)

// ErrNoPeriods is the data-absence failure for a statement with zero
// candidate periods. Fatal for the statement only, never for the run.
var ErrNoPeriods = errors.New("no candidate periods for statement")

// Defaults per statement kind.
const (
	DefaultInstantCount  = 2
	DefaultDurationCount = 3
	DefaultToleranceDays = 1 // weekend/holiday shifts between anchor and context dates
)

// Selector holds the selection policy knobs.
type Selector struct {
	Log           zerolog.Logger
	InstantCount  int
	DurationCount int
	ToleranceDays int
}

// NewSelector returns a selector with the default policy.
func NewSelector() *Selector {
	return &Selector{
		Log:           zerolog.Nop(),
		InstantCount:  DefaultInstantCount,
		DurationCount: DefaultDurationCount,
		ToleranceDays: DefaultToleranceDays,
	}
}

// candidate is one distinct observed period plus its usage frequency.
type candidate struct {
	period models.Period
	usage  int // distinct facts referencing the period
}

// Select picks and orders the display periods for one statement.
//
//	kind:     the statement's period semantics
//	facts:    the report's full fact pool
//	concepts: normalized concept references appearing in the statement tree
//	anchors:  document-level anchor dates
//	override: per-statement period-count override; 0 means the kind default
//
// The result is sorted most-recent-first and is deterministic for identical
// inputs. Zero candidates returns ErrNoPeriods.
func (s *Selector) Select(kind models.StatementKind, facts []models.Fact, concepts map[string]bool, anchors []time.Time, override int) ([]models.Period, error) {
	instants, durations := s.collect(facts, concepts)

	var pool []candidate
	count := override
	switch kind {
	case models.KindInstant:
		pool = instants
		if count <= 0 {
			count = s.InstantCount
		}
	case models.KindDuration:
		pool = durations
		if count <= 0 {
			count = s.DurationCount
		}
	default:
		// Unclassified statements take whichever flavor the data has,
		// preferring spans when both exist.
		pool = durations
		if len(pool) == 0 {
			pool = instants
		}
		if count <= 0 {
			count = s.DurationCount
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoPeriods
	}

	selected := s.pick(pool, anchors, count)
	sortMostRecentFirst(selected)
	disambiguate(selected)
	return selected, nil
}

// collect gathers the distinct periods referenced by the statement's
// concepts, split by flavor, with usage counts.
func (s *Selector) collect(facts []models.Fact, concepts map[string]bool) (instants, durations []candidate) {
	type slot struct {
		period models.Period
		usage  int
	}
	seen := make(map[string]*slot)
	for _, f := range facts {
		if len(concepts) > 0 && !concepts[models.NormalizeRef(f.Concept)] {
			continue
		}
		// Durations sharing an end date stay distinct by start so the
		// full-span variant can win on usage.
		key := f.Period.Key()
		if !f.Period.Instant {
			key += "|" + f.Period.Start.Format(models.DateLayout)
		}
		if sl, ok := seen[key]; ok {
			sl.usage++
			continue
		}
		seen[key] = &slot{period: f.Period, usage: 1}
	}
	for _, sl := range seen {
		c := candidate{period: sl.period, usage: sl.usage}
		if sl.period.Instant {
			instants = append(instants, c)
		} else {
			durations = append(durations, c)
		}
	}
	return instants, durations
}

// pick applies the anchor-first policy: anchor-matched candidates (within
// tolerance) ranked by recency always outrank frequency-ranked leftovers.
func (s *Selector) pick(pool []candidate, anchors []time.Time, count int) []models.Period {
	// Deterministic base order regardless of map iteration above.
	sort.SliceStable(pool, func(i, j int) bool {
		pi, pj := pool[i].period, pool[j].period
		if !pi.End.Equal(pj.End) {
			return pi.End.After(pj.End)
		}
		if pool[i].usage != pool[j].usage {
			return pool[i].usage > pool[j].usage
		}
		return pi.Start.After(pj.Start)
	})

	var anchored, rest []candidate
	for _, c := range pool {
		if s.matchesAnchor(c.period.End, anchors) {
			anchored = append(anchored, c)
		} else {
			rest = append(rest, c)
		}
	}

	var out []models.Period
	taken := make(map[string]bool)
	take := func(c candidate) {
		if taken[c.period.Key()] || len(out) >= count {
			return
		}
		taken[c.period.Key()] = true
		out = append(out, c.period)
	}

	for _, c := range anchored {
		take(c)
	}
	if len(out) < count && len(rest) > 0 {
		s.Log.Debug().
			Int("anchored", len(out)).
			Int("want", count).
			Msg("anchor dates underfill the display count, ranking leftovers by usage")
		// Frequency fallback for the remainder.
		sort.SliceStable(rest, func(i, j int) bool {
			if rest[i].usage != rest[j].usage {
				return rest[i].usage > rest[j].usage
			}
			if !rest[i].period.End.Equal(rest[j].period.End) {
				return rest[i].period.End.After(rest[j].period.End)
			}
			return rest[i].period.Start.After(rest[j].period.Start)
		})
		for _, c := range rest {
			take(c)
		}
	}
	return out
}

func (s *Selector) matchesAnchor(end time.Time, anchors []time.Time) bool {
	tol := time.Duration(s.ToleranceDays) * 24 * time.Hour
	for _, a := range anchors {
		d := end.Sub(a)
		if d < 0 {
			d = -d
		}
		if d <= tol {
			return true
		}
	}
	return false
}

func sortMostRecentFirst(periods []models.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		if !periods[i].End.Equal(periods[j].End) {
			return periods[i].End.After(periods[j].End)
		}
		// Same end date: spans before instants, longer spans first.
		if periods[i].Instant != periods[j].Instant {
			return !periods[i].Instant
		}
		return periods[i].Start.Before(periods[j].Start)
	})
}

// disambiguate guarantees distinct display labels when an instant and a
// duration share an end date (or the producer reused a label).
func disambiguate(periods []models.Period) {
	seen := make(map[string]int)
	for i := range periods {
		if periods[i].Label == "" {
			periods[i].Label = periods[i].DisplayLabel()
		}
		seen[periods[i].Label]++
	}
	for i := range periods {
		if seen[periods[i].Label] < 2 {
			continue
		}
		if periods[i].Instant {
			periods[i].Label = fmt.Sprintf("As of %s", periods[i].End.Format("Jan. 02, 2006"))
		} else {
			periods[i].Label = fmt.Sprintf("%d Months Ended %s", periods[i].SpanMonths(), periods[i].End.Format("Jan. 02, 2006"))
		}
	}
}
